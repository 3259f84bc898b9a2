package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medstock/backend/internal/interfaces/http/dto"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// cleanupCmd asks a running server to drop finished jobs. Jobs live in the
// server's memory, so this cannot run against the database directly.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove finished analysis jobs on a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		server, _ := cmd.Flags().GetString("server")
		token, _ := cmd.Flags().GetString("token")
		hours, _ := cmd.Flags().GetInt("retention-hours")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		client := newAPIClient(server, token, timeout)
		result, err := client.cleanup(ctx, hours)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result)
	},
}

// apiClient calls the versioned HTTP API with trace propagation
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *apiClient) cleanup(ctx context.Context, retentionHours int) (*dto.CleanupResponse, error) {
	query := url.Values{"retention_hours": {strconv.Itoa(retentionHours)}}
	var out dto.CleanupResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/analysis/cleanup?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *dto.ErrorInfo  `json:"error"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("unexpected response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !envelope.Success {
		if envelope.Error != nil {
			return fmt.Errorf("server answered %d %s: %s", resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("server answered %d", resp.StatusCode)
	}
	return json.Unmarshal(envelope.Data, out)
}
