package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medstock/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func testConfig(baseURL string) config.ReasoningConfig {
	return config.ReasoningConfig{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Model:        "test-model",
		Timeout:      time.Second,
		RateLimitQPS: 100,
		Burst:        10,
		MaxTokens:    256,
	}
}

func TestClient_Complete(t *testing.T) {
	requests := make(chan chatRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		requests <- req
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"insights\":[\"ok\"]}"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL+"/v1/"), zap.NewNop())
	text, err := client.Complete(context.Background(), Prompt{System: "be brief", User: "metrics"})
	require.NoError(t, err)
	assert.Equal(t, `{"insights":["ok"]}`, text)

	got := <-requests
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "metrics", got.Messages[1].Content)
}

func TestClient_Complete_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
		{
			name: "error payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(testConfig(srv.URL), zap.NewNop())
			_, err := client.Complete(context.Background(), Prompt{User: "metrics"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstreamUnavailable)
		})
	}
}

func TestClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg, zap.NewNop())

	start := time.Now()
	_, err := client.Complete(context.Background(), Prompt{User: "metrics"})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_Complete_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zap.NewNop(), WithLimiter(rate.NewLimiter(rate.Limit(0.001), 1)))

	_, err := client.Complete(context.Background(), Prompt{User: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, Prompt{User: "second"})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNew(t *testing.T) {
	t.Run("disabled without endpoint", func(t *testing.T) {
		r := New(config.ReasoningConfig{}, zap.NewNop())
		_, ok := r.(Disabled)
		require.True(t, ok)

		_, err := r.Complete(context.Background(), Prompt{User: "x"})
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("client when configured", func(t *testing.T) {
		r := New(testConfig("http://localhost:1"), zap.NewNop())
		_, ok := r.(*Client)
		assert.True(t, ok)
	})
}
