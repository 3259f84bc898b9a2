package middleware

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medstock/backend/internal/infrastructure/auth"
	"github.com/medstock/backend/internal/infrastructure/config"
	"github.com/medstock/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService(config.JWTConfig{
		Enabled: true,
		Secret:  "test-secret-key-at-least-32-chars",
		Issuer:  "medstock-test",
	})
}

type failingVerifier struct{ err error }

func (v failingVerifier) Verify(string) (*auth.Claims, error) { return nil, v.err }

func jwtRouter(verifier TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuth(DefaultJWTConfig(verifier, nil)))
	handlers := append(extra, func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTSubject(c))
	})
	router.GET("/api/v1/analytics/kpis", handlers...)
	router.GET("/health/live", func(c *gin.Context) { c.String(http.StatusOK, "alive") })
	return router
}

func decodeError(t *testing.T, body []byte) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return *resp.Error
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestTokenService()
	token, err := svc.Issue("ops-dashboard", []string{auth.ScopeRead}, time.Hour)
	require.NoError(t, err)

	w := serve(t, jwtRouter(svc), http.MethodGet, "/api/v1/analytics/kpis", map[string]string{
		AuthHeaderKey: BearerPrefix + token,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops-dashboard", w.Body.String())
}

func TestJWTAuth_Rejections(t *testing.T) {
	svc := newTestTokenService()

	tests := []struct {
		name     string
		verifier TokenVerifier
		header   string
		wantCode string
	}{
		{"missing header", svc, "", dto.ErrCodeTokenInvalid},
		{"not bearer", svc, "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty bearer", svc, BearerPrefix, dto.ErrCodeTokenInvalid},
		{"garbage token", svc, BearerPrefix + "garbage", dto.ErrCodeTokenInvalid},
		{"expired token", failingVerifier{auth.ErrExpiredToken}, BearerPrefix + "x", dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers[AuthHeaderKey] = tt.header
			}
			w := serve(t, jwtRouter(tt.verifier), http.MethodGet, "/api/v1/analytics/kpis", headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			info := decodeError(t, w.Body.Bytes())
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, w.Header().Get(RequestIDHeader), info.RequestID)
		})
	}
}

func TestJWTAuth_SkipsHealth(t *testing.T) {
	w := serve(t, jwtRouter(failingVerifier{auth.ErrInvalidToken}), http.MethodGet, "/health/live", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}

func TestRequireScope(t *testing.T) {
	svc := newTestTokenService()

	t.Run("granted", func(t *testing.T) {
		token, err := svc.Issue("ops", []string{auth.ScopeMaintenance}, time.Hour)
		require.NoError(t, err)

		w := serve(t, jwtRouter(svc, RequireScope(auth.ScopeMaintenance)), http.MethodGet, "/api/v1/analytics/kpis", map[string]string{
			AuthHeaderKey: BearerPrefix + token,
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing scope", func(t *testing.T) {
		token, err := svc.Issue("viewer", []string{auth.ScopeRead}, time.Hour)
		require.NoError(t, err)

		w := serve(t, jwtRouter(svc, RequireScope(auth.ScopeMaintenance)), http.MethodGet, "/api/v1/analytics/kpis", map[string]string{
			AuthHeaderKey: BearerPrefix + token,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, ErrCodeForbidden, decodeError(t, w.Body.Bytes()).Code)
	})

	t.Run("unauthenticated passes", func(t *testing.T) {
		router := gin.New()
		router.GET("/x", RequireScope(auth.ScopeMaintenance), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		w := serve(t, router, http.MethodGet, "/x", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
