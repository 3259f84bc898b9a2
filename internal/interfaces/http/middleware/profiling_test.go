package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/medstock/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
)

func TestProfilingWithConfig(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		router := gin.New()
		router.Use(ProfilingWithConfig(ProfilingConfig{Enabled: enabled, SkipPathPrefixes: []string{"/health"}}))

		var called int
		handler := func(c *gin.Context) {
			called++
			assert.NotNil(t, c.Request.Context())
			c.Status(http.StatusOK)
		}
		router.GET("/api/v1/analysis/jobs/:id", handler)
		router.GET("/health/live", handler)

		assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/api/v1/analysis/jobs/42", nil).Code)
		assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/health/live", nil).Code)
		assert.Equal(t, 2, called)
	}
}

func TestExtractProfilingLabels(t *testing.T) {
	var labels map[string]string
	router := gin.New()
	router.POST("/api/v1/analysis/jobs", func(c *gin.Context) {
		labels = extractProfilingLabels(c)
	})

	serve(t, router, http.MethodPost, "/api/v1/analysis/jobs", nil)

	assert.Equal(t, map[string]string{
		telemetry.ProfilingLabelMethod:    http.MethodPost,
		telemetry.ProfilingLabelRoute:     "/api/v1/analysis/jobs",
		telemetry.ProfilingLabelOperation: "analysis",
	}, labels)
}

func TestResourceFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/analytics/kpis":           "analytics",
		"/api/v1/analysis/jobs/:id/result": "analysis",
		"/api/v2/:id":                      "",
		"/health/ready":                    "health",
		"":                                 "",
	}
	for route, want := range tests {
		assert.Equal(t, want, resourceFromRoute(route), route)
	}

	assert.True(t, isVersionSegment("v12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("vx"))
}
