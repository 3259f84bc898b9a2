package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medstock/backend/internal/domain/analysis"
	"github.com/medstock/backend/internal/interfaces/http/dto"
)

// Pinger checks a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheSizer reports the number of cached snapshots
type CacheSizer interface {
	Size(ctx context.Context) (int64, error)
}

// JobCounter reports tracked analysis jobs by status
type JobCounter interface {
	JobCounts() map[analysis.JobStatus]int
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	db      Pinger
	cache   CacheSizer
	jobs    JobCounter
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, cache CacheSizer, jobs JobCounter) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, jobs: jobs, timeout: 2 * time.Second}
}

// CheckResult is the outcome of one readiness check
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadinessResponse is the readiness probe payload
type ReadinessResponse struct {
	Status       string                 `json:"status"`
	Checks       map[string]CheckResult `json:"checks"`
	CacheEntries int64                  `json:"cache_entries"`
	Jobs         map[string]int         `json:"jobs"`
}

// Live godoc
// @ID           getHealthLive
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /health/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	h.Success(c, gin.H{"status": "alive"})
}

// Ready godoc
// @ID           getHealthReady
// @Summary      Readiness probe
// @Description  Pings the database and reports cache and job registry sizes. Answers 503 when a dependency is down.
// @Tags         health
// @Produce      json
// @Success      200 {object} dto.Response{data=ReadinessResponse}
// @Failure      503 {object} dto.Response{data=ReadinessResponse}
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{
		Status: "ready",
		Checks: map[string]CheckResult{},
		Jobs:   map[string]int{},
	}

	resp.Checks["database"] = runCheck(func() error { return h.db.Ping(ctx) })
	resp.Checks["cache"] = runCheck(func() error {
		n, err := h.cache.Size(ctx)
		resp.CacheEntries = n
		return err
	})
	for status, n := range h.jobs.JobCounts() {
		resp.Jobs[string(status)] = n
	}

	// The cache degrades to misses, so only the database gates readiness
	if resp.Checks["database"].Status != "ok" {
		resp.Status = "unavailable"
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithData(
			dto.ErrCodeUpstreamUnavailable, "Database is unreachable", getRequestID(c), resp))
		return
	}
	h.Success(c, resp)
}

func runCheck(fn func() error) CheckResult {
	if err := fn(); err != nil {
		return CheckResult{Status: "error", Error: err.Error()}
	}
	return CheckResult{Status: "ok"}
}
