package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medstock/backend/internal/infrastructure/auth"
	"github.com/medstock/backend/internal/interfaces/http/handler"
	"github.com/medstock/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers served by the API
type Handlers struct {
	Analytics *handler.AnalyticsHandler
	Analysis  *handler.AnalysisHandler
	Health    *handler.HealthHandler
	System    *handler.SystemHandler
}

// Health probe paths, served outside the versioned API
const (
	LivenessPath  = "/health/live"
	ReadinessPath = "/health/ready"
)

// Setup mounts the health probes and the versioned API on engine and
// returns the router so callers can list what was registered.
// Scope checks pass through when no JWT middleware runs ahead of them.
func Setup(engine *gin.Engine, h Handlers, opts ...RouterOption) *Router {
	engine.GET(LivenessPath, h.Health.Live)
	engine.GET(ReadinessPath, h.Health.Ready)

	r := NewRouter(engine, opts...)

	system := NewDomainGroup("system", "/system")
	system.Handle(http.MethodGet, "/info", "Service name, version and uptime", h.System.GetSystemInfo)
	system.Handle(http.MethodGet, "/ping", "Connectivity check", h.System.Ping)

	analyticsGroup := NewDomainGroup("analytics", "/analytics").Use(middleware.RequireScope(auth.ScopeRead))
	analyticsGroup.Handle(http.MethodGet, "/kpis", "Compute KPIs for a reporting window", h.Analytics.GetKPIs)
	analyticsGroup.Handle(http.MethodPost, "/insights", "Summarize metrics into quick insights", h.Analytics.QuickInsights)

	analysisGroup := NewDomainGroup("analysis", "/analysis")
	jobs := analysisGroup.Group("jobs", "/jobs")
	jobs.Handle(http.MethodPost, "", "Start an analysis job", middleware.RequireScope(auth.ScopeAnalyze), h.Analysis.StartAnalysis)
	jobs.Handle(http.MethodGet, "/:id", "Poll an analysis job", middleware.RequireScope(auth.ScopeRead), h.Analysis.GetJobStatus)
	jobs.Handle(http.MethodGet, "/:id/result", "Fetch a completed analysis result", middleware.RequireScope(auth.ScopeRead), h.Analysis.GetJobResult)
	analysisGroup.Handle(http.MethodPost, "/cleanup", "Drop finished jobs past the retention window", middleware.RequireScope(auth.ScopeMaintenance), h.Analysis.Cleanup)

	r.Register(system).Register(analyticsGroup).Register(analysisGroup)
	r.Setup()
	return r
}
