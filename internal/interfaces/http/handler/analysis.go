package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	analysisapp "github.com/medstock/backend/internal/application/analysis"
	"github.com/medstock/backend/internal/domain/analysis"
	"github.com/medstock/backend/internal/domain/shared"
	"github.com/medstock/backend/internal/interfaces/http/dto"
)

// AnalysisService runs and tracks asynchronous analysis jobs
type AnalysisService interface {
	StartAnalysis(ctx context.Context, req analysisapp.StartRequest) (*analysis.Job, error)
	GetJobStatus(ctx context.Context, jobID string) (*analysis.Job, error)
	GetJobResult(ctx context.Context, jobID string) (*analysis.Job, error)
	Cleanup(ctx context.Context, retention time.Duration) (int, error)
}

// AnalysisHandler serves the analysis job endpoints
type AnalysisHandler struct {
	BaseHandler
	service AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// StartAnalysis godoc
// @ID           postAnalysisJobs
// @Summary      Start an analysis job
// @Description  Queues an analysis and returns immediately. Poll the job status until it completes.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request body dto.StartAnalysisRequest true "Analysis parameters"
// @Success      202 {object} dto.Response{data=dto.JobStatusResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /analysis/jobs [post]
func (h *AnalysisHandler) StartAnalysis(c *gin.Context) {
	var req dto.StartAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	job, err := h.service.StartAnalysis(c.Request.Context(), analysisapp.StartRequest{
		AnalysisType: req.AnalysisType,
		TimeRange:    req.TimeRange,
		Filter:       req.Filters,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, dto.NewJobStatusResponse(job))
}

// GetJobStatus godoc
// @ID           getAnalysisJob
// @Summary      Get analysis job status
// @Tags         analysis
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.Response{data=dto.JobStatusResponse}
// @Failure      404 {object} dto.Response
// @Router       /analysis/jobs/{id} [get]
func (h *AnalysisHandler) GetJobStatus(c *gin.Context) {
	var uri dto.JobIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	job, err := h.service.GetJobStatus(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewJobStatusResponse(job))
}

// GetJobResult godoc
// @ID           getAnalysisJobResult
// @Summary      Get analysis job result
// @Description  Returns the result of a completed job. A queued or processing job answers 202 and a failed job 422, both with the job status as data.
// @Tags         analysis
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.Response{data=dto.JobResultResponse}
// @Success      202 {object} dto.Response{data=dto.JobStatusResponse}
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response{data=dto.JobStatusResponse}
// @Router       /analysis/jobs/{id}/result [get]
func (h *AnalysisHandler) GetJobResult(c *gin.Context) {
	var uri dto.JobIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	job, err := h.service.GetJobResult(c.Request.Context(), uri.ID)
	if err != nil {
		if job != nil && errors.Is(err, shared.ErrNotReady) {
			status := dto.NewJobStatusResponse(job)
			if job.Status == analysis.JobStatusFailed {
				h.ErrorWithData(c, dto.ErrCodeJobFailed, "Analysis failed", status)
				return
			}
			h.ErrorWithData(c, dto.ErrCodeNotReady, "Analysis has not completed", status)
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.JobResultResponse{
		JobStatusResponse: dto.NewJobStatusResponse(job),
		Result:            job.Result,
	})
}

// Cleanup godoc
// @ID           postAnalysisCleanup
// @Summary      Remove finished analysis jobs
// @Description  Drops completed and failed jobs whose completion is older than the retention window.
// @Tags         analysis
// @Produce      json
// @Param        retention_hours query int false "Retention in hours (default 24)"
// @Success      200 {object} dto.Response{data=dto.CleanupResponse}
// @Failure      400 {object} dto.Response
// @Router       /analysis/cleanup [post]
func (h *AnalysisHandler) Cleanup(c *gin.Context) {
	var q dto.CleanupQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	hours, retention := q.Retention()
	removed, err := h.service.Cleanup(c.Request.Context(), retention)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CleanupResponse{Removed: removed, RetentionHours: hours})
}
