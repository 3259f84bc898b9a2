package dto

import (
	"time"

	"github.com/medstock/backend/internal/domain/analysis"
	"github.com/medstock/backend/internal/domain/analytics"
)

// DefaultRetentionHours is used by cleanup when no retention is given
const DefaultRetentionHours = 24

// KPIQuery holds the query parameters of a KPI request
type KPIQuery struct {
	TimeRange  string `form:"time_range" binding:"omitempty,oneof=7d 30d 90d 1y"`
	SupplierID string `form:"supplier_id" binding:"omitempty,max=64"`
	StoreID    string `form:"store_id" binding:"omitempty,max=64"`
	MedID      string `form:"med_id" binding:"omitempty,max=64"`
}

// Filter returns the query's record filter
func (q KPIQuery) Filter() analytics.Filter {
	return analytics.Filter{SupplierID: q.SupplierID, StoreID: q.StoreID, MedID: q.MedID}
}

// QuickInsightsRequest carries the metrics to summarize
type QuickInsightsRequest struct {
	Metrics map[string]any `json:"metrics" binding:"required"`
}

// StartAnalysisRequest starts an analysis job
type StartAnalysisRequest struct {
	AnalysisType string           `json:"analysis_type" binding:"omitempty,oneof=quick_assessment full warehouse_optimization purchase_order"`
	TimeRange    string           `json:"time_range" binding:"omitempty,oneof=7d 30d 90d 1y"`
	Filters      analytics.Filter `json:"filters"`
}

// JobIDRequest is the job id path parameter
type JobIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// CleanupQuery holds the retention of a cleanup request
type CleanupQuery struct {
	RetentionHours *int `form:"retention_hours" binding:"omitempty,min=0,max=8760"`
}

// Retention returns the requested retention, DefaultRetentionHours when absent
func (q CleanupQuery) Retention() (hours int, d time.Duration) {
	hours = DefaultRetentionHours
	if q.RetentionHours != nil {
		hours = *q.RetentionHours
	}
	return hours, time.Duration(hours) * time.Hour
}

// JobStatusResponse is the polling view of an analysis job
type JobStatusResponse struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	AnalysisType string     `json:"analysis_type"`
	Progress     int        `json:"progress"`
	Stage        string     `json:"stage"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// NewJobStatusResponse builds the status view of job
func NewJobStatusResponse(job *analysis.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:        job.ID.String(),
		Status:       string(job.Status),
		AnalysisType: string(job.AnalysisType),
		Progress:     job.Progress,
		Stage:        job.Stage,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		Error:        job.Error,
	}
}

// JobResultResponse is a completed job with its result
type JobResultResponse struct {
	JobStatusResponse
	Result *analysis.Result `json:"result"`
}

// CleanupResponse reports a retention sweep
type CleanupResponse struct {
	Removed        int `json:"removed"`
	RetentionHours int `json:"retention_hours"`
}
