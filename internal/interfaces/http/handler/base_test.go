package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/medstock/backend/internal/domain/shared"
	"github.com/medstock/backend/internal/interfaces/http/dto"
	"github.com/medstock/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext()
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(middleware.RequestIDHeader, "from-header")
	assert.Equal(t, "from-header", getRequestID(c))

	c.Set(middleware.RequestIDKey, "from-context")
	assert.Equal(t, "from-context", getRequestID(c))
}

func TestBaseHandler_SuccessAndAccepted(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext()
	h.Success(c, gin.H{"value": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)

	c, w = newTestContext()
	h.Accepted(c, gin.H{"job_id": "x"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandler_ErrorWithData(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	c.Set(middleware.RequestIDKey, "req-9")

	h.ErrorWithData(c, dto.ErrCodeJobFailed, "Analysis failed", gin.H{"status": "failed"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeJobFailed, resp.Error.Code)
	assert.Equal(t, "req-9", resp.Error.RequestID)
	assert.Equal(t, "failed", resp.Data.(map[string]any)["status"])
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found"},
		{"not ready", shared.ErrNotReady, http.StatusAccepted, dto.ErrCodeNotReady, "Resource is not ready yet"},
		{"invalid input", shared.NewDomainError(shared.CodeInvalidInput, "Invalid time range"), http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid time range"},
		{"invalid state", shared.ErrInvalidState, http.StatusConflict, dto.ErrCodeInvalidState, "Operation not allowed in current state"},
		{"computation", shared.WrapDomainError(shared.CodeComputationFailed, "KPI computation failed", assert.AnError), http.StatusInternalServerError, dto.ErrCodeComputationFailed, "KPI computation failed"},
		{"upstream", shared.ErrUpstreamUnavailable, http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable, "Upstream service unavailable"},
		{"wrapped domain error", fmt.Errorf("service: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found"},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext()
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})
}
