package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	assert.Equal(t, "Resource not found", ErrNotFound.Error())

	wrapped := WrapDomainError(CodeComputationFailed, "KPI computation failed", errors.New("db down"))
	assert.Equal(t, "KPI computation failed: db down", wrapped.Error())
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainError(CodeNotFound, "Analysis job not found")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, fmt.Errorf("lookup: %w", err), ErrNotFound)
}

func TestDomainError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("summarize: %w", WrapDomainError(CodeUpstreamUnavailable, "Reasoning unavailable", cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeUpstreamUnavailable, de.Code)
	assert.Equal(t, "Reasoning unavailable", de.Message)
}
