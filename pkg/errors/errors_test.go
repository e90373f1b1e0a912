package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("content is required"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("token required"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not a participant"), http.StatusForbidden},
		{"not found", NotFound("conversation %d not found", 10), http.StatusNotFound},
		{"conflict", Conflict("user exists"), http.StatusConflict},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"internal", Internal(stderrors.New("db down"), "failed to save"), http.StatusInternalServerError},
		{"unclassified", stderrors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("join: %w", Forbidden("no")), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestToAPIError_HidesInternalCause(t *testing.T) {
	req := require.New(t)

	apiErr := ToAPIError(Internal(stderrors.New("connection refused"), "failed to save message"))
	req.Equal(http.StatusInternalServerError, apiErr.Status)
	req.Equal("internal server error", apiErr.Message)

	apiErr = ToAPIError(NotFound("conversation not found"))
	req.Equal(http.StatusNotFound, apiErr.Status)
	req.Equal("conversation not found", apiErr.Message)
}

func TestError_IsKind(t *testing.T) {
	req := require.New(t)
	err := Internal(stderrors.New("timeout"), "failed to load")

	req.ErrorIs(err, ErrInternal)
	req.NotErrorIs(err, ErrForbidden)
	req.Contains(err.Error(), "timeout")
}
