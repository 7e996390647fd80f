package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/ingestion"
	"github.com/jonathan/profiler/internal/types"
	"github.com/jonathan/profiler/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "bad request", err: &ErrBadRequest{Message: "invalid id"}, want: http.StatusBadRequest},
		{name: "validation", err: validation.Errors{"name is required"}, want: http.StatusBadRequest},
		{name: "config", err: &types.ConfigError{Message: "dependency cycle"}, want: http.StatusBadRequest},
		{name: "not found", err: types.NewNotFound(types.KindProfile, uuid.New()), want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", types.NewNotFound(types.KindDocument, uuid.New())), want: http.StatusNotFound},
		{name: "conflict", err: &types.ConflictError{Message: "already completed"}, want: http.StatusConflict},
		{name: "empty content", err: ingestion.ErrEmptyContent, want: http.StatusUnprocessableEntity},
		{name: "fetch failed", err: fmt.Errorf("%w: timeout", ingestion.ErrHTTPRequestFailed), want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrBadRequest(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &ErrBadRequest{Message: "invalid request body", Cause: cause}
	assert.Equal(t, "invalid request body: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)
}
