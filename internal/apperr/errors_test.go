package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", apperr.Required("content"), http.StatusBadRequest},
		{"not found", apperr.NotFound("session", "s1"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("session", "s1")), http.StatusNotFound},
		{"generation", apperr.Generation("reply", context.DeadlineExceeded), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, apperr.HTTPStatus(tc.err))
		})
	}
}

func TestGenerationKeepsCause(t *testing.T) {
	err := apperr.Generation("summarize", context.DeadlineExceeded)

	assert.True(t, apperr.IsGeneration(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	again := apperr.Generation("reply", err)
	assert.Same(t, err, again)
}
