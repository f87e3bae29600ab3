package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"rate limited", fmt.Errorf("op: %w", apperr.ErrRateLimited), http.StatusTooManyRequests},
		{"login required", apperr.ErrUnauthorized, http.StatusUnauthorized},
		{"validation", apperr.Validation("rating must be 1..5"), http.StatusUnprocessableEntity},
		{"invalid plan inside upgrade", apperr.Upgrade(apperr.Validation("unknown plan")), http.StatusUnprocessableEntity},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"upgrade", apperr.Upgrade(errors.New("declined")), http.StatusPaymentRequired},
		{"superseded", apperr.ErrSuperseded, http.StatusConflict},
		{"fetch", apperr.Fetch(apperr.ErrTransient), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	status, body := FromError(fmt.Errorf("remoteapi.do: dial tcp 10.0.0.1:443: %w", apperr.ErrTransient))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, StatusError, body.Status)
	assert.NotContains(t, body.Error, "10.0.0.1")
}

func TestValidationError(t *testing.T) {
	type req struct {
		Rating int    `validate:"min=1,max=5"`
		Plan   string `validate:"required"`
	}
	err := validator.New().Struct(req{Rating: 9})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Rating must be at most 5")
	assert.Contains(t, resp.Error, "field Plan is a required field")
}
