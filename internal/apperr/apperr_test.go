package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappersKeepChain(t *testing.T) {
	cause := errors.New("gateway closed")

	up := Upgrade(cause)
	assert.ErrorIs(t, up, ErrUpgrade)
	assert.ErrorIs(t, up, cause)

	f := Fetch(ErrTransient)
	assert.ErrorIs(t, f, ErrFetch)
	assert.ErrorIs(t, f, ErrTransient)

	assert.ErrorIs(t, Upgrade(nil), ErrUpgrade)
	assert.ErrorIs(t, Fetch(nil), ErrFetch)
}

func TestValidation(t *testing.T) {
	err := Validation("rating must be between %d and %d", 1, 5)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "rating must be between 1 and 5")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"rate limited", Fetch(ErrRateLimited), "too many requests, please slow down"},
		{"validation", Validation("bad"), "validation failed: bad"},
		{"upgrade", Upgrade(errors.New("x")), "upgrade failed, please try again"},
		{"unauthorized", ErrUnauthorized, "please log in to continue"},
		{"not found", ErrNotFound, "not found"},
		{"generic", errors.New("boom"), "something went wrong, please retry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
