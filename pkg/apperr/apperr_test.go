package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad %s", "input"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("blocked"), http.StatusForbidden},
		{"not found sentinel wrapped", fmt.Errorf("load: %w", ErrUserNotFound), http.StatusNotFound},
		{"conflict", ErrEmailTaken, http.StatusConflict},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("mongo: connection reset")))
	assert.Equal(t, "internal server error", Message(Wrap(KindInternal, errors.New("x"), "db down")))
	assert.Equal(t, "product not found", Message(fmt.Errorf("find: %w", ErrProductNotFound)))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(KindConflict, cause, "duplicate")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "duplicate: cause", err.Error())
	assert.Equal(t, "conflict", KindOf(err).String())
}
