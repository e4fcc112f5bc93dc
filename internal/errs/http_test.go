package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: limit", ErrValidation), http.StatusBadRequest},
		{"refresh failed", fmt.Errorf("%w: invalid_grant", ErrRefreshFailed), http.StatusUnauthorized},
		{"refresh failed with empty mirror", errors.Join(ErrRefreshFailed, ErrMirrorEmpty), http.StatusUnauthorized},
		{"provider down with empty mirror", errors.Join(fmt.Errorf("list: %w", ErrProviderUnavailable), ErrMirrorEmpty), http.StatusBadGateway},
		{"account", ErrAccountNotFound, http.StatusNotFound},
		{"exists", ErrAlreadyExists, http.StatusConflict},
		{"unsupported", ErrUnsupported, http.StatusNotImplemented},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "linked account not found", PublicMessage(ErrAccountNotFound))
}
