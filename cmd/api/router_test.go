package api

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"unibox-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() http.Handler {
	cfg := &config.Config{LogLevel: "debug", RateLimitRPS: 100, RateLimitBurst: 100}
	return NewHandler(nil, nil, nil, nil, cfg, nil).Engine()
}

func TestRoutes_PublicAndProtected(t *testing.T) {
	engine := newTestEngine()

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodOptions, "/api/events", http.StatusNoContent},
		{http.MethodGet, "/api/events", http.StatusUnauthorized},
		{http.MethodGet, "/api/emails/stats", http.StatusUnauthorized},
		{http.MethodGet, "/api/accounts", http.StatusUnauthorized},
		{http.MethodPost, "/api/events/accounts/a1/items", http.StatusUnauthorized},
		// email items are read-only, so no write route exists
		{http.MethodPost, "/api/emails/accounts/a1/items", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestServe_ListenFailureIsReturned(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	h := NewHandler(nil, nil, nil, nil, &config.Config{LogLevel: "debug"}, nil)
	err = h.Serve(context.Background(), ln.Addr().String())
	assert.Error(t, err, "an occupied port must come back as an error")
}

func TestServe_StopsOnContextDone(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, &config.Config{LogLevel: "debug"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- h.Serve(ctx, "127.0.0.1:0") }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
