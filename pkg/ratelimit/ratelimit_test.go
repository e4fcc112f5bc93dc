package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStore_AllowsBurstThenBlocks(t *testing.T) {
	s := NewStore(1, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.True(t, s.Allow("u1"))
	assert.True(t, s.Allow("u1"))
	assert.False(t, s.Allow("u1"))
	assert.True(t, s.Allow("u2"), "keys have independent buckets")

	now = now.Add(time.Second)
	assert.True(t, s.Allow("u1"), "bucket refills over time")
}

func TestStore_DropsIdleLimiters(t *testing.T) {
	s := NewStore(1, 1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Allow("u1")
	now = now.Add(2 * time.Minute)
	s.Allow("u2")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.NotContains(t, s.limiters, "u1")
	assert.Contains(t, s.limiters, "u2")
}

func TestMiddleware_PerPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewStore(0.001, 1, time.Minute)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-User"))
		c.Next()
	}, Middleware(store))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"))
}
