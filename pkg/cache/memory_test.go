package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "event.list:acc-1:abc", []byte("v1"), 50*time.Millisecond))

	got, ok, err := m.Get(ctx, "event.list:acc-1:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	require.Eventually(t, func() bool {
		_, ok, _ := m.Get(ctx, "event.list:acc-1:abc")
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "entry must expire at its deadline")
	assert.Equal(t, 0, m.Len())
}

func TestMemory_HitDoesNotExtendTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v"), 150*time.Millisecond))

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline.Add(-30 * time.Millisecond)) {
		_, _, _ = m.Get(ctx, "k")
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestMemory_NonPositiveTTLIsNoop(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set(context.Background(), "k", []byte("v"), 0))
	assert.Equal(t, 0, m.Len())
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "event.list:acc-1:a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "event.list:acc-1:b", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "event.list:acc-10:a", []byte("3"), time.Minute))
	require.NoError(t, m.Set(ctx, "event.search:acc-1:a", []byte("4"), time.Minute))

	require.NoError(t, m.DeletePrefix(ctx, ScopePrefix("event.list", "acc-1")))

	_, ok, _ := m.Get(ctx, "event.list:acc-1:a")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "event.list:acc-1:b")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "event.list:acc-10:a")
	assert.True(t, ok, "scope separator must keep acc-10 apart from acc-1")
	_, ok, _ = m.Get(ctx, "event.search:acc-1:a")
	assert.True(t, ok)
}

func TestMemory_StartStop(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Stop() // no-op before Start

	m.Start()
	m.Start()
	require.NoError(t, m.Set(ctx, "short", []byte("1"), 20*time.Millisecond))
	require.NoError(t, m.Set(ctx, "long", []byte("2"), time.Hour))

	require.Eventually(t, func() bool { return m.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestKey_DeterministicAndScoped(t *testing.T) {
	type params struct {
		Page  int    `json:"page"`
		Limit int    `json:"limit"`
		Q     string `json:"q"`
	}
	k1 := Key("event.aggregate", "user-1", params{Page: 1, Limit: 20, Q: "standup"})
	k2 := Key("event.aggregate", "user-1", params{Page: 1, Limit: 20, Q: "standup"})
	k3 := Key("event.aggregate", "user-1", params{Page: 2, Limit: 20, Q: "standup"})

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Contains(t, k1, "event.aggregate:user-1:")
}
