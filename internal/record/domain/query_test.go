package domain

import (
	"testing"
	"time"

	"unibox-backend/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryNormalize_Defaults(t *testing.T) {
	q, err := Query{TimeMin: time.Now()}.Normalize(KindEvent)
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, time.UTC, q.TimeMin.Location())
}

func TestQueryNormalize_Validation(t *testing.T) {
	now := time.Now()
	before := now.Add(-time.Hour)
	cases := map[string]Query{
		"negative page":     {TimeMin: now, Page: -1},
		"limit too large":   {TimeMin: now, Limit: MaxLimit + 1},
		"missing timeMin":   {},
		"inverted interval": {TimeMin: now, TimeMax: &before},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := q.Normalize(KindEvent)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestQueryNormalize_EmailWithoutTimeMin(t *testing.T) {
	_, err := Query{Search: "  invoice "}.Normalize(KindEmail)
	require.NoError(t, err)
}

func TestPageMeta(t *testing.T) {
	pages, next, prev := PageMeta(5, 1, 4)
	assert.Equal(t, 2, pages)
	assert.True(t, next)
	assert.False(t, prev)

	pages, next, prev = PageMeta(5, 2, 4)
	assert.Equal(t, 2, pages)
	assert.False(t, next)
	assert.True(t, prev)

	pages, next, prev = PageMeta(0, 1, 20)
	assert.Equal(t, 0, pages)
	assert.False(t, next)
	assert.False(t, prev)
}

func TestSliceBounds(t *testing.T) {
	s, e := SliceBounds(5, 4, 4)
	assert.Equal(t, 4, s)
	assert.Equal(t, 5, e)

	s, e = SliceBounds(5, 8, 4)
	assert.Equal(t, 5, s)
	assert.Equal(t, 5, e)
}

func TestItemTimestamp(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	recv := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, start, (&Item{StartTime: &start, ReceivedAt: &recv}).Timestamp())
	assert.Equal(t, recv, (&Item{ReceivedAt: &recv}).Timestamp())
	assert.True(t, (&Item{}).Timestamp().IsZero())
}
