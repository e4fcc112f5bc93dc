package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
	recorddomain "unibox-backend/internal/record/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(items []*recorddomain.AggregatedItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ExternalID)
	}
	return out
}

func twoAccounts() *fakeDirectory {
	return &fakeDirectory{accounts: []*accountdomain.LinkedAccount{
		account("a", "user-1"),
		account("b", "user-1"),
	}}
}

func TestAggregate_MergesNewestFirstAndPaginates(t *testing.T) {
	query := &fakeQuery{pages: map[string][]*recorddomain.Item{
		"a": {eventAt("a1", 10), eventAt("a2", 11), eventAt("a3", 12)},
		"b": {eventAt("b1", 1), eventAt("b2", 2)},
	}}
	agg := NewAggregator(twoAccounts(), query, AggregatorConfig{}, nil)

	first, err := agg.Aggregate(context.Background(), "user-1", eventQuery(1, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2", "a1", "b2"}, ids(first.Items))
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasNextPage)
	assert.False(t, first.HasPreviousPage)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, first.AccountsParticipated)
	assert.Equal(t, "a", first.Items[0].SourceAccountID)
	assert.Equal(t, "a@example.com", first.Items[0].SourceAccountLabel)
	assert.Equal(t, "b", first.Items[3].SourceAccountID)

	second, err := agg.Aggregate(context.Background(), "user-1", eventQuery(2, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids(second.Items))
	assert.False(t, second.HasNextPage)
	assert.True(t, second.HasPreviousPage)
}

func TestAggregate_BranchesUsePerAccountCap(t *testing.T) {
	query := &fakeQuery{}
	agg := NewAggregator(twoAccounts(), query, AggregatorConfig{PerAccountCap: 100}, nil)

	_, err := agg.Aggregate(context.Background(), "user-1", eventQuery(3, 7))
	require.NoError(t, err)
	require.Len(t, query.queries, 2)
	for _, q := range query.queries {
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 100, q.Limit)
	}
}

func TestAggregate_IsolatesFailingAccount(t *testing.T) {
	dir := &fakeDirectory{accounts: []*accountdomain.LinkedAccount{
		account("a", "user-1"),
		account("broken", "user-1"),
		account("c", "user-1"),
	}}
	query := &fakeQuery{
		pages: map[string][]*recorddomain.Item{
			"a": {eventAt("a1", 1), eventAt("a2", 2)},
			"c": {eventAt("c1", 3)},
		},
		errs: map[string]error{"broken": errors.New("provider down and mirror empty")},
	}
	agg := NewAggregator(dir, query, AggregatorConfig{}, nil)

	page, err := agg.Aggregate(context.Background(), "user-1", eventQuery(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"c1", "a2", "a1"}, ids(page.Items))
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, page.AccountsParticipated)
}

func TestAggregate_PanickingBranchIsIsolated(t *testing.T) {
	query := &fakeQuery{
		pages:  map[string][]*recorddomain.Item{"a": {eventAt("a1", 1)}},
		panics: map[string]bool{"b": true},
	}
	agg := NewAggregator(twoAccounts(), query, AggregatorConfig{}, nil)

	page, err := agg.Aggregate(context.Background(), "user-1", eventQuery(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids(page.Items))
	assert.Equal(t, []string{"a@example.com"}, page.AccountsParticipated)
}

func TestAggregate_SlowBranchTimesOut(t *testing.T) {
	query := &fakeQuery{
		pages: map[string][]*recorddomain.Item{"a": {eventAt("a1", 1)}},
		block: map[string]bool{"b": true},
	}
	agg := NewAggregator(twoAccounts(), query, AggregatorConfig{BranchTimeout: 50 * time.Millisecond}, nil)

	started := time.Now()
	page, err := agg.Aggregate(context.Background(), "user-1", eventQuery(1, 20))
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)
	assert.Equal(t, []string{"a@example.com"}, page.AccountsParticipated)
}

func TestAggregate_EmptyPrincipal(t *testing.T) {
	query := &fakeQuery{}
	agg := NewAggregator(&fakeDirectory{}, query, AggregatorConfig{}, nil)

	page, err := agg.Aggregate(context.Background(), "nobody", eventQuery(1, 20))
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.TotalPages)
	assert.False(t, page.HasNextPage)
	assert.False(t, page.HasPreviousPage)
	assert.Empty(t, page.AccountsParticipated)
	assert.Empty(t, query.queries)
}

func TestAggregate_AllBranchesFailingIsNotAnError(t *testing.T) {
	query := &fakeQuery{errs: map[string]error{"a": errors.New("x"), "b": errors.New("y")}}
	agg := NewAggregator(twoAccounts(), query, AggregatorConfig{}, nil)

	page, err := agg.Aggregate(context.Background(), "user-1", eventQuery(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.AccountsParticipated)
}

func TestAggregate_TiesKeepAccountOrder(t *testing.T) {
	query := &fakeQuery{pages: map[string][]*recorddomain.Item{
		"a": {eventAt("a-same", 5)},
		"b": {eventAt("b-same", 5)},
	}}
	agg := NewAggregator(twoAccounts(), query, AggregatorConfig{MaxParallel: 1}, nil)

	page, err := agg.Aggregate(context.Background(), "user-1", eventQuery(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"a-same", "b-same"}, ids(page.Items))
}

func TestAggregate_DirectoryFailure(t *testing.T) {
	agg := NewAggregator(&fakeDirectory{err: errors.New("db down")}, &fakeQuery{}, AggregatorConfig{}, nil)

	_, err := agg.Aggregate(context.Background(), "user-1", eventQuery(1, 20))
	assert.Error(t, err)
}

func TestAggregate_CancelledCallerIsAnError(t *testing.T) {
	query := &fakeQuery{block: map[string]bool{"a": true, "b": true}}
	agg := NewAggregator(twoAccounts(), query, AggregatorConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	page, err := agg.Aggregate(ctx, "user-1", eventQuery(1, 20))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, page)
}
