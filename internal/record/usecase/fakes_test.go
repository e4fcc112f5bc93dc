package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
	"unibox-backend/internal/errs"
	recorddomain "unibox-backend/internal/record/domain"
	"unibox-backend/internal/record/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func at(hours int) *time.Time {
	t := t0.Add(time.Duration(hours) * time.Hour)
	return &t
}

func eventAt(id string, hours int) *recorddomain.Item {
	return &recorddomain.Item{ExternalID: id, Kind: recorddomain.KindEvent, Subject: id, StartTime: at(hours)}
}

func emailAt(id string, hours int) *recorddomain.Item {
	return &recorddomain.Item{ExternalID: id, Kind: recorddomain.KindEmail, Subject: id, ReceivedAt: at(hours)}
}

func account(id, principal string) *accountdomain.LinkedAccount {
	return &accountdomain.LinkedAccount{
		ID:              id,
		PrincipalUserID: principal,
		ExternalEmail:   id + "@example.com",
		Active:          true,
	}
}

func newMirror(t *testing.T) repository.MirrorRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&recorddomain.SyncedRecord{}))
	return repository.NewMirrorRepository(db)
}

type fakeDirectory struct {
	accounts []*accountdomain.LinkedAccount
	err      error
}

func (d *fakeDirectory) ListLinkedAccounts(_ context.Context, principalUserID string) ([]*accountdomain.LinkedAccount, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []*accountdomain.LinkedAccount
	for _, a := range d.accounts {
		if a.PrincipalUserID == principalUserID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *fakeDirectory) GetLinkedAccount(_ context.Context, principalUserID, accountID string) (*accountdomain.LinkedAccount, error) {
	for _, a := range d.accounts {
		if a.ID == accountID && a.PrincipalUserID == principalUserID && a.Active {
			return a, nil
		}
	}
	return nil, errs.ErrAccountNotFound
}

func (d *fakeDirectory) ListAllActive(_ context.Context) ([]*accountdomain.LinkedAccount, error) {
	var out []*accountdomain.LinkedAccount
	for _, a := range d.accounts {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

// fakeBroker hands out "token-<accountID>" unless an error is configured.
type fakeBroker struct {
	errs map[string]error
}

func (b *fakeBroker) GetValidAccessToken(_ context.Context, accountID string) (string, error) {
	if err := b.errs[accountID]; err != nil {
		return "", err
	}
	return "token-" + accountID, nil
}

func (b *fakeBroker) RefreshToken(ctx context.Context, account *accountdomain.LinkedAccount) (string, error) {
	return b.GetValidAccessToken(ctx, account.ID)
}

// fakeProvider serves items per access token.
type fakeProvider struct {
	mu        sync.Mutex
	kind      recorddomain.Kind
	max       int
	items     map[string][]*recorddomain.Item
	listErr   map[string]error
	getErr    error
	listCalls int
	getCalls  int
	lastQuery recorddomain.ProviderQuery
	// gate, when set, holds List until it is closed or ctx is done.
	gate chan struct{}
}

func newFakeProvider(kind recorddomain.Kind) *fakeProvider {
	return &fakeProvider{
		kind:    kind,
		max:     100,
		items:   map[string][]*recorddomain.Item{},
		listErr: map[string]error{},
	}
}

func (p *fakeProvider) Kind() recorddomain.Kind { return p.kind }

func (p *fakeProvider) MaxResults() int { return p.max }

func (p *fakeProvider) List(ctx context.Context, accessToken string, q recorddomain.ProviderQuery) (*recorddomain.ProviderPage, error) {
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	p.lastQuery = q
	if err := p.listErr[accessToken]; err != nil {
		return nil, err
	}
	all := p.items[accessToken]
	n := min(len(all), q.MaxResults)
	out := make([]*recorddomain.Item, n)
	copy(out, all[:n])
	return &recorddomain.ProviderPage{Items: out, Total: len(all)}, nil
}

func (p *fakeProvider) Get(_ context.Context, accessToken, externalID string) (*recorddomain.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls++
	if p.getErr != nil {
		return nil, p.getErr
	}
	for _, item := range p.items[accessToken] {
		if item.ExternalID == externalID {
			return item, nil
		}
	}
	return nil, errs.ErrNotFound
}

// fakeCalendar adds writes on top of fakeProvider.
type fakeCalendar struct {
	*fakeProvider
	writeErr error
	deleted  []string
}

func (c *fakeCalendar) Insert(_ context.Context, accessToken string, in *recorddomain.ItemInput) (*recorddomain.Item, error) {
	if c.writeErr != nil {
		return nil, c.writeErr
	}
	start, end := in.StartTime, in.EndTime
	item := &recorddomain.Item{
		ExternalID: "created-" + in.Subject,
		Kind:       recorddomain.KindEvent,
		Subject:    in.Subject,
		StartTime:  &start,
		EndTime:    &end,
	}
	c.mu.Lock()
	c.items[accessToken] = append(c.items[accessToken], item)
	c.mu.Unlock()
	return item, nil
}

func (c *fakeCalendar) Update(_ context.Context, _ string, externalID string, in *recorddomain.ItemInput) (*recorddomain.Item, error) {
	if c.writeErr != nil {
		return nil, c.writeErr
	}
	start, end := in.StartTime, in.EndTime
	return &recorddomain.Item{
		ExternalID: externalID,
		Kind:       recorddomain.KindEvent,
		Subject:    in.Subject,
		StartTime:  &start,
		EndTime:    &end,
	}, nil
}

func (c *fakeCalendar) Delete(_ context.Context, _ string, externalID string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.deleted = append(c.deleted, externalID)
	return nil
}

// fakeQuery lets aggregator tests script each branch.
type fakeQuery struct {
	mu      sync.Mutex
	pages   map[string][]*recorddomain.Item
	errs    map[string]error
	block   map[string]bool
	panics  map[string]bool
	queries []recorddomain.Query
}

func (f *fakeQuery) Query(ctx context.Context, accountID string, q recorddomain.Query) (*recorddomain.Page, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.panics[accountID] {
		panic("provider client bug")
	}
	if f.block[accountID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[accountID]; err != nil {
		return nil, err
	}
	items := f.pages[accountID]
	return &recorddomain.Page{Items: items, Total: len(items), Page: q.Page, Limit: q.Limit}, nil
}
