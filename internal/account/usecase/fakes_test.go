package usecase

import (
	"context"
	"sync"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
	"unibox-backend/internal/account/repository"

	"golang.org/x/oauth2"
)

type fakeAccountRepo struct {
	mu           sync.Mutex
	accounts     map[string]*accountdomain.LinkedAccount
	tokenUpdates int
}

var _ repository.LinkedAccountRepository = (*fakeAccountRepo)(nil)

func newFakeAccountRepo(accounts ...*accountdomain.LinkedAccount) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[string]*accountdomain.LinkedAccount)}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeAccountRepo) clone(a *accountdomain.LinkedAccount) *accountdomain.LinkedAccount {
	cp := *a
	return &cp
}

func (r *fakeAccountRepo) Create(_ context.Context, a *accountdomain.LinkedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = "acc-" + a.ExternalEmail
	}
	r.accounts[a.ID] = r.clone(a)
	return nil
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id string) (*accountdomain.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return r.clone(a), nil
}

func (r *fakeAccountRepo) FindByPrincipalAndEmail(_ context.Context, principal, email string) (*accountdomain.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.PrincipalUserID == principal && a.ExternalEmail == email {
			return r.clone(a), nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) FindByPrincipal(_ context.Context, principal string, activeOnly bool) ([]*accountdomain.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*accountdomain.LinkedAccount
	for _, a := range r.accounts {
		if a.PrincipalUserID == principal && (!activeOnly || a.Active) {
			out = append(out, r.clone(a))
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) FindAllActive(_ context.Context) ([]*accountdomain.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*accountdomain.LinkedAccount
	for _, a := range r.accounts {
		if a.Active {
			out = append(out, r.clone(a))
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Update(_ context.Context, a *accountdomain.LinkedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = r.clone(a)
	return nil
}

func (r *fakeAccountRepo) UpdateToken(_ context.Context, id, access, refresh string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.accounts[id]
	a.AccessToken = access
	if refresh != "" {
		a.RefreshToken = refresh
	}
	a.ExpiresAt = exp
	r.tokenUpdates++
	return nil
}

func (r *fakeAccountRepo) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[id].Active = active
	return nil
}

type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	token   *oauth2.Token
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRefresher) Refresh(_ context.Context, _ string) (*oauth2.Token, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.token, f.err
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLinker struct {
	token *oauth2.Token
	email string
	err   error
}

func (f *fakeLinker) AuthCodeURL(state string) string { return "https://accounts.example/auth?state=" + state }

func (f *fakeLinker) Exchange(context.Context, string) (*oauth2.Token, error) {
	return f.token, f.err
}

func (f *fakeLinker) ProfileEmail(context.Context, string) (string, error) {
	return f.email, nil
}

type recordingInvalidator struct {
	calls [][2]string
}

func (r *recordingInvalidator) InvalidateAccount(_ context.Context, principal, account string) error {
	r.calls = append(r.calls, [2]string{principal, account})
	return nil
}
