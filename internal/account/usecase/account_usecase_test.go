package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	accountdomain "unibox-backend/internal/account/domain"
	"unibox-backend/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLinkAccount_CreatesThenReactivates(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	linker := &fakeLinker{
		token: &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)},
		email: "Work@Example.com",
	}
	inv := &recordingInvalidator{}
	uc := NewAccountUsecase(repo, NewAccountDirectory(repo), linker, nil)
	uc.SetCacheInvalidators(inv)

	acc, err := uc.LinkAccount(ctx, "user-1", "code-1")
	require.NoError(t, err)
	assert.Equal(t, "work@example.com", acc.ExternalEmail)
	assert.True(t, acc.Active)

	require.NoError(t, uc.DisconnectAccount(ctx, "user-1", acc.ID))
	stored, _ := repo.FindByID(ctx, acc.ID)
	assert.False(t, stored.Active)

	linker.token = &oauth2.Token{AccessToken: "a2", Expiry: time.Now().Add(time.Hour)}
	again, err := uc.LinkAccount(ctx, "user-1", "code-2")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, again.ID)
	assert.True(t, again.Active)
	assert.Equal(t, "a2", again.AccessToken)
	assert.Equal(t, "r1", again.RefreshToken, "a missing refresh token in the callback keeps the old one")

	all, _ := uc.ListAccounts(ctx, "user-1")
	assert.Len(t, all, 1)
	assert.Len(t, inv.calls, 3)
}

func TestLinkAccount_Validation(t *testing.T) {
	uc := NewAccountUsecase(newFakeAccountRepo(), nil, &fakeLinker{}, nil)
	_, err := uc.LinkAccount(context.Background(), "user-1", "  ")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestLinkAccount_ExchangeFailure(t *testing.T) {
	uc := NewAccountUsecase(newFakeAccountRepo(), nil, &fakeLinker{err: errors.New("bad code")}, nil)
	_, err := uc.LinkAccount(context.Background(), "user-1", "code")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestDisconnectAccount_ForeignAccount(t *testing.T) {
	repo := newFakeAccountRepo(&accountdomain.LinkedAccount{ID: "acc-1", PrincipalUserID: "owner", Active: true})
	uc := NewAccountUsecase(repo, NewAccountDirectory(repo), &fakeLinker{}, nil)

	err := uc.DisconnectAccount(context.Background(), "intruder", "acc-1")
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)

	stored, _ := repo.FindByID(context.Background(), "acc-1")
	assert.True(t, stored.Active)
}

func TestAccountDirectory_ListsOnlyActive(t *testing.T) {
	repo := newFakeAccountRepo(
		&accountdomain.LinkedAccount{ID: "a", PrincipalUserID: "user-1", Active: true},
		&accountdomain.LinkedAccount{ID: "b", PrincipalUserID: "user-1", Active: false},
		&accountdomain.LinkedAccount{ID: "c", PrincipalUserID: "user-2", Active: true},
	)
	dir := NewAccountDirectory(repo)

	accounts, err := dir.ListLinkedAccounts(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "a", accounts[0].ID)

	_, err = dir.GetLinkedAccount(context.Background(), "user-1", "b")
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
}
