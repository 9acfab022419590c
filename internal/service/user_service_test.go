package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/issuetracker/internal/model"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestUserDetailsAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.signup(t, "a@x.com")
	second := f.signup(t, "b@x.com")

	details, err := f.users.Details(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", details.Email)

	_, err = f.users.Details(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	list, err := f.users.List(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, item := range list {
		ids = append(ids, item.UserID)
	}
	require.ElementsMatch(t, []string{first, second}, ids)
}

func TestUserEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com")
	other := f.signup(t, "b@x.com")
	actor := Actor{UserID: userID, Name: "Ada Lovelace"}

	res, err := f.users.Edit(ctx, actor, userID, model.UserProfileUpdate{Country: strPtr(" UK ")})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.N)
	require.Equal(t, int64(1), *res.NModified)
	require.Equal(t, 1, res.OK)

	details, err := f.users.Details(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "UK", details.Country)

	_, err = f.users.Edit(ctx, actor, other, model.UserProfileUpdate{Country: strPtr("FR")})
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = f.users.Edit(ctx, actor, userID, model.UserProfileUpdate{})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = f.users.Edit(ctx, actor, userID, model.UserProfileUpdate{FirstName: strPtr("  ")})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestUserDeleteHidesAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.signup(t, "a@x.com")
	other := f.signup(t, "b@x.com")
	actor := Actor{UserID: userID}

	_, err := f.users.Delete(ctx, actor, other)
	require.ErrorIs(t, err, appErr.ErrForbidden)

	res, err := f.users.Delete(ctx, actor, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.N)
	require.Nil(t, res.NModified)

	_, err = f.users.Details(ctx, userID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = f.auth.Login(ctx, "a@x.com", "correct-horse")
	require.ErrorIs(t, err, appErr.ErrAuthFailed)
	_, err = f.users.Delete(ctx, actor, userID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = f.auth.Signup(ctx, SignupInput{FirstName: "A", Email: "a@x.com", Password: "correct-horse"})
	require.ErrorIs(t, err, appErr.ErrConflict)
}
