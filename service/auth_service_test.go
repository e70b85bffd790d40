package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyx-labs/rolodex/core"
)

func registerAlice(t *testing.T, f *fixture) *core.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), core.NewUser{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterCreatesDefaultPersona(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := registerAlice(t, f)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "hunter2", user.Password, "stored password must be hashed")

	cards, err := f.repo.PersonasOfUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "default", cards[0].Persona.Name)
	assert.False(t, cards[0].Persona.Private)
	assert.Equal(t, "No Name", cards[0].Contact.Name)
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	_, err := f.auth.Register(context.Background(), core.NewUser{
		Username: "alice",
		Email:    "other@example.com",
		Password: "different",
	})
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
}

func TestLoginAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := registerAlice(t, f)

	token, loggedIn, err := f.auth.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := f.auth.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	registerAlice(t, f)

	_, _, err := f.auth.Login(context.Background(), "alice", "not-hunter2")
	assert.ErrorIs(t, err, core.ErrWrongPassword)
}

func TestLoginUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.auth.Login(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestVerifyRejectsRevokedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	token, _, err := f.auth.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, f.auth.Blacklist(ctx, token))

	_, err = f.auth.Verify(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	// Revoking again is a harmless duplicate.
	require.NoError(t, f.auth.Blacklist(ctx, token))

	revoked, err := f.auth.IsBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestVerifyRenewalWindowBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	minted, now := freeze()
	f.auth.now = now

	token, err := f.auth.Authorize(ctx, core.Identity{Username: "alice", UserID: 1})
	require.NoError(t, err)
	expiresAt := minted.Add(LoginTokenTTL)

	// One second before the window opens the token still verifies.
	f.auth.now = func() time.Time { return expiresAt.Add(-RenewalWindow - time.Second) }
	_, err = f.auth.Verify(ctx, token)
	assert.NoError(t, err)

	// Exactly RenewalWindow remaining already requires renewal.
	f.auth.now = func() time.Time { return expiresAt.Add(-RenewalWindow) }
	_, err = f.auth.Verify(ctx, token)
	assert.ErrorIs(t, err, core.ErrRenewalRequired)

	// And so does any later moment inside the window.
	f.auth.now = func() time.Time { return expiresAt.Add(-time.Minute) }
	_, err = f.auth.Verify(ctx, token)
	assert.ErrorIs(t, err, core.ErrRenewalRequired)
}

func TestReauthorizeIgnoresRenewalWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	minted, now := freeze()
	f.auth.now = now

	token, err := f.auth.Authorize(ctx, core.Identity{Username: "alice", UserID: 1})
	require.NoError(t, err)

	// Deep inside the renewal window: Verify refuses, Reauthorize trades
	// the old token for a fresh one.
	f.auth.now = func() time.Time { return minted.Add(LoginTokenTTL - time.Minute) }

	_, err = f.auth.Verify(ctx, token)
	require.ErrorIs(t, err, core.ErrRenewalRequired)

	fresh, err := f.auth.Reauthorize(ctx, token)
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)

	claims, err := f.auth.verifyIgnoringRenewal(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestReauthorizeRejectsRevokedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	token, _, err := f.auth.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, f.auth.Blacklist(ctx, token))

	_, err = f.auth.Reauthorize(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestReauthorizeRejectsExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	minted, _ := freeze()
	f.auth.now = func() time.Time { return minted.Add(-LoginTokenTTL - time.Hour) }

	token, err := f.auth.Authorize(ctx, core.Identity{Username: "alice", UserID: 1})
	require.NoError(t, err)

	_, err = f.auth.Reauthorize(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestLogoutRevokesAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registerAlice(t, f)

	token, _, err := f.auth.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, token))

	_, err = f.auth.Verify(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	require.Len(t, f.events.logouts, 1)
	assert.Equal(t, "alice", f.events.logouts[0])
}

func TestVerifyGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, core.ErrMalformedToken)
}
