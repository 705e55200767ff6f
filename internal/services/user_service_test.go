package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const avatarBase = "https://avatars.test/svg"

func TestRegister_Success(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	user, err := s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "reader", user.Username)
	require.Equal(t, "reader@example.com", user.Email)
	require.Equal(t, avatarBase+"?seed=reader", user.ProfileImage)
	require.Empty(t, user.PasswordHash, "hash must never leave the service")

	require.Equal(t, 1, countRows(t, db, "users"))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	_, err := s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.NoError(t, err)

	// Username novelty does not matter; the email collision wins.
	_, err = s.Register(context.Background(), "brand-new-name", "reader@example.com", "secret1")
	require.ErrorIs(t, err, ErrEmailTaken)
	require.Equal(t, 1, countRows(t, db, "users"))
}

func TestRegister_DuplicateBothReportsEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	_, err := s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.NoError(t, err)

	// Email is checked first, so colliding on both fields reports the email.
	_, err = s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	_, err := s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "reader", "other@example.com", "secret1")
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.Equal(t, 1, countRows(t, db, "users"))
}

func TestAuthenticate_IndistinguishableFailures(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	_, err := s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := s.Authenticate(context.Background(), "reader@example.com", "wrong")
	_, unknownEmail := s.Authenticate(context.Background(), "nobody@example.com", "secret1")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	require.Equal(t, wrongPassword, unknownEmail)
}

func TestAuthenticate_Success(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	registered, err := s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.NoError(t, err)

	user, err := s.Authenticate(context.Background(), "reader@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.Empty(t, user.PasswordHash)
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	user, err := s.Register(context.Background(), "reader", "reader@example.com", "secret1")
	require.NoError(t, err)

	err = s.UpdatePassword(context.Background(), user.ID, "nope", "newsecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	err = s.UpdatePassword(context.Background(), user.ID, "secret1", "newsecret")
	require.NoError(t, err)

	_, err = s.Authenticate(context.Background(), "reader@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(context.Background(), "reader@example.com", "newsecret")
	require.NoError(t, err)
}

func TestUpdatePassword_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	err := s.UpdatePassword(context.Background(), "missing", "a", "bbbbbb")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUsername(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	insertUser(t, db, "taken", "taken@example.com")
	id := insertUser(t, db, "reader", "reader@example.com")

	_, err := s.UpdateUsername(context.Background(), id, "taken")
	require.ErrorIs(t, err, ErrUsernameTaken)

	updated, err := s.UpdateUsername(context.Background(), id, "bookworm")
	require.NoError(t, err)
	require.Equal(t, "bookworm", updated.Username)
	// The avatar is not re-derived on rename.
	require.Equal(t, avatarBase+"?seed=reader", updated.ProfileImage)
}

func TestUpdateUsername_OwnNameIsNoOp(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	id := insertUser(t, db, "reader", "reader@example.com")

	updated, err := s.UpdateUsername(context.Background(), id, "reader")
	require.NoError(t, err)
	require.Equal(t, "reader", updated.Username)
	require.Equal(t, 1, countRows(t, db, "users"))
}

func TestUpdateUsername_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	_, err := s.UpdateUsername(context.Background(), "missing", "whoever")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByID_Unknown(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db, nil, avatarBase)

	_, err := s.GetUserByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
