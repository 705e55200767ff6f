package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mberk/pdfshelf-be/internal/models"
)

const testSecret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("user-123", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken("user-123", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("user-123", "other-secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Malformed(t *testing.T) {
	_, err := ValidateToken("not-a-token", testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

type fakeResolver struct {
	user models.User
	err  error
}

func (f *fakeResolver) GetUserByID(ctx context.Context, id string) (models.User, error) {
	if f.err != nil {
		return models.User{}, f.err
	}
	return f.user, nil
}

func protectedProbe(t *testing.T, resolver *fakeResolver, authHeader string) (*httptest.ResponseRecorder, *models.User) {
	t.Helper()

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := CurrentUser(r.Context()); ok {
			seen = &user
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	Middleware(testSecret, resolver)(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddleware_MissingHeader(t *testing.T) {
	rec, seen := protectedProbe(t, &fakeResolver{}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, seen)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Authorization token missing, access denied", body["message"])
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	rec, seen := protectedProbe(t, &fakeResolver{}, "Token abc")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, seen)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	rec, seen := protectedProbe(t, &fakeResolver{}, "Bearer garbage")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, seen)
}

func TestMiddleware_DeletedUser(t *testing.T) {
	// A cryptographically valid token must still be rejected when the user
	// record no longer exists.
	token, err := GenerateToken("gone", testSecret, time.Hour)
	require.NoError(t, err)

	rec, seen := protectedProbe(t, &fakeResolver{err: errors.New("user not found")}, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, seen)
}

func TestMiddleware_AttachesUserWithoutHash(t *testing.T) {
	token, err := GenerateToken("u1", testSecret, time.Hour)
	require.NoError(t, err)

	resolver := &fakeResolver{user: models.User{ID: "u1", Username: "reader", PasswordHash: "secret-hash"}}
	rec, seen := protectedProbe(t, resolver, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, "u1", seen.ID)
	require.Equal(t, "reader", seen.Username)
	require.Empty(t, seen.PasswordHash)
}
