package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/mberk/pdfshelf-be/internal/models"
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type contextKey string

const userContextKey = contextKey("currentUser")

// ErrInvalidToken is returned for malformed, mis-signed or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken creates a signed bearer token embedding the user's ID,
// valid for ttl from now.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token string, returning its claims.
func ValidateToken(tokenStr, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserResolver loads the user record a verified token points at. Tokens for
// users that no longer exist must be rejected, so the middleware re-checks
// existence on every request instead of trusting the signature alone.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// Middleware creates a middleware protecting routes with bearer-token auth.
// On success the resolved user (password hash cleared) is attached to the
// request context for downstream handlers.
func Middleware(secret string, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				unauthorized(w, "Authorization token missing, access denied")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == "" {
				unauthorized(w, "Authorization token missing, access denied")
				return
			}

			claims, err := ValidateToken(tokenStr, secret)
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Token resolved to unknown user")
				unauthorized(w, "Invalid token")
				return
			}
			user.PasswordHash = ""

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user attached by Middleware.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// WithUser returns a context carrying the given user, as Middleware would
// produce. Intended for handler tests.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
