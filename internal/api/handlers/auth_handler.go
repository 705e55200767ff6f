package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mberk/pdfshelf-be/internal/auth"
	"github.com/mberk/pdfshelf-be/internal/models"
	"github.com/mberk/pdfshelf-be/internal/services"
)

// AuthHandler handles registration, login and account updates.
type AuthHandler struct {
	service   services.UserServiceProvider
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{service: service, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register handles new user registration and returns a token immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		respondMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(payload.Password) < 6 {
		respondMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	if len(payload.Username) < 3 {
		respondMessage(w, http.StatusBadRequest, "Username must be at least 3 characters")
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			respondMessage(w, http.StatusBadRequest, "Email is already in use")
		case errors.Is(err, services.ErrUsernameTaken):
			respondMessage(w, http.StatusBadRequest, "Username is already in use")
		default:
			log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
			respondMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	token, err := auth.GenerateToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		respondMessage(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user.Public()})
}

// Login handles user authentication and token generation. Unknown email and
// wrong password produce byte-identical responses.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Email == "" || payload.Password == "" {
		respondMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondMessage(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Login query failed")
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := auth.GenerateToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		respondMessage(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user.Public()})
}

// UpdatePassword changes the authenticated user's password after
// re-verifying the current one.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.CurrentPassword == "" || payload.NewPassword == "" {
		respondMessage(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if len(payload.NewPassword) < 6 {
		respondMessage(w, http.StatusBadRequest, "New password must be at least 6 characters")
		return
	}

	err := h.service.UpdatePassword(r.Context(), user.ID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			respondMessage(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrInvalidCredentials):
			respondMessage(w, http.StatusBadRequest, "Current password is incorrect")
		default:
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update password")
			respondMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	respondMessage(w, http.StatusOK, "Password updated successfully")
}

// UpdateUsername renames the authenticated user.
func (h *AuthHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var payload struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if payload.Username == "" {
		respondMessage(w, http.StatusBadRequest, "Username is required")
		return
	}
	if len(payload.Username) < 3 {
		respondMessage(w, http.StatusBadRequest, "Username must be at least 3 characters")
		return
	}

	updated, err := h.service.UpdateUsername(r.Context(), user.ID, payload.Username)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			respondMessage(w, http.StatusBadRequest, "This username is already in use")
		case errors.Is(err, services.ErrUserNotFound):
			respondMessage(w, http.StatusNotFound, "User not found")
		default:
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update username")
			respondMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Username updated successfully",
		"user":    updated.Public(),
	})
}
