package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mberk/pdfshelf-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	Register(ctx context.Context, username, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error
	UpdateUsername(ctx context.Context, id, username string) (models.User, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	db            *sql.DB
	events        EventServiceProvider
	avatarBaseURL string
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider, avatarBaseURL string) *UserService {
	return &UserService{db: db, events: events, avatarBaseURL: avatarBaseURL}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *UserService) getUser(ctx context.Context, column, value string) (models.User, error) {
	var (
		user    models.User
		created int64
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, profile_image, created_at FROM users WHERE "+column+" = ?", value)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.ProfileImage, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = fromNanos(created)
	return user, nil
}

// Register creates a new user with a hashed password and a profile image
// derived from the username. Email uniqueness is checked before username, so
// a request colliding on both reports the email conflict.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	if taken, err := s.exists(ctx, "email", email); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, ErrEmailTaken
	}
	if taken, err := s.exists(ctx, "username", username); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		ProfileImage: s.avatarURL(username),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users(id, username, email, password_hash, profile_image, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.ProfileImage, toNanos(user.CreatedAt))
	if err != nil {
		return models.User{}, err
	}

	s.record("user.register", fmt.Sprintf("User %s registered", user.Username), user.ID)

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown email and wrong
// password are deliberately indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if err == ErrUserNotFound {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// UpdatePassword verifies the current password, then hashes and stores the
// new one. Outstanding tokens stay valid.
func (s *UserService) UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	var currentHash string
	row := s.db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", id)
	if err := row.Scan(&currentHash); err != nil {
		if err == sql.ErrNoRows {
			return ErrUserNotFound
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), id)
	return err
}

// UpdateUsername renames a user after re-checking global uniqueness,
// excluding the caller's own record so renaming to the current name is an
// accepted no-op. The profile image is not re-derived.
func (s *UserService) UpdateUsername(ctx context.Context, id, username string) (models.User, error) {
	var taken int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE username = ? AND id != ?", username, id)
	if err := row.Scan(&taken); err != nil {
		return models.User{}, err
	}
	if taken > 0 {
		return models.User{}, ErrUsernameTaken
	}

	res, err := s.db.ExecContext(ctx, "UPDATE users SET username = ? WHERE id = ?", username, id)
	if err != nil {
		return models.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.User{}, ErrUserNotFound
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) exists(ctx context.Context, column, value string) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE "+column+" = ?", value)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *UserService) avatarURL(username string) string {
	return s.avatarBaseURL + "?seed=" + url.QueryEscape(username)
}

func (s *UserService) record(eventType, message, actorID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(context.Background(), eventType, "info", message, &actorID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
