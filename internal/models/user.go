package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the projection of a User that is safe to return to clients.
// The field names stay wire-compatible with the mobile app.
type PublicUser struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

// Public returns the client-facing projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
	}
}
