package services

import "errors"

// Sentinel errors the handlers translate into HTTP statuses.
var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrNotOwner           = errors.New("not the owner of this book")
)

// UploadError wraps a blob gateway failure for the primary asset. The
// underlying message is surfaced to the client.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }
