package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates the document/password pair does not match.
	ErrInvalidCredentials = errors.New("document or password invalid")

	// ErrDocumentTaken indicates the document is already registered.
	ErrDocumentTaken = errors.New("document already registered")
)

// User represents a registered wallet owner.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Document     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Registration captures the data required to create a user.
type Registration struct {
	Name     string
	Email    string
	Document string
	Password string
}

// Credentials captures a login attempt.
type Credentials struct {
	Document string
	Password string
}
