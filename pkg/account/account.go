// Package account holds the user record shared by auth, moderation and leaderboards.
package account

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidUsername = errors.New("username is required")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// Report is a user's complaint about a piece of content.
type Report struct {
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}

// User is a registered account. PasswordHash never leaves the server; use Public.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Reputation   int       `json:"reputation"`
	Reports      []Report  `json:"reports"`
}

// New validates registration fields and creates a user with the given hash.
func New(email, username, passwordHash string) (*User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		Reports:      []Report{},
	}, nil
}

// NormalizeEmail parses and lower-cases an address.
func NormalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// Public returns a copy safe to send to clients.
func (u *User) Public() *User {
	cp := *u
	cp.PasswordHash = ""
	cp.Reports = append([]Report{}, u.Reports...)
	return &cp
}
