package auth

import (
	"errors"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// User represents an authenticated account. The username is the primary
// key; there is no separate numeric ID.
type User struct {
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // never serialised
	Permissions  Permission `json:"permissions"`
}

// Token represents a stored API token. Expire is nil for tokens that
// never expire (not issued by this implementation, but tolerated in the
// database for compatibility).
type Token struct {
	Token    string     `json:"-"` // never serialised
	Username string     `json:"username"`
	Expire   *time.Time `json:"expire,omitempty"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *Token) Expired(now time.Time) bool {
	return t.Expire != nil && t.Expire.Before(now)
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
)
