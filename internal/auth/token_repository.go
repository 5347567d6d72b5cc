package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TokenRepository defines the interface for API token persistence.
type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	Get(ctx context.Context, raw string) (*Token, error)
	Delete(ctx context.Context, raw string) error
	DeleteAllForUser(ctx context.Context, username string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new SQLite-backed token repository.
func NewTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// Create inserts a new token row.
func (r *SQLiteTokenRepository) Create(ctx context.Context, token *Token) error {
	var expire any
	if token.Expire != nil {
		expire = token.Expire.UTC().Format(time.RFC3339)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (token, username, expire) VALUES (?, ?, ?)`,
		token.Token, token.Username, expire,
	)
	if err != nil {
		return fmt.Errorf("creating token: %w", err)
	}
	return nil
}

// Get retrieves a token by its raw value. Expired tokens are returned
// with ErrTokenExpired so callers can distinguish stale from unknown.
func (r *SQLiteTokenRepository) Get(ctx context.Context, raw string) (*Token, error) {
	var t Token
	var expire sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT token, username, expire FROM tokens WHERE token = ?`, raw,
	).Scan(&t.Token, &t.Username, &expire)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	if expire.Valid {
		exp, err := time.Parse(time.RFC3339, expire.String)
		if err != nil {
			return nil, fmt.Errorf("parsing token expiry: %w", err)
		}
		t.Expire = &exp
	}

	if t.Expired(time.Now()) {
		return &t, ErrTokenExpired
	}
	return &t, nil
}

// Delete removes a single token (logout).
func (r *SQLiteTokenRepository) Delete(ctx context.Context, raw string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE token = ?`, raw)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// DeleteAllForUser removes every token belonging to a user.
func (r *SQLiteTokenRepository) DeleteAllForUser(ctx context.Context, username string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE username = ?`, username)
	if err != nil {
		return 0, fmt.Errorf("deleting user tokens: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows, nil
}

// DeleteExpired removes all tokens past their expiry. Run at boot as
// startup hygiene.
func (r *SQLiteTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expire IS NOT NULL AND expire < ?`,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows, nil
}
