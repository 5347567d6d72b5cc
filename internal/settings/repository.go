package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a setting key does not exist.
var ErrNotFound = errors.New("setting not found")

// Repository defines the interface for settings persistence operations.
type Repository interface {
	EnsureDefaults(ctx context.Context) error
	Get(ctx context.Context, id string) (*Setting, error)
	List(ctx context.Context) ([]Setting, error)
	Set(ctx context.Context, id string, value *string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed settings repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureDefaults seeds the well-known setting keys. Existing rows are
// left untouched, so user-configured values survive restarts.
func (r *SQLiteRepository) EnsureDefaults(ctx context.Context) error {
	const query = `INSERT OR IGNORE INTO settings (id, value, type) VALUES (?, ?, ?)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	for _, s := range Defaults() {
		if _, err := tx.ExecContext(ctx, query, s.ID, nullStr(s.Value), int(s.Type)); err != nil {
			return fmt.Errorf("seeding setting %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}
	return nil
}

// Get returns a single setting by key.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Setting, error) {
	const query = `SELECT id, value, type FROM settings WHERE id = ?`

	var s Setting
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &value, &s.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying setting %s: %w", id, err)
	}
	if value.Valid {
		s.Value = &value.String
	}
	return &s, nil
}

// List returns all settings ordered by key.
func (r *SQLiteRepository) List(ctx context.Context) ([]Setting, error) {
	const query = `SELECT id, value, type FROM settings ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only iteration

	var out []Setting
	for rows.Next() {
		var s Setting
		var value sql.NullString
		if err := rows.Scan(&s.ID, &value, &s.Type); err != nil {
			return nil, fmt.Errorf("scanning setting row: %w", err)
		}
		if value.Valid {
			v := value.String
			s.Value = &v
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	return out, nil
}

// Set updates the value of an existing setting. The key must already
// exist (settings are seeded, never created ad hoc).
func (r *SQLiteRepository) Set(ctx context.Context, id string, value *string) error {
	const query = `UPDATE settings SET value = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, nullStr(value), id)
	if err != nil {
		return fmt.Errorf("updating setting %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of setting %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("setting %s: %w", id, ErrNotFound)
	}
	return nil
}

// nullStr converts a *string to a sql.NullString for the nullable value column.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
