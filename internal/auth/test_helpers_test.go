package auth

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupAuthDB creates an in-memory SQLite database with the users and
// tokens tables matching the production migration.
func setupAuthDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			username    TEXT NOT NULL PRIMARY KEY,
			password    TEXT NOT NULL,
			permissions INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE tokens (
			token    TEXT NOT NULL PRIMARY KEY,
			username TEXT NOT NULL REFERENCES users(username) ON UPDATE CASCADE ON DELETE CASCADE,
			expire   DATETIME
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	return db
}

// createTestUser inserts a user directly and returns it.
func createTestUser(t *testing.T, db *sql.DB, username string, perms Permission) *User {
	t.Helper()

	u := &User{
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Permissions:  perms,
	}
	repo := NewUserRepository(db)
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return u
}
