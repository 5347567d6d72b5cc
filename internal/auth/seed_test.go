package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeedAdmin(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	password, err := SeedAdmin(ctx, repo, discardLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password == "" {
		t.Fatal("SeedAdmin() returned empty password on first boot")
	}

	admin, err := repo.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByUsername(admin) error = %v", err)
	}
	if admin.Permissions != PermAll {
		t.Errorf("admin permissions = %v, want PermAll", admin.Permissions)
	}

	ok, err := VerifyPassword(password, admin.PasswordHash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("seeded password does not verify against stored hash")
	}
}

func TestSeedAdminSkipsWhenUsersExist(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "alice", PermObserve)

	password, err := SeedAdmin(ctx, repo, discardLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password != "" {
		t.Error("SeedAdmin() seeded despite existing users")
	}

	if _, err := repo.GetByUsername(ctx, "admin"); err == nil {
		t.Error("admin account created despite existing users")
	}
}
