package auth

import (
	"context"
	"errors"
	"testing"
)

func TestUserRepositoryCreate(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("creates user", func(t *testing.T) {
		u := &User{Username: "alice", PasswordHash: "hash", Permissions: PermObserve}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := repo.GetByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("GetByUsername() error = %v", err)
		}
		if got.PasswordHash != "hash" || got.Permissions != PermObserve {
			t.Errorf("got %+v, want hash/observe", got)
		}
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		u := &User{Username: "alice", PasswordHash: "other"}
		if err := repo.Create(ctx, u); !errors.Is(err, ErrUsernameExists) {
			t.Errorf("Create() error = %v, want ErrUsernameExists", err)
		}
	})
}

func TestUserRepositoryGetByUsername(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)

	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepositoryList(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("List() on empty table = %d users, want 0", len(users))
	}

	createTestUser(t, db, "bob", PermObserve)
	createTestUser(t, db, "alice", PermAll)

	users, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("List() = %d users, want 2", len(users))
	}
	// Ordered by username
	if users[0].Username != "alice" || users[1].Username != "bob" {
		t.Errorf("List() order = [%s, %s], want [alice, bob]", users[0].Username, users[1].Username)
	}
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "alice", PermObserve)

	if err := repo.UpdatePassword(ctx, "alice", "newhash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.PasswordHash != "newhash" {
		t.Errorf("password hash = %q, want newhash", got.PasswordHash)
	}

	if err := repo.UpdatePassword(ctx, "ghost", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePassword() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepositoryUpdatePermissions(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "alice", PermObserve)

	if err := repo.UpdatePermissions(ctx, "alice", PermAll); err != nil {
		t.Fatalf("UpdatePermissions() error = %v", err)
	}
	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.Permissions != PermAll {
		t.Errorf("permissions = %v, want PermAll", got.Permissions)
	}

	if err := repo.UpdatePermissions(ctx, "ghost", PermAll); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePermissions() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepositoryDelete(t *testing.T) {
	db := setupAuthDB(t)
	userRepo := NewUserRepository(db)
	tokenRepo := NewTokenRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "alice", PermObserve)
	tok := NewAPIToken("alice", testTokenTTL)
	if err := tokenRepo.Create(ctx, tok); err != nil {
		t.Fatalf("creating token: %v", err)
	}

	if err := userRepo.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := userRepo.GetByUsername(ctx, "alice"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername() after delete error = %v, want ErrUserNotFound", err)
	}

	// Tokens cascade with the user
	if _, err := tokenRepo.Get(ctx, tok.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Get() after user delete error = %v, want ErrTokenInvalid", err)
	}

	if err := userRepo.Delete(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepositoryCount(t *testing.T) {
	db := setupAuthDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	createTestUser(t, db, "alice", 0)
	createTestUser(t, db, "bob", 0)

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}
