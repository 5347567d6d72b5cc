package settings

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the settings table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE settings (
			id TEXT NOT NULL PRIMARY KEY,
			value TEXT,
			type INTEGER NOT NULL
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

func TestEnsureDefaults(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != len(Defaults()) {
		t.Errorf("seeded %d settings, want %d", len(all), len(Defaults()))
	}
}

func TestEnsureDefaultsIdempotent(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.EnsureDefaults(ctx); err != nil {
		t.Fatalf("first EnsureDefaults() error = %v", err)
	}

	// User changes a value between boots
	baud := "115200"
	if err := repo.Set(ctx, KeyDeviceBaud, &baud); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Re-seeding must not clobber it
	if err := repo.EnsureDefaults(ctx); err != nil {
		t.Fatalf("second EnsureDefaults() error = %v", err)
	}

	s, err := repo.Get(ctx, KeyDeviceBaud)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.Value == nil || *s.Value != baud {
		t.Errorf("value after reseed = %v, want %q", s.Value, baud)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != len(Defaults()) {
		t.Errorf("settings count after reseed = %d, want %d", len(all), len(Defaults()))
	}
}

func TestGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}

	t.Run("seeded key with value", func(t *testing.T) {
		s, err := repo.Get(ctx, KeyClientTerminalAmount)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if s.Type != TypeNumber {
			t.Errorf("type = %v, want %v", s.Type, TypeNumber)
		}
		if s.Value == nil || *s.Value != "500" {
			t.Errorf("value = %v, want 500", s.Value)
		}
	})

	t.Run("seeded key without value", func(t *testing.T) {
		s, err := repo.Get(ctx, KeyDevicePath)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if s.Value != nil {
			t.Errorf("value = %v, want nil", *s.Value)
		}
		if s.Type != TypeString {
			t.Errorf("type = %v, want %v", s.Type, TypeString)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := repo.Get(ctx, "S_doesNotExist")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.EnsureDefaults(ctx); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}

	t.Run("updates existing key", func(t *testing.T) {
		path := "/dev/ttyUSB0"
		if err := repo.Set(ctx, KeyDevicePath, &path); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		s, err := repo.Get(ctx, KeyDevicePath)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if s.Value == nil || *s.Value != path {
			t.Errorf("value = %v, want %q", s.Value, path)
		}
	})

	t.Run("clears value with nil", func(t *testing.T) {
		if err := repo.Set(ctx, KeyDevicePath, nil); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		s, err := repo.Get(ctx, KeyDevicePath)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if s.Value != nil {
			t.Errorf("value = %v, want nil", *s.Value)
		}
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		v := "x"
		err := repo.Set(ctx, "S_doesNotExist", &v)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Set() error = %v, want ErrNotFound", err)
		}
	})
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{TypeString, "string"},
		{TypeBool, "bool"},
		{TypeNumber, "number"},
		{TypeFloat, "float"},
		{Type(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type(%d).String() = %q, want %q", int(tt.typ), got, tt.want)
		}
	}
}

func TestDefaultsKeyPrefixesMatchTypes(t *testing.T) {
	prefixType := map[byte]Type{
		'S': TypeString,
		'B': TypeBool,
		'N': TypeNumber,
		'F': TypeFloat,
	}
	for _, s := range Defaults() {
		want, ok := prefixType[s.ID[0]]
		if !ok {
			t.Errorf("setting %s has unknown prefix", s.ID)
			continue
		}
		if s.Type != want {
			t.Errorf("setting %s has type %v, want %v", s.ID, s.Type, want)
		}
	}
}
