package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/printhive/printhive-core/internal/infrastructure/config"
	"github.com/printhive/printhive-core/internal/infrastructure/logging"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"v1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.10", "1.0.9", 1},
		{"1.9.0", "1.10.0", -1},
		{"2.0.0", "1.99.99", 1},
		{"1.2", "1.2.0", -1},
	}

	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCheckerFetch(t *testing.T) {
	t.Run("valid manifest", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck // Test handler
			w.Write([]byte(`{"version":"2.1.0","url":"https://example.com/release"}`))
		}))
		defer srv.Close()

		c := NewChecker(config.Update{Enabled: true, ManifestURL: srv.URL}, "2.0.0", logging.Default())
		manifest, err := c.fetch(context.Background())
		if err != nil {
			t.Fatalf("fetch() error = %v", err)
		}
		if manifest.Version != "2.1.0" {
			t.Errorf("version = %q, want 2.1.0", manifest.Version)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`)) //nolint:errcheck // Test handler
		}))
		defer srv.Close()

		c := NewChecker(config.Update{Enabled: true, ManifestURL: srv.URL}, "2.0.0", logging.Default())
		if _, err := c.fetch(context.Background()); err == nil {
			t.Error("fetch() should fail on missing version")
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewChecker(config.Update{Enabled: true, ManifestURL: srv.URL}, "2.0.0", logging.Default())
		if _, err := c.fetch(context.Background()); err == nil {
			t.Error("fetch() should fail on 500")
		}
	})
}

func TestCheckDisabled(t *testing.T) {
	// Must not panic or attempt network access
	c := NewChecker(config.Update{}, "1.0.0", logging.Default())
	c.Check(context.Background())
}

func TestCheckSurvivesUnreachableHost(t *testing.T) {
	c := NewChecker(config.Update{
		Enabled:     true,
		ManifestURL: "http://127.0.0.1:1/manifest.json",
	}, "1.0.0", logging.Default())
	c.Check(context.Background())
}
