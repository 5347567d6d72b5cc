package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a temp config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/printhive-test.db
api:
  port: 9090
security:
  jwt:
    secret: "`+validSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/printhive-test.db" {
		t.Errorf("Database.Path = %q, want the file value", cfg.Database.Path)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	// Untouched sections keep their defaults.
	if cfg.Bus.OverflowPolicy != "block" {
		t.Errorf("Bus.OverflowPolicy = %q, want default block", cfg.Bus.OverflowPolicy)
	}
	if cfg.Router.ViolationPolicy != "drop" {
		t.Errorf("Router.ViolationPolicy = %q, want default drop", cfg.Router.ViolationPolicy)
	}
	if cfg.WS.Path != "/ws" {
		t.Errorf("WS.Path = %q, want default /ws", cfg.WS.Path)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/from-file.db
security:
  jwt:
    secret: "`+validSecret+`"
`)

	t.Setenv("PRINTHIVE_DATABASE_PATH", "/tmp/from-env.db")
	t.Setenv("PRINTHIVE_API_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port = %d, want env override 7070", cfg.API.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config passes",
			mutate:  func(_ *Config) {},
			wantErr: "",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: "security.jwt.secret is required",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "bad overflow policy",
			mutate:  func(c *Config) { c.Bus.OverflowPolicy = "explode" },
			wantErr: "bus.overflow_policy",
		},
		{
			name:    "bad violation policy",
			mutate:  func(c *Config) { c.Router.ViolationPolicy = "panic" },
			wantErr: "router.violation_policy",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWT.Secret = validSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
