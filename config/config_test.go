package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_FullConfig(t *testing.T) {
	yaml := `
address: https://logs.example.com
token: tok-123
repository: web
timeout: 10s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Address != "https://logs.example.com" {
		t.Errorf("Address = %q, want %q", cfg.Address, "https://logs.example.com")
	}
	if cfg.Token != "tok-123" {
		t.Errorf("Token = %q, want %q", cfg.Token, "tok-123")
	}
	if cfg.Repository != "web" {
		t.Errorf("Repository = %q, want %q", cfg.Repository, "web")
	}
	if cfg.Timeout.Duration() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout.Duration())
	}
}

func TestParse_EmptyConfig(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// every field can come from flags or the environment instead
	if cfg.Address != "" || cfg.Token != "" || cfg.Repository != "" {
		t.Errorf("expected empty fields, got %+v", cfg)
	}
	if cfg.Timeout.Duration() != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", cfg.Timeout.Duration())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("address: [unclosed"))
	if err == nil {
		t.Error("Parse() expected error for invalid YAML, got nil")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("timeout: fast"))
	if err == nil {
		t.Error("Parse() expected error for invalid duration, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("Parse() error = %v, want error containing 'invalid duration'", err)
	}
}

func TestParse_TimeoutTooSmall(t *testing.T) {
	_, err := Parse([]byte("timeout: 200ms"))
	if err == nil {
		t.Error("Parse() expected error for sub-second timeout, got nil")
	}
}

func TestParse_InvalidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{"no scheme", "logs.example.com"},
		{"unsupported scheme", "ftp://logs.example.com"},
		{"missing host", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte("address: " + tt.address))
			if err == nil {
				t.Errorf("Parse() expected error for address %q, got nil", tt.address)
			}
		})
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_LOGLENS_TOKEN", "secret-from-env")
	t.Setenv("TEST_LOGLENS_HOST", "logs.internal.example.com")

	yaml := `
address: https://${TEST_LOGLENS_HOST}
token: ${TEST_LOGLENS_TOKEN}
repository: ${TEST_LOGLENS_REPO:-sandbox}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Address != "https://logs.internal.example.com" {
		t.Errorf("Address = %q, want expanded host", cfg.Address)
	}
	if cfg.Token != "secret-from-env" {
		t.Errorf("Token = %q, want %q", cfg.Token, "secret-from-env")
	}
	if cfg.Repository != "sandbox" {
		t.Errorf("Repository = %q, want default %q", cfg.Repository, "sandbox")
	}
}

func TestParse_EnvExpansion_EmptyDefault(t *testing.T) {
	cfg, err := Parse([]byte("token: ${TEST_LOGLENS_UNSET_VAR:-}"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Token != "" {
		t.Errorf("Token = %q, want empty string", cfg.Token)
	}
}

func TestParse_EnvExpansion_MissingVar(t *testing.T) {
	_, err := Parse([]byte("token: ${TEST_LOGLENS_DEFINITELY_UNSET}"))
	if err == nil {
		t.Error("Parse() expected error for unset variable without default, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "TEST_LOGLENS_DEFINITELY_UNSET") {
		t.Errorf("Parse() error = %v, want the variable name in the message", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loglens.yaml")
	content := `
address: http://localhost:8080
token: local-token
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address != "http://localhost:8080" {
		t.Errorf("Address = %q, want %q", cfg.Address, "http://localhost:8080")
	}
	if cfg.Token != "local-token" {
		t.Errorf("Token = %q, want %q", cfg.Token, "local-token")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}
