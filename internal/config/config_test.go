package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
app:
  name: yogadesk
  port: 8080
backend:
  base_url: http://localhost:5000
database:
  filename: data/console.db
`

func writeConfig(t *testing.T, yamlText, envText string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if envText != "" {
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envText), 0o644); err != nil {
			t.Fatalf("write env: %v", err)
		}
	}
	return path
}

func TestLoadAppliesDefaultsAndSecrets(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$hash")
	t.Setenv("APP_SECRET_KEY", "")
	t.Setenv("BACKEND_BASE_URL", "")

	cfg, err := Load(writeConfig(t, minimalYAML, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Environment != "development" || !cfg.IsDevelopment() {
		t.Fatalf("environment = %q", cfg.App.Environment)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Fatalf("backend timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Overview.RefreshInterval != 30*time.Second {
		t.Fatalf("refresh interval = %v", cfg.Overview.RefreshInterval)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Dashboards.StatusPolicy != "permissive" {
		t.Fatalf("driver=%q policy=%q", cfg.Database.Driver, cfg.Dashboards.StatusPolicy)
	}
	if cfg.Auth.AdminUsername != "admin" || cfg.Auth.LoginMaxAttempts != 5 {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if cfg.Auth.AdminPasswordHash != "$2a$10$hash" {
		t.Fatalf("password hash not read from env")
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	// godotenv does not override variables that are already set.
	os.Unsetenv("ADMIN_PASSWORD_HASH")
	os.Unsetenv("SES_ACCESS_KEY_ID")
	t.Cleanup(func() {
		os.Unsetenv("ADMIN_PASSWORD_HASH")
		os.Unsetenv("SES_ACCESS_KEY_ID")
	})

	cfg, err := Load(writeConfig(t, minimalYAML, "ADMIN_PASSWORD_HASH=from-dotenv\nSES_ACCESS_KEY_ID=AKIA1\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.AdminPasswordHash != "from-dotenv" || cfg.Email.AccessKeyID != "AKIA1" {
		t.Fatalf("env values = %q, %q", cfg.Auth.AdminPasswordHash, cfg.Email.AccessKeyID)
	}
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
overview:
  refresh_interval: 45s
auth:
  session_ttl: 2h
dashboards:
  status_policy: strict
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Overview.RefreshInterval != 45*time.Second || cfg.Auth.SessionTTL != 2*time.Hour {
		t.Fatalf("durations = %v, %v", cfg.Overview.RefreshInterval, cfg.Auth.SessionTTL)
	}
	if cfg.Dashboards.StatusPolicy != "strict" {
		t.Fatalf("policy = %q", cfg.Dashboards.StatusPolicy)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: "app name"},
		{name: "missing port", mutate: func(c *Config) { c.App.Port = 0 }, wantErr: "app port"},
		{name: "missing backend", mutate: func(c *Config) { c.Backend.BaseURL = "" }, wantErr: "backend base_url is required"},
		{name: "bad backend", mutate: func(c *Config) { c.Backend.BaseURL = "ftp://x" }, wantErr: "http(s)"},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: "unsupported database driver"},
		{name: "bad policy", mutate: func(c *Config) { c.Dashboards.StatusPolicy = "loose" }, wantErr: "unknown status policy"},
		{name: "bad timezone", mutate: func(c *Config) { c.Dashboards.Timezone = "Mars/Base" }, wantErr: "timezone"},
		{name: "missing hash", mutate: func(c *Config) { c.Auth.AdminPasswordHash = "" }, wantErr: "ADMIN_PASSWORD_HASH"},
		{name: "production secret", mutate: func(c *Config) { c.App.Environment = "production" }, wantErr: "APP_SECRET_KEY"},
		{name: "email sender", mutate: func(c *Config) { c.Email.NotifyStatus = true; c.Email.Region = "us-east-1" }, wantErr: "sender"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Parse([]byte(minimalYAML))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			cfg.Auth.AdminPasswordHash = "hash"
			test.mutate(cfg)
			err = cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, test.wantErr)
			}
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{}
	cfg.Dashboards.Timezone = "Nowhere/Town"
	if cfg.Location() != time.UTC {
		t.Fatalf("location = %v", cfg.Location())
	}
}
