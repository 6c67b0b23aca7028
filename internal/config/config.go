// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codr1/yogadesk/internal/models"
)

const (
	defaultEnvironment      = "development"
	defaultBackendTimeout   = 15 * time.Second
	defaultSessionTTL       = 12 * time.Hour
	defaultLoginMaxAttempts = 5
	defaultLoginWindow      = 15 * time.Minute
	defaultLoginLockout     = 15 * time.Minute
	defaultRefreshInterval  = 30 * time.Second
	defaultShutdownTimeout  = 30 * time.Second
	defaultAdminUsername    = "admin"
	defaultTimezone         = "Asia/Kolkata"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	AdminUsername     string        `yaml:"admin_username"`
	AdminPasswordHash string        `yaml:"-"` // Loaded from environment
	SessionTTL        time.Duration `yaml:"session_ttl"`
	LoginMaxAttempts  int           `yaml:"login_max_attempts"`
	LoginWindow       time.Duration `yaml:"login_window"`
	LoginLockout      time.Duration `yaml:"login_lockout"`
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	NotifyStatus    bool   `yaml:"notify_status"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		BaseURL         string        `yaml:"base_url"`
		StaticDir       string        `yaml:"static_dir"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SecretKey       string        `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`

	Overview struct {
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"overview"`

	Dashboards struct {
		StatusPolicy string `yaml:"status_policy"`
		// Timezone is the studio's zone for today/past/upcoming windows.
		Timezone string `yaml:"timezone"`
	} `yaml:"dashboards"`

	Email EmailConfig `yaml:"email"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Auth.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")
	if base := os.Getenv("BACKEND_BASE_URL"); base != "" {
		cfg.Backend.BaseURL = base
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = defaultEnvironment
	}
	if c.App.ShutdownTimeout <= 0 {
		c.App.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = defaultBackendTimeout
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = defaultAdminUsername
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = defaultSessionTTL
	}
	if c.Auth.LoginMaxAttempts <= 0 {
		c.Auth.LoginMaxAttempts = defaultLoginMaxAttempts
	}
	if c.Auth.LoginWindow <= 0 {
		c.Auth.LoginWindow = defaultLoginWindow
	}
	if c.Auth.LoginLockout <= 0 {
		c.Auth.LoginLockout = defaultLoginLockout
	}
	if c.Overview.RefreshInterval <= 0 {
		c.Overview.RefreshInterval = defaultRefreshInterval
	}
	if c.Dashboards.StatusPolicy == "" {
		c.Dashboards.StatusPolicy = models.PolicyPermissive
	}
	if c.Dashboards.Timezone == "" {
		c.Dashboards.Timezone = defaultTimezone
	}
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == defaultEnvironment
}

// Location resolves the dashboards timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dashboards.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend base_url must be an http(s) URL: %q", c.Backend.BaseURL)
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	// Validate based on database driver
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := models.PolicyByName(c.Dashboards.StatusPolicy); err != nil {
		return fmt.Errorf("dashboards: %w", err)
	}
	if _, err := time.LoadLocation(c.Dashboards.Timezone); err != nil {
		return fmt.Errorf("dashboards timezone: %w", err)
	}

	if c.Auth.AdminPasswordHash == "" {
		return fmt.Errorf("admin password hash is required (ADMIN_PASSWORD_HASH)")
	}
	if !c.IsDevelopment() && c.App.SecretKey == "" {
		return fmt.Errorf("APP_SECRET_KEY is required outside development")
	}

	if c.Email.NotifyStatus {
		if c.Email.Sender == "" {
			return fmt.Errorf("email sender is required when notify_status is enabled")
		}
		if c.Email.Region == "" {
			return fmt.Errorf("email region is required when notify_status is enabled")
		}
	}

	return nil
}
