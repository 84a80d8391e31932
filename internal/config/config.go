package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Notifier NotifierConfig `koanf:"notifier"`
	Admin    AdminConfig    `koanf:"admin"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// NotifierConfig configures the proposal-opened webhook fan-out
// (internal/notify). An empty WebhookBaseURL disables delivery: the
// wiring falls back to notify.NoopNotifier.
type NotifierConfig struct {
	WebhookBaseURL string `koanf:"webhook_base_url"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

func (c NotifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AdminConfig lists team slugs that startup creates if they do not exist
// yet. No API keys are minted for them; admin scope (force-publish,
// force-approve) belongs to individual API keys, issued via the API keys
// resource.
type AdminConfig struct {
	BootstrapTeamSlugs []string `koanf:"bootstrap_team_slugs"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" && c.Database.Type != "memory" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Notifier.WebhookBaseURL != "" && c.Notifier.TimeoutSeconds <= 0 {
		return fmt.Errorf("notifier.timeout_seconds must be > 0 when notifier.webhook_base_url is set")
	}

	return nil
}

// Load parses config from file + env and validates it. configPath may be
// empty, in which case defaults and environment overrides still apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                 8080,
		"server.host":                 "0.0.0.0",
		"server.max_body_size_mb":     4,
		"server.mode":                 "release",
		"database.type":               "postgres",
		"database.dsn":                "postgres://localhost:5432/contractreg?sslmode=disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     25,
		"database.auto_migrate":       true,
		"notifier.webhook_base_url":   "",
		"notifier.timeout_seconds":    5,
		"admin.bootstrap_team_slugs":  []string{},
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("CONTRACTD_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CONTRACTD_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
