package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration, read from waitlist.yaml and overridden
// by environment variables for secrets.
type Config struct {
	ListenAddr     string       `yaml:"listen_addr"`
	DatabaseURL    string       `yaml:"database_url"`
	MigrateOnStart bool         `yaml:"migrate_on_start"`
	Supabase       Supabase     `yaml:"supabase"`
	CronSecret     string       `yaml:"cron_secret"`
	Notify         Notify       `yaml:"notify"`
	Sheets         Sheets       `yaml:"sheets"`
	Schedule       Schedule     `yaml:"schedule"`
	Log            Log          `yaml:"log"`
	Registration   Registration `yaml:"registration"`
}

type Supabase struct {
	URL            string `yaml:"url"`
	ServiceRoleKey string `yaml:"service_role_key"`
}

// Notify is the match-alert endpoint the cron relay forwards to.
type Notify struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type Sheets struct {
	BaseURL      string `yaml:"base_url"`
	DirectoryID  string `yaml:"directory_id"`
	DirectoryTab string `yaml:"directory_tab"`
	DashboardID  string `yaml:"dashboard_id"`
	DashboardTab string `yaml:"dashboard_tab"`
}

// Schedule holds standard 5-field cron expressions. Empty disables the job.
type Schedule struct {
	Cleanup     string `yaml:"cleanup"`
	MatchAlerts string `yaml:"match_alerts"`
}

type Log struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	FileMaxSizeMB int    `yaml:"file_max_size_mb"`
	FilesKeep     int    `yaml:"files_keep"`
}

// Registration gates self-service account creation. When CodeHash is set
// the registering user must present the matching code.
type Registration struct {
	CodeHash string `yaml:"code_hash"` // bcrypt hash
}

// CheckCode reports whether code is accepted by the configured hash. With no
// hash configured every code is accepted.
func (r Registration) CheckCode(code string) bool {
	if r.CodeHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(r.CodeHash), []byte(code)) == nil
}

// HashCode returns the bcrypt hash to put in registration.code_hash.
func HashCode(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(b), err
}

var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"LISTEN_ADDR", func(c *Config) *string { return &c.ListenAddr }},
	{"DATABASE_URL", func(c *Config) *string { return &c.DatabaseURL }},
	{"SUPABASE_URL", func(c *Config) *string { return &c.Supabase.URL }},
	{"SUPABASE_SERVICE_ROLE_KEY", func(c *Config) *string { return &c.Supabase.ServiceRoleKey }},
	{"CRON_SECRET", func(c *Config) *string { return &c.CronSecret }},
	{"NOTIFY_URL", func(c *Config) *string { return &c.Notify.URL }},
	{"NOTIFY_TOKEN", func(c *Config) *string { return &c.Notify.Token }},
	{"REGISTRATION_CODE_HASH", func(c *Config) *string { return &c.Registration.CodeHash }},
}

// Load reads and parses a waitlist.yaml config file. A missing file is not an
// error when the environment supplies the required settings.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.field(&cfg) = v
		}
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database_url is required")
	}
	if c.Supabase.URL == "" || c.Supabase.ServiceRoleKey == "" {
		return fmt.Errorf("config: supabase.url and supabase.service_role_key are required")
	}
	if c.CronSecret == "" {
		return fmt.Errorf("config: cron_secret is required")
	}
	if c.Schedule.MatchAlerts != "" && c.Notify.URL == "" {
		return fmt.Errorf("config: schedule.match_alerts requires notify.url")
	}
	return nil
}
