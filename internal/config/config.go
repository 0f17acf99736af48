// Package config loads and validates the monitor's YAML configuration.
// Defaults come first, then the config file, then environment overrides,
// then command-line flags (applied by the CLI layer).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all github-monitor configuration.
type Config struct {
	// GitHub API access
	GitHub GitHubConfig `yaml:"github"`

	// Polling behavior
	Monitor MonitorConfig `yaml:"monitor"`

	// Retry budget for remote calls
	Retry RetryConfig `yaml:"retry"`

	// Which change categories trigger email
	Notifications NotificationsConfig `yaml:"notifications"`

	// SMTP delivery
	SMTP SMTPConfig `yaml:"smtp"`

	// Record log (CSV)
	CSV CSVConfig `yaml:"csv"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Timezone for all displayed timestamps; "Auto" means the host zone.
	Timezone string `yaml:"timezone"`
}

// GitHubConfig configures API access.
type GitHubConfig struct {
	Token string `yaml:"token"`
	// SecretsFile optionally holds token/smtp_password outside the main
	// config; it is watched and re-applied on change.
	SecretsFile      string `yaml:"secrets_file"`
	PerPage          int    `yaml:"per_page"`
	ContributionsURL string `yaml:"contributions_url"`
	// ConnectivityURL is probed once at startup to confirm the network
	// is reachable before the first poll.
	ConnectivityURL string `yaml:"connectivity_url"`
}

// MonitorConfig configures the polling loop.
type MonitorConfig struct {
	CheckInterval string `yaml:"check_interval"` // between successful cycles
	ErrorInterval string `yaml:"error_interval"` // after a failed cycle
	AliveInterval string `yaml:"alive_interval"` // between liveness lines
	EventsNumber  int    `yaml:"events_number"`  // feed window size
	TrackRepos    bool   `yaml:"track_repos"`    // per-repo detail diffs
}

// RetryConfig bounds the retry wrapper around each remote call.
type RetryConfig struct {
	MaxRetries  int    `yaml:"max_retries"`
	BaseBackoff string `yaml:"base_backoff"`
}

// NotificationsConfig selects which change categories send email. The
// console and the record log always receive every change.
type NotificationsConfig struct {
	Profile        bool `yaml:"profile"`
	Events         bool `yaml:"events"`
	Repos          bool `yaml:"repos"`
	RepoUpdateDate bool `yaml:"repo_update_date"`
	Errors         bool `yaml:"errors"`
}

// SMTPConfig configures email delivery.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
	Sender   string `yaml:"sender"`
	Receiver string `yaml:"receiver"`
}

// CSVConfig configures the record log.
type CSVConfig struct {
	File string `yaml:"file"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	// Disable drops the per-user log file and logs to stdout only.
	Disable bool `yaml:"disable_logfile"`
	// Dir is where the per-user log file is created.
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			PerPage:          100,
			ContributionsURL: "https://github-contributions-api.jogruber.de/v4",
			ConnectivityURL:  "https://api.github.com",
		},
		Monitor: MonitorConfig{
			CheckInterval: "10m",
			ErrorInterval: "5m",
			AliveInterval: "6h",
			EventsNumber:  10,
			TrackRepos:    false,
		},
		Retry: RetryConfig{
			MaxRetries:  3,
			BaseBackoff: "5s",
		},
		Notifications: NotificationsConfig{
			Errors: true,
		},
		SMTP: SMTPConfig{
			Port:   587,
			UseTLS: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   ".",
		},
		Timezone: "Auto",
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if cfg.GitHub.SecretsFile != "" {
		if err := cfg.ApplySecrets(cfg.GitHub.SecretsFile); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		c.GitHub.Token = tok
	}
	if pw := os.Getenv("SMTP_PASSWORD"); pw != "" {
		c.SMTP.Password = pw
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.SMTP.Host = host
	}
}

// secrets is the shape of the optional secrets file.
type secrets struct {
	GitHubToken  string `yaml:"github_token"`
	SMTPPassword string `yaml:"smtp_password"`
}

// ApplySecrets reads the secrets file and overlays its values. Called at
// load time and again whenever the file changes on disk.
func (c *Config) ApplySecrets(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var s secrets
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse secrets file: %w", err)
	}
	if s.GitHubToken != "" {
		c.GitHub.Token = s.GitHubToken
	}
	if s.SMTPPassword != "" {
		c.SMTP.Password = s.SMTPPassword
	}
	return nil
}

// Validate checks cross-field coherence before the monitor starts.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return errors.New("github token is required (config github.token, secrets file or GITHUB_TOKEN)")
	}
	if d := c.GetCheckInterval(); d <= 0 {
		return fmt.Errorf("monitor.check_interval must be positive, got %q", c.Monitor.CheckInterval)
	}
	if c.Monitor.EventsNumber <= 0 {
		return fmt.Errorf("monitor.events_number must be positive, got %d", c.Monitor.EventsNumber)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.anyEmailEnabled() {
		switch {
		case c.SMTP.Host == "":
			return errors.New("email notifications enabled but smtp.host is empty")
		case c.SMTP.Sender == "":
			return errors.New("email notifications enabled but smtp.sender is empty")
		case c.SMTP.Receiver == "":
			return errors.New("email notifications enabled but smtp.receiver is empty")
		}
	}
	return nil
}

func (c *Config) anyEmailEnabled() bool {
	n := c.Notifications
	return n.Profile || n.Events || n.Repos || n.RepoUpdateDate || n.Errors
}

// Location resolves the configured timezone; "Auto" or empty means the
// host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Auto" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// GetCheckInterval returns the polling interval as a duration.
func (c *Config) GetCheckInterval() time.Duration {
	d, err := time.ParseDuration(c.Monitor.CheckInterval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetErrorInterval returns the failed-cycle interval as a duration.
func (c *Config) GetErrorInterval() time.Duration {
	d, err := time.ParseDuration(c.Monitor.ErrorInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetAliveInterval returns the liveness line interval as a duration.
func (c *Config) GetAliveInterval() time.Duration {
	d, err := time.ParseDuration(c.Monitor.AliveInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// GetBaseBackoff returns the retry base backoff as a duration.
func (c *Config) GetBaseBackoff() time.Duration {
	d, err := time.ParseDuration(c.Retry.BaseBackoff)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
