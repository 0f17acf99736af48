package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "10m", cfg.Monitor.CheckInterval)
	assert.Equal(t, 10, cfg.Monitor.EventsNumber)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "Auto", cfg.Timezone)
	assert.True(t, cfg.Notifications.Errors)
	assert.False(t, cfg.Notifications.Profile)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("SMTP_PASSWORD", "")
	t.Setenv("SMTP_HOST", "")

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_test"
	cfg.Monitor.CheckInterval = "15m"
	cfg.Notifications.Profile = true

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", loaded.GitHub.Token)
	assert.Equal(t, 15*time.Minute, loaded.GetCheckInterval())
	assert.True(t, loaded.Notifications.Profile)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.GetCheckInterval())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_from_env")
	t.Setenv("SMTP_PASSWORD", "hunter2")

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_from_file"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ghp_from_env", loaded.GitHub.Token)
	assert.Equal(t, "hunter2", loaded.SMTP.Password)
}

func TestApplySecrets(t *testing.T) {
	secretsPath := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(secretsPath,
		[]byte("github_token: ghp_secret\nsmtp_password: s3cret\n"), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplySecrets(secretsPath))
	assert.Equal(t, "ghp_secret", cfg.GitHub.Token)
	assert.Equal(t, "s3cret", cfg.SMTP.Password)
}

func TestApplySecretsPartial(t *testing.T) {
	secretsPath := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(secretsPath, []byte("smtp_password: only\n"), 0600))

	cfg := DefaultConfig()
	cfg.GitHub.Token = "keep-me"
	require.NoError(t, cfg.ApplySecrets(secretsPath))
	assert.Equal(t, "keep-me", cfg.GitHub.Token)
	assert.Equal(t, "only", cfg.SMTP.Password)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.GitHub.Token = "ghp_test"
		cfg.Notifications = NotificationsConfig{}
		return cfg
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing token", func(t *testing.T) {
		cfg := base()
		cfg.GitHub.Token = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad interval", func(t *testing.T) {
		cfg := base()
		cfg.Monitor.CheckInterval = "-5m"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := base()
		cfg.Timezone = "Mars/Olympus_Mons"
		assert.Error(t, cfg.Validate())
	})

	t.Run("email without smtp host", func(t *testing.T) {
		cfg := base()
		cfg.Notifications.Profile = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("email with full smtp", func(t *testing.T) {
		cfg := base()
		cfg.Notifications.Profile = true
		cfg.SMTP.Host = "smtp.example.com"
		cfg.SMTP.Sender = "monitor@example.com"
		cfg.SMTP.Receiver = "me@example.com"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "Europe/Warsaw"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Warsaw", loc.String())
}
