package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath
}

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		configPath := writeConfig(t, `
server:
  listen: ":9090"
  timeout: 45s
redis:
  url: redis://cache:6379/2
queue:
  attempts: 5
  backoff: 3s
fetch:
  timeout: 10s
  retries: 2
import:
  batch_size: 50
  checkpoint_every: 4
worker:
  concurrency: 8
schedule:
  cron: "*/15 * * * *"
  run_on_start: true
feeds:
  - url: https://example.com/jobs.xml
    name: Example
    category: Engineering
    job_type: Contract
  - url: https://example.com/old.xml
    disabled: true
`)

		cfg, err := Load(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
		assert.Equal(t, 5, cfg.Queue.Attempts)
		assert.Equal(t, 3*time.Second, cfg.Queue.Backoff)
		assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
		assert.Equal(t, 2, cfg.Fetch.Retries)
		assert.Equal(t, 50, cfg.Import.BatchSize)
		assert.Equal(t, 4, cfg.Import.CheckpointEvery)
		assert.Equal(t, 8, cfg.Worker.Concurrency)
		assert.Equal(t, "*/15 * * * *", cfg.Schedule.Cron)
		assert.True(t, cfg.Schedule.RunOnStart)

		require.Len(t, cfg.Feeds, 2)
		assert.Equal(t, "Example", cfg.Feeds[0].Name)
		assert.Equal(t, "Engineering", cfg.Feeds[0].Category)
		assert.Equal(t, "Contract", cfg.Feeds[0].JobType)
		assert.False(t, cfg.Feeds[0].Disabled)
		assert.True(t, cfg.Feeds[1].Disabled)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "server:\n  listen: \":8081\"\n"))
		require.NoError(t, err)

		assert.Equal(t, ":8081", cfg.Server.Listen)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, "file:jobimport.db?cache=shared&mode=rwc&_txlock=immediate", cfg.Database.DSN)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
		assert.Equal(t, "job-import", cfg.Queue.Name)
		assert.Equal(t, 3, cfg.Queue.Attempts)
		assert.Equal(t, 2*time.Second, cfg.Queue.Backoff)
		assert.Equal(t, 100, cfg.Queue.KeepCompleted)
		assert.Equal(t, 200, cfg.Queue.KeepFailed)
		assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
		assert.Equal(t, 3, cfg.Fetch.Retries)
		assert.Equal(t, time.Second, cfg.Fetch.Backoff)
		assert.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
		assert.Equal(t, 100, cfg.Import.BatchSize)
		assert.Equal(t, 10, cfg.Import.CheckpointEvery)
		assert.Equal(t, 100, cfg.Import.MaxFailedDetails)
		assert.Equal(t, 5, cfg.Worker.Concurrency)
		assert.Equal(t, "0 * * * *", cfg.Schedule.Cron)
		assert.Empty(t, cfg.Feeds)
	})

	t.Run("explicit zero retries kept", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "fetch:\n  retries: 0\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Fetch.Retries)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_REDIS_URL", "redis://secret@redis:6379/1")
		cfg, err := Load(writeConfig(t, "redis:\n  url: ${TEST_REDIS_URL}\n"))
		require.NoError(t, err)
		assert.Equal(t, "redis://secret@redis:6379/1", cfg.Redis.URL)
	})

	t.Run("file not found", func(t *testing.T) {
		cfg, err := Load("/non/existent/file.yml")
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "invalid: yaml: content: ["))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "short server timeout", content: "server:\n  timeout: 500ms\n", errMsg: "server timeout"},
		{name: "negative retries", content: "fetch:\n  retries: -1\n", errMsg: "fetch.retries"},
		{name: "negative batch size", content: "import:\n  batch_size: -5\n", errMsg: "import.batch_size"},
		{name: "negative concurrency", content: "worker:\n  concurrency: -1\n", errMsg: "worker.concurrency"},
		{name: "bad cron", content: "schedule:\n  cron: \"every hour\"\n", errMsg: "schedule.cron"},
		{name: "feed without url", content: "feeds:\n  - name: broken\n", errMsg: "feeds[0].url is required"},
		{name: "duplicate feed", content: "feeds:\n  - url: https://a.example\n  - url: https://a.example\n", errMsg: "duplicate url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("cron descriptor accepted", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "schedule:\n  cron: \"@hourly\"\n"))
		require.NoError(t, err)
		assert.Equal(t, "@hourly", cfg.Schedule.Cron)
	})
}

func TestConfig_GetServerConfig(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Listen = ":7070"
	cfg.Server.Timeout = 5 * time.Second

	listen, timeout := cfg.GetServerConfig()
	assert.Equal(t, ":7070", listen)
	assert.Equal(t, 5*time.Second, timeout)
}
