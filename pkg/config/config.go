package config

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// DefaultUserAgent is the fixed client identifier sent with every feed request
const DefaultUserAgent = "Mozilla/5.0 (compatible; JobImporter/1.0)"

// DefaultFetchRetries is the retry ceiling used when fetch.retries is not set
const DefaultFetchRetries = 3

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:jobimport.db?cache=shared&mode=rwc&_txlock=immediate,description=SQLite DSN or postgres:// URL"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Redis struct {
		URL string `yaml:"url" json:"url" jsonschema:"default=redis://localhost:6379/0,description=Redis URL of the task queue broker"`
	} `yaml:"redis" json:"redis" jsonschema:"description=Redis configuration"`

	Queue QueueConfig `yaml:"queue" json:"queue" jsonschema:"description=Task queue configuration"`

	Fetch FetchConfig `yaml:"fetch" json:"fetch" jsonschema:"description=Feed fetching configuration"`

	Import ImportConfig `yaml:"import" json:"import" jsonschema:"description=Batch import configuration"`

	Worker struct {
		Concurrency int `yaml:"concurrency" json:"concurrency" jsonschema:"default=5,minimum=1,description=Number of import tasks processed in parallel"`
	} `yaml:"worker" json:"worker" jsonschema:"description=Worker pool configuration"`

	Schedule struct {
		Cron       string `yaml:"cron" json:"cron" jsonschema:"default=0 * * * *,description=Cron expression of the feed sweep"`
		RunOnStart bool   `yaml:"run_on_start" json:"run_on_start" jsonschema:"default=false,description=Run a sweep right after startup"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Feeds []FeedConfig `yaml:"feeds" json:"feeds" jsonschema:"description=Feed sources seeded at startup, the built-in registry is used if empty"`
}

// QueueConfig holds task queue settings
type QueueConfig struct {
	Name          string        `yaml:"name" json:"name" jsonschema:"default=job-import,description=Queue name used as redis key namespace"`
	Attempts      int           `yaml:"attempts" json:"attempts" jsonschema:"default=3,minimum=1,description=Attempt ceiling per task"`
	Backoff       time.Duration `yaml:"backoff" json:"backoff" jsonschema:"default=2s,description=Base delay of exponential task backoff"`
	KeepCompleted int           `yaml:"keep_completed" json:"keep_completed" jsonschema:"default=100,description=Number of completed tasks retained"`
	KeepFailed    int           `yaml:"keep_failed" json:"keep_failed" jsonschema:"default=200,description=Number of failed tasks retained"`
	StallInterval time.Duration `yaml:"stall_interval" json:"stall_interval" jsonschema:"default=30s,description=Lock TTL of active tasks and stalled check period"`
}

// FetchConfig holds feed fetcher settings
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	Retries   int           `yaml:"retries" json:"retries" jsonschema:"default=3,minimum=0,description=Retry ceiling after the first attempt"`
	Backoff   time.Duration `yaml:"backoff" json:"backoff" jsonschema:"default=1s,description=Base retry delay doubled on every attempt"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Mozilla/5.0 (compatible; JobImporter/1.0),description=User agent for feed requests"`
}

// ImportConfig holds batch import settings
type ImportConfig struct {
	BatchSize        int `yaml:"batch_size" json:"batch_size" jsonschema:"default=100,minimum=1,description=Postings written per bulk upsert"`
	CheckpointEvery  int `yaml:"checkpoint_every" json:"checkpoint_every" jsonschema:"default=10,minimum=1,description=Run counters are checkpointed every N chunks"`
	MaxFailedDetails int `yaml:"max_failed_details" json:"max_failed_details" jsonschema:"default=100,description=Failure details persisted per run"`
}

// FeedConfig describes a feed source seeded at startup
type FeedConfig struct {
	URL      string `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
	Name     string `yaml:"name" json:"name" jsonschema:"description=Feed display name"`
	Category string `yaml:"category" json:"category" jsonschema:"description=Feed category stored as feed metadata"`
	JobType  string `yaml:"job_type" json:"job_type" jsonschema:"description=Feed job type stored as feed metadata"`
	Region   string `yaml:"region" json:"region" jsonschema:"description=Feed region stored as feed metadata"`
	Disabled bool   `yaml:"disabled" json:"disabled" jsonschema:"default=false,description=Seed the feed as inactive"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	// zero is a valid retry count, so its default is set before decoding instead of in setDefaults
	var cfg Config
	cfg.Fetch.Retries = DefaultFetchRetries
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		return nil, fmt.Errorf("verify config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	// server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// database
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:jobimport.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	// queue
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
	}
	if cfg.Queue.Name == "" {
		cfg.Queue.Name = "job-import"
	}
	if cfg.Queue.Attempts == 0 {
		cfg.Queue.Attempts = 3
	}
	if cfg.Queue.Backoff == 0 {
		cfg.Queue.Backoff = 2 * time.Second
	}
	if cfg.Queue.KeepCompleted == 0 {
		cfg.Queue.KeepCompleted = 100
	}
	if cfg.Queue.KeepFailed == 0 {
		cfg.Queue.KeepFailed = 200
	}
	if cfg.Queue.StallInterval == 0 {
		cfg.Queue.StallInterval = 30 * time.Second
	}

	// fetch, retries are left as is since zero is a valid ceiling
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.Backoff == 0 {
		cfg.Fetch.Backoff = time.Second
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}

	// import
	if cfg.Import.BatchSize == 0 {
		cfg.Import.BatchSize = 100
	}
	if cfg.Import.CheckpointEvery == 0 {
		cfg.Import.CheckpointEvery = 10
	}
	if cfg.Import.MaxFailedDetails == 0 {
		cfg.Import.MaxFailedDetails = 100
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 5
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 * * * *"
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must be non-negative")
	}
	if cfg.Fetch.Timeout < 0 || cfg.Fetch.Backoff < 0 {
		return fmt.Errorf("fetch timeout and backoff must be positive")
	}
	if cfg.Queue.Attempts < 1 {
		return fmt.Errorf("queue.attempts must be at least 1")
	}
	if cfg.Import.BatchSize < 1 {
		return fmt.Errorf("import.batch_size must be at least 1")
	}
	if cfg.Import.CheckpointEvery < 1 {
		return fmt.Errorf("import.checkpoint_every must be at least 1")
	}
	if cfg.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1")
	}
	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", cfg.Schedule.Cron, err)
	}

	seen := make(map[string]bool, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feeds[%d].url is required", i)
		}
		if seen[f.URL] {
			return fmt.Errorf("feeds[%d]: duplicate url %s", i, f.URL)
		}
		seen[f.URL] = true
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
