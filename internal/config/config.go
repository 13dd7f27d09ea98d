package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Import
		Scan
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Import struct {
		BatchSize     int
		MemoryLimitMB int // 0 disables the heap pressure check

		// Owner identity per source, for archive formats that do not
		// reliably embed the owning account.
		TwitterHandle  string
		BlueskyHandle  string
		BlueskyDID     string
		MastodonHandle string
	}

	Scan struct {
		Enabled  bool
		Dir      string
		Schedule string // Cron format: "*/10 * * * *" = every 10 minutes
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Import defaults
	v.SetDefault("import_batch_size", 500)
	v.SetDefault("import_memory_limit_mb", 0)
	v.SetDefault("import_twitter_handle", "")
	v.SetDefault("import_bluesky_handle", "")
	v.SetDefault("import_bluesky_did", "")
	v.SetDefault("import_mastodon_handle", "")

	// Archive scan defaults
	v.SetDefault("scan_enabled", false)
	v.SetDefault("scan_dir", "./archives")
	v.SetDefault("scan_schedule", "*/10 * * * *") // Every 10 minutes

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Import: Import{
			BatchSize:      v.GetInt("IMPORT_BATCH_SIZE"),
			MemoryLimitMB:  v.GetInt("IMPORT_MEMORY_LIMIT_MB"),
			TwitterHandle:  v.GetString("IMPORT_TWITTER_HANDLE"),
			BlueskyHandle:  v.GetString("IMPORT_BLUESKY_HANDLE"),
			BlueskyDID:     v.GetString("IMPORT_BLUESKY_DID"),
			MastodonHandle: v.GetString("IMPORT_MASTODON_HANDLE"),
		},
		Scan: Scan{
			Enabled:  v.GetBool("SCAN_ENABLED"),
			Dir:      v.GetString("SCAN_DIR"),
			Schedule: v.GetString("SCAN_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}

// HandleFor returns the configured owner handle for a source, empty when
// none is set.
func (c *Config) HandleFor(source string) string {
	switch source {
	case "twitter", "twitter-csv":
		return c.Import.TwitterHandle
	case "bluesky":
		return c.Import.BlueskyHandle
	case "mastodon":
		return c.Import.MastodonHandle
	}
	return ""
}
