// Package config loads the TaskBridge process configuration from the
// environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DBConfig holds the Postgres connection settings for the record
// stores.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds the application's configuration values.
type Config struct {
	ServerPort string
	LogLevel   slog.Level
	LogFormat  string

	GitHubAppID          int64
	GitHubWebhookSecret  string
	GitHubPrivateKeyPath string

	KafkaBrokers  []string
	ConsumerGroup string

	// Topic names for the three subscriptions plus the jobs topic the
	// webhook receiver publishes to.
	TopicJobs        string
	TopicTaskStatus  string
	TopicGroupStatus string

	// SchedulerID identifies this deployment's submissions on the task
	// queue; status subscriptions are filtered to it.
	SchedulerID string

	// TaskQueueRootURL is the user-facing root of the task queue UI,
	// used to build check-run details links.
	TaskQueueRootURL string
	// TaskQueueAPIURL is the base URL of the task queue REST API.
	TaskQueueAPIURL      string
	TaskQueueClientID    string
	TaskQueueAccessToken string

	// BuildConfigPath is the in-repository path of the build config
	// file that opts a repository in.
	BuildConfigPath string

	Database *DBConfig
}

// LoadConfig reads configuration from environment variables and a .env
// file, sets sensible defaults, and validates required fields.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/taskbridge-app.private-key.pem")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("CONSUMER_GROUP", "taskbridge")
	viper.SetDefault("TOPIC_JOBS", "taskbridge.jobs")
	viper.SetDefault("TOPIC_TASK_STATUS", "taskqueue.task-status")
	viper.SetDefault("TOPIC_GROUP_STATUS", "taskqueue.group-status")
	viper.SetDefault("SCHEDULER_ID", "taskbridge")
	viper.SetDefault("BUILD_CONFIG_PATH", ".taskbridge.yml")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USERNAME", "taskbridge")
	viper.SetDefault("DB_NAME", "taskbridge")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetInt64("GITHUB_APP_ID") == 0 {
		return nil, fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if viper.GetString("GITHUB_WEBHOOK_SECRET") == "" {
		return nil, fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}
	if viper.GetString("TASK_QUEUE_API_URL") == "" {
		return nil, fmt.Errorf("TASK_QUEUE_API_URL must be set")
	}
	if viper.GetString("TASK_QUEUE_ROOT_URL") == "" {
		return nil, fmt.Errorf("TASK_QUEUE_ROOT_URL must be set")
	}

	return &Config{
		ServerPort:           viper.GetString("SERVER_PORT"),
		LogLevel:             parseLogLevel(viper.GetString("LOG_LEVEL")),
		LogFormat:            viper.GetString("LOG_FORMAT"),
		GitHubAppID:          viper.GetInt64("GITHUB_APP_ID"),
		GitHubWebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
		GitHubPrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
		KafkaBrokers:         strings.Split(viper.GetString("KAFKA_BROKERS"), ","),
		ConsumerGroup:        viper.GetString("CONSUMER_GROUP"),
		TopicJobs:            viper.GetString("TOPIC_JOBS"),
		TopicTaskStatus:      viper.GetString("TOPIC_TASK_STATUS"),
		TopicGroupStatus:     viper.GetString("TOPIC_GROUP_STATUS"),
		SchedulerID:          viper.GetString("SCHEDULER_ID"),
		TaskQueueRootURL:     strings.TrimRight(viper.GetString("TASK_QUEUE_ROOT_URL"), "/"),
		TaskQueueAPIURL:      strings.TrimRight(viper.GetString("TASK_QUEUE_API_URL"), "/"),
		TaskQueueClientID:    viper.GetString("TASK_QUEUE_CLIENT_ID"),
		TaskQueueAccessToken: viper.GetString("TASK_QUEUE_ACCESS_TOKEN"),
		BuildConfigPath:      viper.GetString("BUILD_CONFIG_PATH"),
		Database: &DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USERNAME"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
	}, nil
}

// parseLogLevel maps a level string onto slog's levels, defaulting to
// info for anything unrecognized.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
