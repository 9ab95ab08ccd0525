package config

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_APP_ID", "12345")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "hunter2")
	t.Setenv("TASK_QUEUE_API_URL", "https://queue.example.com/api/")
	t.Setenv("TASK_QUEUE_ROOT_URL", "https://queue.example.com/")
}

func TestLoadConfig_RequiresMandatoryFields(t *testing.T) {
	tests := []struct {
		missing string
	}{
		{"GITHUB_APP_ID"},
		{"GITHUB_WEBHOOK_SECRET"},
		{"TASK_QUEUE_API_URL"},
		{"TASK_QUEUE_ROOT_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.missing, func(t *testing.T) {
			viper.Reset()
			setRequiredEnv(t)
			t.Setenv(tt.missing, "")

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, int64(12345), cfg.GitHubAppID)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "taskbridge", cfg.ConsumerGroup)
	assert.Equal(t, "taskbridge.jobs", cfg.TopicJobs)
	assert.Equal(t, "taskqueue.task-status", cfg.TopicTaskStatus)
	assert.Equal(t, "taskqueue.group-status", cfg.TopicGroupStatus)
	assert.Equal(t, "taskbridge", cfg.SchedulerID)
	assert.Equal(t, ".taskbridge.yml", cfg.BuildConfigPath)

	// Trailing slashes would otherwise leak into built URLs.
	assert.Equal(t, "https://queue.example.com/api", cfg.TaskQueueAPIURL)
	assert.Equal(t, "https://queue.example.com", cfg.TaskQueueRootURL)

	require.NotNil(t, cfg.Database)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfig_BrokerListIsSplit(t *testing.T) {
	viper.Reset()
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}
