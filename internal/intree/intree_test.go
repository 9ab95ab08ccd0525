package intree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbridge/taskbridge/internal/core"
)

const validConfig = `
version: 1
policy:
  allowPullRequests: public
tasks:
  - name: build
    events: [push, pull_request]
    payload:
      image: golang:1.24
  - name: lint
    events: [pull_request]
    payload:
      image: golangci-lint
  - name: publish
    events: [release, tag]
`

func TestParseConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg, err := ParseConfig(validConfig)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Version)
		assert.Equal(t, PolicyPublic, cfg.AllowPullRequests())
		assert.Len(t, cfg.Tasks, 3)
	})

	t.Run("invalid yaml is a config error", func(t *testing.T) {
		_, err := ParseConfig("tasks:\n  - name: [unclosed")
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("policy defaults to collaborators", func(t *testing.T) {
		cfg, err := ParseConfig("version: 1\ntasks: []")
		require.NoError(t, err)
		assert.Equal(t, PolicyCollaborators, cfg.AllowPullRequests())
	})
}

func TestCompile(t *testing.T) {
	input := CompileInput{
		Organization: "octo",
		Repository:   "widgets",
		EventKind:    core.EventPullRequest,
		TaskGroupID:  "tg-1",
		SchedulerID:  "taskbridge",
	}

	t.Run("filters tasks by event", func(t *testing.T) {
		cfg, err := ParseConfig(validConfig)
		require.NoError(t, err)

		graph, err := Compile(cfg, input)
		require.NoError(t, err)
		require.Len(t, graph.Tasks, 2)
		assert.Equal(t, "build", graph.Tasks[0].Name)
		assert.Equal(t, "lint", graph.Tasks[1].Name)
		for _, task := range graph.Tasks {
			assert.NotEmpty(t, task.TaskID)
			assert.Equal(t, "tg-1", task.TaskGroupID)
			assert.Equal(t, "taskbridge", task.SchedulerID)
		}
		assert.Equal(t, []string{"assume:repo:github.com/octo/widgets:pull_request"}, graph.Scopes)
	})

	t.Run("no matching events compiles to zero tasks", func(t *testing.T) {
		cfg, err := ParseConfig(validConfig)
		require.NoError(t, err)

		pushOnly := input
		pushOnly.EventKind = core.EventTag
		graph, err := Compile(cfg, pushOnly)
		require.NoError(t, err)
		require.Len(t, graph.Tasks, 1)
		assert.Equal(t, "publish", graph.Tasks[0].Name)
	})

	t.Run("unsupported version", func(t *testing.T) {
		cfg, err := ParseConfig("version: 2\ntasks: []")
		require.NoError(t, err)

		_, err = Compile(cfg, input)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Message, "version")
	})

	t.Run("unknown event name", func(t *testing.T) {
		cfg, err := ParseConfig("version: 1\ntasks:\n  - name: x\n    events: [deploy]")
		require.NoError(t, err)

		_, err = Compile(cfg, input)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("nameless task", func(t *testing.T) {
		cfg, err := ParseConfig("version: 1\ntasks:\n  - events: [push]")
		require.NoError(t, err)

		_, err = Compile(cfg, input)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("invalid policy", func(t *testing.T) {
		cfg, err := ParseConfig("version: 1\npolicy:\n  allowPullRequests: anyone\ntasks: []")
		require.NoError(t, err)

		_, err = Compile(cfg, input)
		var cfgErr *core.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Message, "allowPullRequests")
	})
}
