// Package intree compiles a repository's in-tree build configuration
// into the task graph submitted for one webhook event.
package intree

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/taskbridge/taskbridge/internal/core"
)

// Policy values for allowPullRequests.
const (
	PolicyPublic        = "public"
	PolicyCollaborators = "collaborators"
)

// RepoConfig is the parsed shape of the in-tree build config file.
type RepoConfig struct {
	Version int          `yaml:"version"`
	Policy  RepoPolicy   `yaml:"policy"`
	Tasks   []TaskConfig `yaml:"tasks"`
}

// RepoPolicy holds repository-level submission policy.
type RepoPolicy struct {
	AllowPullRequests string `yaml:"allowPullRequests"`
}

// TaskConfig is one task template from the config file. Events lists
// the event families the task runs for; a task with no matching event
// is dropped at compile time.
type TaskConfig struct {
	Name    string         `yaml:"name"`
	Events  []string       `yaml:"events"`
	Payload map[string]any `yaml:"payload"`
}

// ParseConfig parses raw config text. A YAML syntax error is reported
// as a core.ConfigError so the job handler surfaces it to the user
// instead of retrying.
func ParseConfig(raw string) (*RepoConfig, error) {
	var cfg RepoConfig
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, core.NewConfigError("failed to parse build config: %v", err)
	}
	return &cfg, nil
}

// AllowPullRequests returns the effective pull-request policy,
// defaulting to collaborators-only.
func (c *RepoConfig) AllowPullRequests() string {
	if c.Policy.AllowPullRequests == "" {
		return PolicyCollaborators
	}
	return c.Policy.AllowPullRequests
}

// CompileInput carries everything Compile needs besides the parsed
// config itself.
type CompileInput struct {
	Organization string
	Repository   string
	EventKind    core.EventKind
	TaskGroupID  string
	SchedulerID  string
}

// Compile expands the parsed config against one webhook event. Tasks
// whose event list does not include the event family are dropped; an
// empty result means the repository is not opted in for this event
// type. Schema violations are reported as core.ConfigError.
func Compile(cfg *RepoConfig, in CompileInput) (*core.TaskGraph, error) {
	if cfg.Version != 1 {
		return nil, core.NewConfigError("unsupported build config version %d, expected 1", cfg.Version)
	}
	switch cfg.AllowPullRequests() {
	case PolicyPublic, PolicyCollaborators:
	default:
		return nil, core.NewConfigError("invalid allowPullRequests policy %q, expected %q or %q",
			cfg.Policy.AllowPullRequests, PolicyPublic, PolicyCollaborators)
	}

	graph := &core.TaskGraph{
		TaskGroupID: in.TaskGroupID,
		Scopes: []string{
			fmt.Sprintf("assume:repo:github.com/%s/%s:%s", in.Organization, in.Repository, in.EventKind),
		},
	}

	for i, task := range cfg.Tasks {
		if task.Name == "" {
			return nil, core.NewConfigError("tasks[%d] has no name", i)
		}
		matched, err := matchesEvent(task.Events, in.EventKind, i)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		graph.Tasks = append(graph.Tasks, core.TaskDefinition{
			TaskID:      uuid.NewString(),
			TaskGroupID: in.TaskGroupID,
			Name:        task.Name,
			SchedulerID: in.SchedulerID,
			Payload:     task.Payload,
		})
	}

	return graph, nil
}

// matchesEvent reports whether the task's event list names the event
// family, validating each entry against the closed event set.
func matchesEvent(events []string, kind core.EventKind, taskIndex int) (bool, error) {
	matched := false
	for _, e := range events {
		k, err := core.ParseEventKind(e)
		if err != nil {
			return false, core.NewConfigError("tasks[%d] names unknown event %q", taskIndex, e)
		}
		if k == kind {
			matched = true
		}
	}
	return matched, nil
}
