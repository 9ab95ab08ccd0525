package core

import (
	"fmt"
	"time"
)

// BuildState is the overall outcome of one task group.
type BuildState string

const (
	BuildQueued  BuildState = "queued"
	BuildSuccess BuildState = "success"
	BuildFailure BuildState = "failure"
)

// Build is the durable summary of one task group, keyed by its task
// group ID. It is created exactly once by the job handler; only the
// group-status handler mutates State afterwards, and a failure State
// is sticky.
type Build struct {
	TaskGroupID    string     `db:"task_group_id"`
	Organization   string     `db:"organization"`
	Repository     string     `db:"repository"`
	SHA            string     `db:"sha"`
	State          BuildState `db:"state"`
	Created        time.Time  `db:"created"`
	Updated        time.Time  `db:"updated"`
	InstallationID int64      `db:"installation_id"`
	EventType      string     `db:"event_type"`
	EventID        string     `db:"event_id"`
}

// Matches reports whether an existing Build carries the same identity
// as a freshly computed one. A duplicate queue delivery must reproduce
// the record it created the first time; anything else is corruption.
func (b *Build) Matches(other *Build) bool {
	return b.Organization == other.Organization &&
		b.Repository == other.Repository &&
		b.SHA == other.SHA &&
		b.EventType == other.EventType &&
		b.EventID == other.EventID &&
		b.State == other.State
}

// CheckRun maps one (task group, task) pair to the GitHub identifiers
// of the check run opened for it. Written once by the job handler and
// read by the status handler; never mutated.
type CheckRun struct {
	TaskGroupID  string `db:"task_group_id"`
	TaskID       string `db:"task_id"`
	CheckSuiteID string `db:"check_suite_id"`
	CheckRunID   string `db:"check_run_id"`
}

// CorruptionError marks a data-consistency violation: a duplicate
// delivery whose recomputed Build disagrees with the stored one. It is
// never swallowed; the dispatcher reports it as fatal.
type CorruptionError struct {
	TaskGroupID string
	Stored      *Build
	Computed    *Build
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("build record %s does not match its duplicate delivery: stored %+v, computed %+v",
		e.TaskGroupID, e.Stored, e.Computed)
}

// ConfigError is a user-facing configuration failure: malformed YAML,
// a schema violation, or a policy that forbids the event. It is
// surfaced as a GitHub comment and never retried.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// NewConfigError formats a user-facing configuration failure.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
