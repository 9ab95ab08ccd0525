// Package core defines the essential data structures shared by the
// TaskBridge pipeline: the normalized queue messages, the durable build
// and check-run records, and the fixed lookup tables that map task
// outcomes onto GitHub check-run states.
package core

import (
	"fmt"
	"strings"
)

// EventKind is the closed set of webhook event families TaskBridge
// reacts to. The dotted wire strings ("pull_request.opened" etc.) are
// decoded into this variant exactly once, at message decode time.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventPush
	EventTag
	EventRelease
	EventPullRequest
)

// String returns the event family name without the action suffix.
func (k EventKind) String() string {
	switch k {
	case EventPush:
		return "push"
	case EventTag:
		return "tag"
	case EventRelease:
		return "release"
	case EventPullRequest:
		return "pull_request"
	default:
		return "unknown"
	}
}

// ParseEventKind decodes a dotted wire event type such as
// "pull_request.opened" or "push" into its event family.
func ParseEventKind(eventType string) (EventKind, error) {
	family, _, _ := strings.Cut(eventType, ".")
	switch family {
	case "push":
		return EventPush, nil
	case "tag":
		return EventTag, nil
	case "release":
		return EventRelease, nil
	case "pull_request":
		return EventPullRequest, nil
	default:
		return EventUnknown, fmt.Errorf("unsupported event type %q", eventType)
	}
}

// JobMessage is one webhook-derived job, normalized by the webhook
// receiver and consumed by the job handler. Organization and Repository
// arrive dot-sanitized and must be decoded with DecodeName before use.
type JobMessage struct {
	InstallationID int64  `json:"installationId"`
	Organization   string `json:"organization"`
	Repository     string `json:"repository"`
	EventID        string `json:"eventId"`
	EventType      string `json:"eventType"`
	TaskGroupID    string `json:"taskGroupId"`
	Details        JobDetails `json:"details"`
}

// JobDetails carries the event-specific payload fields. Exactly one of
// HeadSHA or TagName is set; PullNumber and Login are present only for
// pull-request events.
type JobDetails struct {
	HeadSHA    string `json:"event.head.sha,omitempty"`
	TagName    string `json:"event.version,omitempty"`
	PullNumber int    `json:"event.pullNumber,omitempty"`
	Login      string `json:"event.head.user.login,omitempty"`
}

// TaskState is the closed set of terminal task states reported by the
// task queue.
type TaskState string

const (
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
	TaskException TaskState = "exception"
)

// StatusMessage reports a single task reaching a terminal state.
type StatusMessage struct {
	TaskGroupID string    `json:"taskGroupId"`
	TaskID      string    `json:"taskId"`
	State       TaskState `json:"state"`
}

// StatusEnvelope is the wire form of a status message: the task queue
// nests the fields under a "status" key. Group-status messages arrive
// flat.
type StatusEnvelope struct {
	Status StatusMessage `json:"status"`
}

// GroupStatusMessage reports the resolution of a whole task group.
type GroupStatusMessage struct {
	TaskGroupID string `json:"taskGroupId"`
}

// SanitizeName replaces literal dots in an organization or repository
// name before it is embedded in a queue routing key, where dots are
// separators. The substitution is lossy on purpose: GitHub forbids "%"
// in both names, so the decode is unambiguous.
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, ".", "%")
}

// DecodeName undoes SanitizeName.
func DecodeName(name string) string {
	return strings.ReplaceAll(name, "%", ".")
}
