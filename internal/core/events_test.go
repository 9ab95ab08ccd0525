package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		want      EventKind
		wantErr   bool
	}{
		{name: "push", eventType: "push", want: EventPush},
		{name: "tag", eventType: "tag", want: EventTag},
		{name: "release with action", eventType: "release.published", want: EventRelease},
		{name: "pull request with action", eventType: "pull_request.opened", want: EventPullRequest},
		{name: "pull request synchronize", eventType: "pull_request.synchronize", want: EventPullRequest},
		{name: "unknown family", eventType: "deployment.created", wantErr: true},
		{name: "empty", eventType: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEventKind(tt.eventType)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNameSanitization(t *testing.T) {
	tests := []struct {
		name      string
		decoded   string
		sanitized string
	}{
		{name: "no dots", decoded: "octocat", sanitized: "octocat"},
		{name: "one dot", decoded: "my.repo", sanitized: "my%repo"},
		{name: "many dots", decoded: "a.b.c", sanitized: "a%b%c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sanitized, SanitizeName(tt.decoded))
			assert.Equal(t, tt.decoded, DecodeName(tt.sanitized))
		})
	}
}

func TestStatusEnvelopeWireShape(t *testing.T) {
	raw := `{"status": {"taskGroupId": "tg-1", "taskId": "t1", "state": "exception"}}`

	var envelope StatusEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))

	assert.Equal(t, "tg-1", envelope.Status.TaskGroupID)
	assert.Equal(t, "t1", envelope.Status.TaskID)
	assert.Equal(t, TaskException, envelope.Status.State)
}

func TestConclusionForState(t *testing.T) {
	assert.Equal(t, ConclusionSuccess, ConclusionForState(TaskCompleted))
	assert.Equal(t, ConclusionFailure, ConclusionForState(TaskFailed))
	assert.Equal(t, ConclusionFailure, ConclusionForState(TaskException))
}

func TestCheckTitleFor(t *testing.T) {
	assert.Equal(t, "Task Queued", CheckTitleFor(BuildQueued))
	assert.Equal(t, "Task Submission Failed", CheckTitleFor(BuildFailure))
}

func TestBuildMatches(t *testing.T) {
	base := &Build{
		TaskGroupID:  "tg-1",
		Organization: "octo",
		Repository:   "repo",
		SHA:          "abc123",
		State:        BuildQueued,
		EventType:    "push",
		EventID:      "ev-1",
	}

	same := *base
	assert.True(t, base.Matches(&same))

	diverged := *base
	diverged.SHA = "def456"
	assert.False(t, base.Matches(&diverged))
}
