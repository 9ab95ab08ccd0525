package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/core"
	"github.com/taskbridge/taskbridge/internal/tasks"
	"github.com/taskbridge/taskbridge/mocks"
)

type groupFixture struct {
	handler *GroupStatusHandler
	builds  *memBuildStore
	queue   *fakeQueue
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	factory := mocks.NewMockClientFactory(ctrl)

	builds := newMemBuildStore()
	queue := &fakeQueue{}

	deps := &Deps{
		Cfg:    &config.Config{SchedulerID: "taskbridge", TaskQueueRootURL: "https://tasks.example.com"},
		Builds: builds,
		Checks: newMemCheckRunStore(),
		GitHub: factory,
		Queue:  queue,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler, err := NewGroupStatusHandler(deps, logger)
	require.NoError(t, err)
	handler.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return &groupFixture{handler: handler, builds: builds, queue: queue}
}

func (f *groupFixture) seed(t *testing.T, state core.BuildState) {
	t.Helper()
	require.NoError(t, f.builds.Create(context.Background(), &core.Build{
		TaskGroupID:    "tg-1",
		Organization:   "octo",
		Repository:     "widgets",
		SHA:            "abc123",
		State:          state,
		InstallationID: 42,
		EventType:      "push",
		EventID:        "ev-1",
	}))
}

func groupMsg() *core.GroupStatusMessage {
	return &core.GroupStatusMessage{TaskGroupID: "tg-1"}
}

func TestGroupStatusHandler_AllCompletedIsSuccess(t *testing.T) {
	f := newGroupFixture(t)
	f.seed(t, core.BuildQueued)
	f.queue.pages = []tasks.TaskGroupPage{{
		Tasks: []tasks.TaskStatus{
			{TaskID: "t1", State: core.TaskCompleted},
			{TaskID: "t2", State: core.TaskCompleted},
		},
	}}

	require.NoError(t, f.handler.Handle(context.Background(), groupMsg()))

	build, err := f.builds.Load(context.Background(), "tg-1")
	require.NoError(t, err)
	assert.Equal(t, core.BuildSuccess, build.State)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), build.Updated)
}

func TestGroupStatusHandler_AnyFailureFailsTheGroup(t *testing.T) {
	for _, bad := range []core.TaskState{core.TaskFailed, core.TaskException} {
		t.Run(string(bad), func(t *testing.T) {
			f := newGroupFixture(t)
			f.seed(t, core.BuildQueued)
			f.queue.pages = []tasks.TaskGroupPage{{
				Tasks: []tasks.TaskStatus{
					{TaskID: "t1", State: core.TaskCompleted},
					{TaskID: "t2", State: bad},
				},
			}}

			require.NoError(t, f.handler.Handle(context.Background(), groupMsg()))

			build, err := f.builds.Load(context.Background(), "tg-1")
			require.NoError(t, err)
			assert.Equal(t, core.BuildFailure, build.State)
		})
	}
}

func TestGroupStatusHandler_PagesThroughLargeGroups(t *testing.T) {
	f := newGroupFixture(t)
	f.seed(t, core.BuildQueued)
	f.queue.pages = []tasks.TaskGroupPage{
		{Tasks: []tasks.TaskStatus{{TaskID: "t1", State: core.TaskCompleted}}},
		{Tasks: []tasks.TaskStatus{{TaskID: "t2", State: core.TaskCompleted}}},
		{Tasks: []tasks.TaskStatus{{TaskID: "t3", State: core.TaskFailed}}},
	}

	require.NoError(t, f.handler.Handle(context.Background(), groupMsg()))

	build, err := f.builds.Load(context.Background(), "tg-1")
	require.NoError(t, err)
	assert.Equal(t, core.BuildFailure, build.State)
}

func TestGroupStatusHandler_FailureIsSticky(t *testing.T) {
	f := newGroupFixture(t)
	f.seed(t, core.BuildFailure)
	f.queue.pages = []tasks.TaskGroupPage{{
		Tasks: []tasks.TaskStatus{{TaskID: "t1", State: core.TaskCompleted}},
	}}

	require.NoError(t, f.handler.Handle(context.Background(), groupMsg()))

	build, err := f.builds.Load(context.Background(), "tg-1")
	require.NoError(t, err)
	assert.Equal(t, core.BuildFailure, build.State)
}

func TestGroupStatusHandler_UnknownBuildIsAnError(t *testing.T) {
	f := newGroupFixture(t)

	err := f.handler.Handle(context.Background(), groupMsg())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown build")
}

func TestGroupStatusHandler_ListFailurePropagates(t *testing.T) {
	f := newGroupFixture(t)
	f.seed(t, core.BuildQueued)
	f.queue.listErr = errors.New("task queue is down")

	err := f.handler.Handle(context.Background(), groupMsg())
	require.Error(t, err)

	// The record stays untouched for the redelivery to finish.
	build, lerr := f.builds.Load(context.Background(), "tg-1")
	require.NoError(t, lerr)
	assert.Equal(t, core.BuildQueued, build.State)
}
