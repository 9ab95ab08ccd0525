package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskbridge/taskbridge/internal/core"
)

// GroupStatusHandler reacts to a task group resolving: it aggregates
// the member tasks' outcomes and finalizes the build record.
type GroupStatusHandler struct {
	deps   *Deps
	logger *slog.Logger
	now    func() time.Time
}

// NewGroupStatusHandler creates a GroupStatusHandler.
func NewGroupStatusHandler(deps *Deps, logger *slog.Logger) (*GroupStatusHandler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &GroupStatusHandler{deps: deps, logger: logger, now: time.Now}, nil
}

// Handle computes the aggregate outcome of the group and applies it to
// the build record. Failure is sticky: a record already marked failed
// is never overturned, which keeps racing status and group-status
// deliveries from flipping a failed build back to success.
func (h *GroupStatusHandler) Handle(ctx context.Context, msg *core.GroupStatusMessage) error {
	if _, err := h.deps.Builds.Load(ctx, msg.TaskGroupID); err != nil {
		return fmt.Errorf("group status for unknown build: %w", err)
	}

	outcome, err := h.aggregateOutcome(ctx, msg.TaskGroupID)
	if err != nil {
		return err
	}

	build, err := h.deps.Builds.Modify(ctx, msg.TaskGroupID, func(b *core.Build) {
		if b.State == core.BuildFailure {
			return
		}
		b.State = outcome
		b.Updated = h.now().UTC()
	})
	if err != nil {
		return fmt.Errorf("failed to finalize build %s: %w", msg.TaskGroupID, err)
	}

	h.logger.Info("build finalized",
		"task_group_id", msg.TaskGroupID, "aggregate", outcome, "state", build.State)
	return nil
}

// aggregateOutcome pages through the group's member tasks. Any failed
// or exception task makes the whole group a failure.
func (h *GroupStatusHandler) aggregateOutcome(ctx context.Context, taskGroupID string) (core.BuildState, error) {
	token := ""
	for {
		page, err := h.deps.Queue.ListTaskGroup(ctx, taskGroupID, token)
		if err != nil {
			return "", fmt.Errorf("failed to list task group %s: %w", taskGroupID, err)
		}
		for _, task := range page.Tasks {
			if task.State == core.TaskFailed || task.State == core.TaskException {
				return core.BuildFailure, nil
			}
		}
		if page.ContinuationToken == "" {
			return core.BuildSuccess, nil
		}
		token = page.ContinuationToken
	}
}
