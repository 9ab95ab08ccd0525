package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gogithub "github.com/google/go-github/v73/github"

	"github.com/taskbridge/taskbridge/internal/core"
	"github.com/taskbridge/taskbridge/internal/github"
)

// StatusHandler reacts to a single task reaching a terminal state and
// completes the corresponding check run.
type StatusHandler struct {
	deps   *Deps
	logger *slog.Logger
	now    func() time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(deps *Deps, logger *slog.Logger) (*StatusHandler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &StatusHandler{deps: deps, logger: logger, now: time.Now}, nil
}

// Handle updates the check run recorded for the task. Both records
// must exist: the job handler creates them before any task can reach a
// terminal state, so absence is a fault, not a skip.
func (h *StatusHandler) Handle(ctx context.Context, msg *core.StatusMessage) error {
	build, err := h.deps.Builds.Load(ctx, msg.TaskGroupID)
	if err != nil {
		return fmt.Errorf("status for unknown build: %w", err)
	}

	check, err := h.deps.Checks.Load(ctx, msg.TaskGroupID, msg.TaskID)
	if err != nil {
		return fmt.Errorf("status for unknown check run: %w", err)
	}

	gh, err := h.deps.GitHub.ForInstallation(ctx, build.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to authenticate installation %d: %w", build.InstallationID, err)
	}

	conclusion := core.ConclusionForState(msg.State)
	err = gh.UpdateCheckRun(ctx, build.Organization, build.Repository, check.CheckRunID, github.CheckRunUpdate{
		Status:      "completed",
		Conclusion:  string(conclusion),
		CompletedAt: gogithub.Timestamp{Time: h.now().UTC()},
	})
	if err != nil {
		// A missed update leaves the GitHub UI stale; propagate so
		// redelivery retries it.
		return fmt.Errorf("failed to complete check run %s: %w", check.CheckRunID, err)
	}

	h.logger.Info("check run completed",
		"task_group_id", msg.TaskGroupID, "task_id", msg.TaskID,
		"state", msg.State, "conclusion", conclusion)
	return nil
}
