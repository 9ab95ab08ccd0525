package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskbridge/taskbridge/internal/core"
	"github.com/taskbridge/taskbridge/internal/github"
	"github.com/taskbridge/taskbridge/internal/intree"
	"github.com/taskbridge/taskbridge/internal/storage"
)

// JobHandler orchestrates one webhook-derived job: fetch the in-tree
// config, compile it, check permissions, submit the task graph, open
// check runs, and persist the build record.
type JobHandler struct {
	deps   *Deps
	logger *slog.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(deps *Deps, logger *slog.Logger) (*JobHandler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &JobHandler{deps: deps, logger: logger}, nil
}

// Handle processes one job message. A nil return acknowledges the
// message as done; returned errors are transient faults that rely on
// redelivery. User-configuration failures are surfaced as GitHub
// comments and return nil, since retrying cannot fix them.
func (h *JobHandler) Handle(ctx context.Context, msg *core.JobMessage) error {
	org := core.DecodeName(msg.Organization)
	repo := core.DecodeName(msg.Repository)

	kind, err := core.ParseEventKind(msg.EventType)
	if err != nil {
		return fmt.Errorf("job %s: %w", msg.EventID, err)
	}

	log := h.logger.With("event_id", msg.EventID, "event_type", msg.EventType,
		"org", org, "repo", repo, "task_group_id", msg.TaskGroupID)

	gh, err := h.deps.GitHub.ForInstallation(ctx, msg.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to authenticate installation %d: %w", msg.InstallationID, err)
	}

	sha := msg.Details.HeadSHA
	if sha == "" {
		sha, err = gh.GetShaOfCommitRef(ctx, org, repo, "tags/"+msg.Details.TagName)
		if err != nil {
			return fmt.Errorf("failed to resolve tag %q: %w", msg.Details.TagName, err)
		}
	}

	raw, err := gh.GetContent(ctx, org, repo, h.deps.Cfg.BuildConfigPath, sha)
	if err != nil {
		if errors.Is(err, github.ErrFileNotFound) {
			// Not opted in. No comment, no record.
			log.Debug("no build config in repository, skipping")
			return nil
		}
		return fmt.Errorf("failed to fetch build config: %w", err)
	}

	repoCfg, err := intree.ParseConfig(raw)
	if err != nil {
		return h.reportConfigError(ctx, gh, msg, org, repo, sha, err)
	}

	graph, err := intree.Compile(repoCfg, intree.CompileInput{
		Organization: org,
		Repository:   repo,
		EventKind:    kind,
		TaskGroupID:  msg.TaskGroupID,
		SchedulerID:  h.deps.Cfg.SchedulerID,
	})
	if err != nil {
		return h.reportConfigError(ctx, gh, msg, org, repo, sha, err)
	}
	if len(graph.Tasks) == 0 {
		// Opted out for this event type.
		log.Debug("build config compiled to zero tasks, skipping")
		return nil
	}

	if kind == core.EventPullRequest {
		done, err := h.checkPullRequestPermission(ctx, gh, msg, org, repo, sha)
		if err != nil || done {
			return err
		}
	}

	// Phase 1: submit the task graph. A submission failure flips the
	// outcome but never skips phase 2's bookkeeping, not even when
	// reporting the failure fails too.
	state := core.BuildQueued
	var reportErr error
	if err := h.submitTasks(ctx, graph); err != nil {
		log.Error("task submission failed", "error", err)
		state = core.BuildFailure
		if cerr := h.postComment(ctx, gh, msg, org, repo, sha, submissionFailedComment(err)); cerr != nil {
			reportErr = fmt.Errorf("failed to report submission failure: %w", cerr)
		}
	}

	// Phase 2: open check runs and persist records using the captured
	// outcome, regardless of how phase 1 went.
	if err := h.openCheckRuns(ctx, gh, org, repo, sha, graph, state); err != nil {
		return err
	}
	if err := h.persistBuild(ctx, msg, org, repo, sha, state); err != nil {
		return err
	}
	if reportErr != nil {
		// Redelivery retries the comment against the records above,
		// which are idempotent.
		return reportErr
	}

	log.Info("job processed", "state", state, "tasks", len(graph.Tasks))
	return nil
}

// reportConfigError posts the user-facing comment for a non-retryable
// configuration failure. Transient faults take a different path and
// never reach it.
func (h *JobHandler) reportConfigError(ctx context.Context, gh github.Client, msg *core.JobMessage, org, repo, sha string, err error) error {
	var cfgErr *core.ConfigError
	if !errors.As(err, &cfgErr) {
		return err
	}
	h.logger.Info("user configuration error", "event_id", msg.EventID, "error", err)
	body := configErrorComment(h.deps.Cfg.BuildConfigPath, cfgErr)
	if cerr := h.postComment(ctx, gh, msg, org, repo, sha, body); cerr != nil {
		return fmt.Errorf("failed to report config error: %w", cerr)
	}
	return nil
}

// checkPullRequestPermission evaluates the allowPullRequests policy
// for the PR author. done is true when the message is finished, either
// because the author is denied or the policy itself is broken; both
// produce a comment and no tasks.
func (h *JobHandler) checkPullRequestPermission(ctx context.Context, gh github.Client, msg *core.JobMessage, org, repo, sha string) (done bool, err error) {
	allowed, err := pullRequestAllowed(ctx, gh, org, repo, h.deps.Cfg.BuildConfigPath, msg.Details.Login)
	if err != nil {
		var policyErr *policyConfigError
		if errors.As(err, &policyErr) {
			body := policyConfigErrorComment(h.deps.Cfg.BuildConfigPath, policyErr.cause)
			if cerr := h.postComment(ctx, gh, msg, org, repo, sha, body); cerr != nil {
				return true, fmt.Errorf("failed to report policy config error: %w", cerr)
			}
			return true, nil
		}
		return true, fmt.Errorf("failed to evaluate pull-request policy: %w", err)
	}
	if !allowed {
		h.logger.Info("pull request not permitted", "event_id", msg.EventID, "login", msg.Details.Login)
		body := permissionDeniedComment(msg.Details.Login, h.deps.Cfg.BuildConfigPath)
		if cerr := h.postComment(ctx, gh, msg, org, repo, sha, body); cerr != nil {
			return true, fmt.Errorf("failed to report permission denial: %w", cerr)
		}
		return true, nil
	}
	return false, nil
}

// submitTasks creates every task of the graph under its compiled
// scopes.
func (h *JobHandler) submitTasks(ctx context.Context, graph *core.TaskGraph) error {
	for i := range graph.Tasks {
		if err := h.deps.Queue.CreateTask(ctx, &graph.Tasks[i], graph.Scopes); err != nil {
			return err
		}
	}
	return nil
}

// openCheckRuns creates one check run per task, reflecting the
// submission outcome, and records the (task group, task) mapping.
// Creation races on the record store are swallowed.
func (h *JobHandler) openCheckRuns(ctx context.Context, gh github.Client, org, repo, sha string, graph *core.TaskGraph, state core.BuildState) error {
	opts := github.CheckRunOptions{
		HeadSHA: sha,
		Status:  "queued",
		Title:   core.CheckTitleFor(state),
	}
	if state == core.BuildFailure {
		opts.Status = "completed"
		opts.Conclusion = string(core.ConclusionFailure)
	}

	for _, task := range graph.Tasks {
		opts.Name = task.Name
		opts.DetailsURL = detailsURL(h.deps.Cfg.TaskQueueRootURL, graph.TaskGroupID, task.TaskID)
		ref, err := gh.CreateCheckRun(ctx, org, repo, opts)
		if err != nil {
			return fmt.Errorf("failed to create check run for task %s: %w", task.TaskID, err)
		}

		err = h.deps.Checks.Create(ctx, &core.CheckRun{
			TaskGroupID:  graph.TaskGroupID,
			TaskID:       task.TaskID,
			CheckSuiteID: ref.CheckSuiteID,
			CheckRunID:   ref.CheckRunID,
		})
		if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

// persistBuild creates the build record. A duplicate delivery finds
// the record already there; the stored record must then match the
// recomputed one exactly, or the store has been corrupted.
func (h *JobHandler) persistBuild(ctx context.Context, msg *core.JobMessage, org, repo, sha string, state core.BuildState) error {
	now := time.Now().UTC()
	build := &core.Build{
		TaskGroupID:    msg.TaskGroupID,
		Organization:   org,
		Repository:     repo,
		SHA:            sha,
		State:          state,
		Created:        now,
		Updated:        now,
		InstallationID: msg.InstallationID,
		EventType:      msg.EventType,
		EventID:        msg.EventID,
	}

	err := h.deps.Builds.Create(ctx, build)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}

	existing, err := h.deps.Builds.Load(ctx, msg.TaskGroupID)
	if err != nil {
		return fmt.Errorf("failed to load duplicate build record: %w", err)
	}
	if !existing.Matches(build) {
		return &core.CorruptionError{TaskGroupID: msg.TaskGroupID, Stored: existing, Computed: build}
	}
	return nil
}

// postComment attaches a comment to the pull request when the message
// carries a PR number, else to the triggering commit.
func (h *JobHandler) postComment(ctx context.Context, gh github.Client, msg *core.JobMessage, org, repo, sha, body string) error {
	if msg.Details.PullNumber > 0 {
		return gh.CreateIssueComment(ctx, org, repo, msg.Details.PullNumber, body)
	}
	return gh.CreateCommitComment(ctx, org, repo, sha, body)
}
