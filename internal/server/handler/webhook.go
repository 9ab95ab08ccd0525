// Package handler provides the HTTP handlers of the webhook receiver.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/go-github/v73/github"
	"github.com/google/uuid"

	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/core"
)

// WebhookHandler validates GitHub webhooks and publishes normalized
// job messages to the jobs topic.
type WebhookHandler struct {
	cfg       *config.Config
	publisher message.Publisher
	logger    *slog.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(cfg *config.Config, publisher message.Publisher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, publisher: publisher, logger: logger}
}

// Handle processes one GitHub webhook request.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, []byte(h.cfg.GitHubWebhookSecret))
	if err != nil {
		h.logger.Error("invalid webhook payload signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook", "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	eventID := github.DeliveryID(r)
	job, err := h.jobFromEvent(event, eventID)
	if err != nil {
		h.logger.Debug("ignoring webhook event", "type", github.WebHookType(r), "reason", err)
		_, _ = fmt.Fprint(w, "Event not handled")
		return
	}

	if err := h.publish(job); err != nil {
		h.logger.Error("failed to publish job message", "error", err, "event_id", eventID)
		http.Error(w, "Failed to enqueue job", http.StatusInternalServerError)
		return
	}

	h.logger.Info("job message published",
		"event_id", job.EventID, "event_type", job.EventType, "task_group_id", job.TaskGroupID)
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprint(w, "Job accepted")
}

// jobFromEvent normalizes a webhook event into a job message. Events
// outside the supported families are rejected with a reason.
func (h *WebhookHandler) jobFromEvent(event any, eventID string) (*core.JobMessage, error) {
	switch e := event.(type) {
	case *github.PushEvent:
		return h.jobFromPush(e, eventID)
	case *github.PullRequestEvent:
		return h.jobFromPullRequest(e, eventID)
	case *github.ReleaseEvent:
		return h.jobFromRelease(e, eventID)
	default:
		return nil, fmt.Errorf("unsupported event type")
	}
}

func (h *WebhookHandler) jobFromPush(e *github.PushEvent, eventID string) (*core.JobMessage, error) {
	org := e.GetRepo().GetOwner().GetLogin()
	repo := e.GetRepo().GetName()
	if org == "" || repo == "" {
		return nil, fmt.Errorf("repository information is missing")
	}
	if e.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing")
	}

	job := h.newJob(e.GetInstallation().GetID(), org, repo, eventID)
	if tag, ok := strings.CutPrefix(e.GetRef(), "refs/tags/"); ok {
		job.EventType = "tag"
		job.Details.TagName = tag
	} else {
		job.EventType = "push"
		job.Details.HeadSHA = e.GetHeadCommit().GetID()
		if job.Details.HeadSHA == "" {
			return nil, fmt.Errorf("push has no head commit")
		}
	}
	return job, nil
}

func (h *WebhookHandler) jobFromPullRequest(e *github.PullRequestEvent, eventID string) (*core.JobMessage, error) {
	switch e.GetAction() {
	case "opened", "reopened", "synchronize":
	default:
		return nil, fmt.Errorf("pull request action %q is not handled", e.GetAction())
	}
	org := e.GetRepo().GetOwner().GetLogin()
	repo := e.GetRepo().GetName()
	if org == "" || repo == "" {
		return nil, fmt.Errorf("repository information is missing")
	}
	if e.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing")
	}
	pr := e.GetPullRequest()
	if pr.GetHead().GetSHA() == "" {
		return nil, fmt.Errorf("pull request has no head sha")
	}

	job := h.newJob(e.GetInstallation().GetID(), org, repo, eventID)
	job.EventType = "pull_request." + e.GetAction()
	job.Details.HeadSHA = pr.GetHead().GetSHA()
	job.Details.PullNumber = pr.GetNumber()
	job.Details.Login = pr.GetUser().GetLogin()
	return job, nil
}

func (h *WebhookHandler) jobFromRelease(e *github.ReleaseEvent, eventID string) (*core.JobMessage, error) {
	if e.GetAction() != "published" {
		return nil, fmt.Errorf("release action %q is not handled", e.GetAction())
	}
	org := e.GetRepo().GetOwner().GetLogin()
	repo := e.GetRepo().GetName()
	if org == "" || repo == "" {
		return nil, fmt.Errorf("repository information is missing")
	}
	if e.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing")
	}

	job := h.newJob(e.GetInstallation().GetID(), org, repo, eventID)
	job.EventType = "release.published"
	job.Details.TagName = e.GetRelease().GetTagName()
	return job, nil
}

func (h *WebhookHandler) newJob(installationID int64, org, repo, eventID string) *core.JobMessage {
	return &core.JobMessage{
		InstallationID: installationID,
		Organization:   core.SanitizeName(org),
		Repository:     core.SanitizeName(repo),
		EventID:        eventID,
		TaskGroupID:    uuid.NewString(),
	}
}

func (h *WebhookHandler) publish(job *core.JobMessage) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job message: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return h.publisher.Publish(h.cfg.TopicJobs, msg)
}
