// Package tasks implements the client for the distributed
// job-execution platform ("the task queue"): task submission under
// restricted scopes and task-group listing with pagination.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/core"
)

// TaskStatus is one member task's state in a task-group listing.
type TaskStatus struct {
	TaskID string         `json:"taskId"`
	State  core.TaskState `json:"state"`
}

// TaskGroupPage is one page of a task-group listing. A non-empty
// ContinuationToken means more pages follow.
type TaskGroupPage struct {
	Tasks             []TaskStatus `json:"tasks"`
	ContinuationToken string       `json:"continuationToken,omitempty"`
}

// Client is the task-queue surface the handlers consume.
type Client interface {
	// CreateTask submits one task, restricted to the given scopes.
	CreateTask(ctx context.Context, task *core.TaskDefinition, scopes []string) error
	// ListTaskGroup returns one page of the group's member tasks. Pass
	// an empty continuation token for the first page.
	ListTaskGroup(ctx context.Context, taskGroupID, continuationToken string) (*TaskGroupPage, error)
}

type httpClient struct {
	baseURL     string
	clientID    string
	accessToken string
	http        *http.Client
	logger      *slog.Logger
}

// NewClient creates an HTTP task-queue client from the process
// configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	return &httpClient{
		baseURL:     cfg.TaskQueueAPIURL,
		clientID:    cfg.TaskQueueClientID,
		accessToken: cfg.TaskQueueAccessToken,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

type createTaskRequest struct {
	Task   *core.TaskDefinition `json:"task"`
	Scopes []string             `json:"scopes"`
}

func (c *httpClient) CreateTask(ctx context.Context, task *core.TaskDefinition, scopes []string) error {
	body, err := json.Marshal(createTaskRequest{Task: task, Scopes: scopes})
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.TaskID, err)
	}

	endpoint := fmt.Sprintf("%s/tasks/%s", c.baseURL, url.PathEscape(task.TaskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build create-task request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create task %s: %w", task.TaskID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("create task %s: %s", task.TaskID, responseError(resp))
	}
	c.logger.Debug("task created", "task_id", task.TaskID, "task_group_id", task.TaskGroupID)
	return nil
}

func (c *httpClient) ListTaskGroup(ctx context.Context, taskGroupID, continuationToken string) (*TaskGroupPage, error) {
	endpoint := fmt.Sprintf("%s/task-groups/%s/tasks", c.baseURL, url.PathEscape(taskGroupID))
	if continuationToken != "" {
		endpoint += "?continuationToken=" + url.QueryEscape(continuationToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build list-task-group request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list task group %s: %w", taskGroupID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list task group %s: %s", taskGroupID, responseError(resp))
	}

	var page TaskGroupPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode task group %s listing: %w", taskGroupID, err)
	}
	return &page, nil
}

func (c *httpClient) authorize(req *http.Request) {
	req.Header.Set("X-Client-Id", c.clientID)
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
}

// responseError summarizes a non-2xx response without trusting the
// body to be small or structured.
func responseError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(body) == 0 {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, body)
}
