// Package github provides the per-installation GitHub API surface
// TaskBridge needs: fetching build configs, resolving refs, posting
// comments, and managing check runs.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/go-github/v73/github"
)

// ErrFileNotFound is returned by GetContent when the requested path
// does not exist at the given ref. A missing build config means the
// repository has not opted in; callers skip silently.
var ErrFileNotFound = errors.New("file not found")

// CheckRunRef holds the host-assigned identifiers of a created check
// run. Both are stored as opaque strings in the check-run records.
type CheckRunRef struct {
	CheckSuiteID string
	CheckRunID   string
}

// CheckRunOptions describes a check run to create.
type CheckRunOptions struct {
	Name       string
	HeadSHA    string
	Status     string
	Conclusion string
	Title      string
	Summary    string
	DetailsURL string
}

// CheckRunUpdate describes the completion of an existing check run.
type CheckRunUpdate struct {
	Status      string
	Conclusion  string
	CompletedAt github.Timestamp
}

// Client is the GitHub API surface available to the handlers, scoped
// to one App installation.
//
//go:generate mockgen -destination=../../mocks/mock_github_client.go -package=mocks . Client
type Client interface {
	GetContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	GetShaOfCommitRef(ctx context.Context, owner, repo, ref string) (string, error)
	GetDefaultBranch(ctx context.Context, owner, repo string) (string, error)
	IsCollaborator(ctx context.Context, owner, repo, login string) (bool, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	CreateCommitComment(ctx context.Context, owner, repo, sha, body string) error
	CreateCheckRun(ctx context.Context, owner, repo string, opts CheckRunOptions) (*CheckRunRef, error)
	UpdateCheckRun(ctx context.Context, owner, repo, checkRunID string, update CheckRunUpdate) error
}

type gitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewClient wraps the official go-github client in the focused,
// testable interface the handlers consume.
func NewClient(client *github.Client, logger *slog.Logger) Client {
	return &gitHubClient{client: client, logger: logger}
}

// GetContent fetches one file's decoded content at a ref. A 404 is
// reported as ErrFileNotFound so callers can distinguish "not opted
// in" from an API fault.
func (g *gitHubClient) GetContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	file, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, path,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return "", fmt.Errorf("%s@%s: %w", path, ref, ErrFileNotFound)
		}
		g.logger.Error("failed to fetch file content", "owner", owner, "repo", repo, "path", path, "ref", ref, "error", err)
		return "", err
	}
	if file == nil {
		return "", fmt.Errorf("%s@%s is not a file", path, ref)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode %s@%s: %w", path, ref, err)
	}
	return content, nil
}

// GetShaOfCommitRef resolves a ref (e.g. "tags/v1.2.0") to the commit
// sha it points at, following one level of tag-object indirection.
func (g *gitHubClient) GetShaOfCommitRef(ctx context.Context, owner, repo, ref string) (string, error) {
	gitRef, _, err := g.client.Git.GetRef(ctx, owner, repo, ref)
	if err != nil {
		g.logger.Error("failed to resolve ref", "owner", owner, "repo", repo, "ref", ref, "error", err)
		return "", err
	}
	obj := gitRef.GetObject()
	if obj.GetType() == "tag" {
		tag, _, err := g.client.Git.GetTag(ctx, owner, repo, obj.GetSHA())
		if err != nil {
			g.logger.Error("failed to resolve annotated tag", "owner", owner, "repo", repo, "ref", ref, "error", err)
			return "", err
		}
		return tag.GetObject().GetSHA(), nil
	}
	return obj.GetSHA(), nil
}

// GetDefaultBranch returns the repository's default branch name.
func (g *gitHubClient) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		g.logger.Error("failed to get repository", "owner", owner, "repo", repo, "error", err)
		return "", err
	}
	return r.GetDefaultBranch(), nil
}

// IsCollaborator reports whether login has collaborator access to the
// repository.
func (g *gitHubClient) IsCollaborator(ctx context.Context, owner, repo, login string) (bool, error) {
	ok, _, err := g.client.Repositories.IsCollaborator(ctx, owner, repo, login)
	if err != nil {
		g.logger.Error("failed to check collaborator", "owner", owner, "repo", repo, "login", login, "error", err)
		return false, err
	}
	return ok, nil
}

// CreateIssueComment posts a comment on an issue or pull request.
func (g *gitHubClient) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: &body}
	_, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		g.logger.Error("failed to create issue comment", "owner", owner, "repo", repo, "number", number, "error", err)
	}
	return err
}

// CreateCommitComment posts a comment directly on a commit.
func (g *gitHubClient) CreateCommitComment(ctx context.Context, owner, repo, sha, body string) error {
	comment := &github.RepositoryComment{Body: &body}
	_, _, err := g.client.Repositories.CreateComment(ctx, owner, repo, sha, comment)
	if err != nil {
		g.logger.Error("failed to create commit comment", "owner", owner, "repo", repo, "sha", sha, "error", err)
	}
	return err
}

// CreateCheckRun opens a check run and returns its host-assigned
// identifiers.
func (g *gitHubClient) CreateCheckRun(ctx context.Context, owner, repo string, opts CheckRunOptions) (*CheckRunRef, error) {
	create := github.CreateCheckRunOptions{
		Name:    opts.Name,
		HeadSHA: opts.HeadSHA,
		Status:  github.Ptr(opts.Status),
		Output: &github.CheckRunOutput{
			Title:   &opts.Title,
			Summary: &opts.Summary,
		},
	}
	if opts.DetailsURL != "" {
		create.DetailsURL = &opts.DetailsURL
	}
	if opts.Conclusion != "" {
		create.Conclusion = &opts.Conclusion
	}

	checkRun, _, err := g.client.Checks.CreateCheckRun(ctx, owner, repo, create)
	if err != nil {
		g.logger.Error("failed to create check run", "owner", owner, "repo", repo, "name", opts.Name, "error", err)
		return nil, err
	}
	return &CheckRunRef{
		CheckSuiteID: fmt.Sprintf("%d", checkRun.GetCheckSuite().GetID()),
		CheckRunID:   fmt.Sprintf("%d", checkRun.GetID()),
	}, nil
}

// UpdateCheckRun completes an existing check run by its stored
// identifier.
func (g *gitHubClient) UpdateCheckRun(ctx context.Context, owner, repo, checkRunID string, update CheckRunUpdate) error {
	id, err := parseCheckRunID(checkRunID)
	if err != nil {
		return err
	}
	opts := github.UpdateCheckRunOptions{
		Status:      github.Ptr(update.Status),
		Conclusion:  github.Ptr(update.Conclusion),
		CompletedAt: &update.CompletedAt,
	}
	_, _, err = g.client.Checks.UpdateCheckRun(ctx, owner, repo, id, opts)
	if err != nil {
		g.logger.Error("failed to update check run", "owner", owner, "repo", repo, "check_run_id", checkRunID, "error", err)
	}
	return err
}

// parseCheckRunID converts a stored check-run identifier back to the
// numeric form the API expects. The stores keep it opaque.
func parseCheckRunID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed check run id %q: %w", id, err)
	}
	return n, nil
}
