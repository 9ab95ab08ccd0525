package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskbridge/taskbridge/internal/core"
	"github.com/taskbridge/taskbridge/internal/github"
	"github.com/taskbridge/taskbridge/internal/intree"
)

// policyConfigError marks a build config on the default branch that
// could not be parsed while evaluating the pull-request policy. It
// gets a distinct user-facing comment pointing at the docs.
type policyConfigError struct {
	cause error
}

func (e *policyConfigError) Error() string {
	return fmt.Sprintf("default branch build config is invalid: %v", e.cause)
}

// pullRequestAllowed decides whether a pull-request author may submit
// tasks. The policy is always read from the default branch, not the PR
// head, so a PR cannot grant itself permission.
func pullRequestAllowed(ctx context.Context, gh github.Client, org, repo, configPath, login string) (bool, error) {
	branch, err := gh.GetDefaultBranch(ctx, org, repo)
	if err != nil {
		return false, err
	}

	policy := intree.PolicyCollaborators
	raw, err := gh.GetContent(ctx, org, repo, configPath, branch)
	switch {
	case errors.Is(err, github.ErrFileNotFound):
		// No config on the default branch yet; fall back to the
		// collaborators-only default.
	case err != nil:
		return false, err
	default:
		cfg, perr := intree.ParseConfig(raw)
		if perr != nil {
			var cfgErr *core.ConfigError
			if errors.As(perr, &cfgErr) {
				return false, &policyConfigError{cause: cfgErr}
			}
			return false, perr
		}
		policy = cfg.AllowPullRequests()
	}

	switch policy {
	case intree.PolicyPublic:
		return true, nil
	case intree.PolicyCollaborators:
		if login == "" {
			return false, nil
		}
		return gh.IsCollaborator(ctx, org, repo, login)
	default:
		return false, &policyConfigError{cause: core.NewConfigError("unknown allowPullRequests policy %q", policy)}
	}
}
