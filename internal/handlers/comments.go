package handlers

import (
	"fmt"
)

// The comment bodies below are the only user-visible error surface of
// the pipeline. Everything else fails invisibly and is retried by
// redelivery.

func configErrorComment(path string, err error) string {
	return fmt.Sprintf(
		"**TaskBridge could not process `%s`**\n\n```\n%v\n```\n\nFix the file and push again to retry.",
		path, err)
}

func permissionDeniedComment(login, path string) string {
	return fmt.Sprintf(
		"**TaskBridge did not start any tasks for this pull request.**\n\n"+
			"The `allowPullRequests` policy in `%s` on the default branch does not permit submissions from @%s. "+
			"A collaborator can set `allowPullRequests: public` to allow everyone.",
		path, login)
}

func policyConfigErrorComment(path string, err error) string {
	return fmt.Sprintf(
		"**TaskBridge could not evaluate the pull-request policy.**\n\n"+
			"`%s` on the default branch failed to parse:\n\n```\n%v\n```\n\n"+
			"See the TaskBridge documentation on `allowPullRequests` for the expected format.",
		path, err)
}

func submissionFailedComment(err error) string {
	return fmt.Sprintf(
		"**TaskBridge failed to submit tasks for this event.**\n\n```\n%v\n```",
		err)
}
