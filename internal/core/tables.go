package core

// CheckConclusion is a GitHub check-run conclusion.
type CheckConclusion string

const (
	ConclusionSuccess CheckConclusion = "success"
	ConclusionFailure CheckConclusion = "failure"
)

// ConclusionForState maps a terminal task state onto the check-run
// conclusion shown on GitHub. The table is fixed, not configurable.
func ConclusionForState(state TaskState) CheckConclusion {
	switch state {
	case TaskCompleted:
		return ConclusionSuccess
	default:
		// failed and exception both surface as a failed check.
		return ConclusionFailure
	}
}

// CheckTitleFor returns the human-readable check-run title for a build
// outcome at submission time. Check runs are only opened as queued or
// as failed submissions.
func CheckTitleFor(state BuildState) string {
	if state == BuildQueued {
		return "Task Queued"
	}
	return "Task Submission Failed"
}
