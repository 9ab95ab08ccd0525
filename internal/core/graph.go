package core

// TaskDefinition is one unit of work to submit to the task queue. The
// payload is passed through opaquely; TaskBridge only cares about
// identity and display metadata.
type TaskDefinition struct {
	TaskID      string         `json:"taskId"`
	TaskGroupID string         `json:"taskGroupId"`
	Name        string         `json:"name"`
	SchedulerID string         `json:"schedulerId"`
	Payload     map[string]any `json:"payload"`
}

// TaskGraph is the result of compiling a repository's build config
// against one webhook event: the tasks to submit and the scopes the
// submission is restricted to.
type TaskGraph struct {
	TaskGroupID string
	Scopes      []string
	Tasks       []TaskDefinition
}
