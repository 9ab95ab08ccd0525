// Package handlers implements the TaskBridge event-handling pipeline:
// the job handler that turns webhook events into submitted task
// groups, and the status handlers that reflect task outcomes back
// onto GitHub check runs.
package handlers

import (
	"fmt"

	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/github"
	"github.com/taskbridge/taskbridge/internal/storage"
	"github.com/taskbridge/taskbridge/internal/tasks"
)

// Deps bundles the collaborators shared by the handlers. Every handler
// invocation receives its dependencies explicitly; there are no
// ambient singletons.
type Deps struct {
	Cfg    *config.Config
	Builds storage.BuildStore
	Checks storage.CheckRunStore
	GitHub github.ClientFactory
	Queue  tasks.Client
}

func (d *Deps) validate() error {
	switch {
	case d.Cfg == nil:
		return fmt.Errorf("config cannot be nil")
	case d.Builds == nil:
		return fmt.Errorf("build store cannot be nil")
	case d.Checks == nil:
		return fmt.Errorf("check run store cannot be nil")
	case d.GitHub == nil:
		return fmt.Errorf("github client factory cannot be nil")
	case d.Queue == nil:
		return fmt.Errorf("task queue client cannot be nil")
	}
	return nil
}

// detailsURL builds the check-run details link for one task.
func detailsURL(rootURL, taskGroupID, taskID string) string {
	return fmt.Sprintf("%s/task-groups/%s/tasks/%s", rootURL, taskGroupID, taskID)
}
