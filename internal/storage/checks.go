package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskbridge/taskbridge/internal/core"
)

type checkRunStore struct {
	db *sqlx.DB
}

// NewCheckRunStore creates a Postgres-backed CheckRunStore.
func NewCheckRunStore(db *sqlx.DB) CheckRunStore {
	return &checkRunStore{db: db}
}

func (s *checkRunStore) Load(ctx context.Context, taskGroupID, taskID string) (*core.CheckRun, error) {
	var r core.CheckRun
	err := s.db.GetContext(ctx, &r,
		`SELECT task_group_id, task_id, check_suite_id, check_run_id
		 FROM check_runs WHERE task_group_id = $1 AND task_id = $2`, taskGroupID, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check run %s/%s: %w", taskGroupID, taskID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load check run %s/%s: %w", taskGroupID, taskID, err)
	}
	return &r, nil
}

func (s *checkRunStore) Create(ctx context.Context, run *core.CheckRun) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO check_runs (task_group_id, task_id, check_suite_id, check_run_id)
		 VALUES (:task_group_id, :task_id, :check_suite_id, :check_run_id)`,
		run)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("check run %s/%s: %w", run.TaskGroupID, run.TaskID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create check run %s/%s: %w", run.TaskGroupID, run.TaskID, err)
	}
	return nil
}
