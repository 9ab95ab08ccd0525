package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskbridge/taskbridge/internal/core"
)

type buildStore struct {
	db *sqlx.DB
}

// NewBuildStore creates a Postgres-backed BuildStore.
func NewBuildStore(db *sqlx.DB) BuildStore {
	return &buildStore{db: db}
}

func (s *buildStore) Load(ctx context.Context, taskGroupID string) (*core.Build, error) {
	var b core.Build
	err := s.db.GetContext(ctx, &b,
		`SELECT task_group_id, organization, repository, sha, state, created, updated, installation_id, event_type, event_id
		 FROM builds WHERE task_group_id = $1`, taskGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("build %s: %w", taskGroupID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load build %s: %w", taskGroupID, err)
	}
	return &b, nil
}

func (s *buildStore) Create(ctx context.Context, build *core.Build) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO builds (task_group_id, organization, repository, sha, state, created, updated, installation_id, event_type, event_id)
		 VALUES (:task_group_id, :organization, :repository, :sha, :state, :created, :updated, :installation_id, :event_type, :event_id)`,
		build)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("build %s: %w", build.TaskGroupID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create build %s: %w", build.TaskGroupID, err)
	}
	return nil
}

// Modify locks the row with SELECT ... FOR UPDATE so that racing
// handlers (duplicate deliveries, or status vs. group-status on the
// same build) serialize their read-modify-write cycles.
func (s *buildStore) Modify(ctx context.Context, taskGroupID string, mutate func(*core.Build)) (*core.Build, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var b core.Build
	err = tx.GetContext(ctx, &b,
		`SELECT task_group_id, organization, repository, sha, state, created, updated, installation_id, event_type, event_id
		 FROM builds WHERE task_group_id = $1 FOR UPDATE`, taskGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("build %s: %w", taskGroupID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load build %s for update: %w", taskGroupID, err)
	}

	mutate(&b)

	_, err = tx.NamedExecContext(ctx,
		`UPDATE builds SET state = :state, updated = :updated WHERE task_group_id = :task_group_id`,
		&b)
	if err != nil {
		return nil, fmt.Errorf("failed to update build %s: %w", taskGroupID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit build update %s: %w", taskGroupID, err)
	}
	return &b, nil
}
