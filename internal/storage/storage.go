// Package storage implements the durable record stores backing the
// TaskBridge pipeline: one Build record per task group and one
// CheckRun record per (task group, task) pair.
package storage

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/taskbridge/taskbridge/internal/core"
)

var (
	// ErrNotFound is returned by Load when no record exists for the key.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned by Create on a key collision. Callers
	// that create idempotently treat it as success.
	ErrAlreadyExists = errors.New("record already exists")
)

// BuildStore persists one Build record per task group.
type BuildStore interface {
	Load(ctx context.Context, taskGroupID string) (*core.Build, error)
	Create(ctx context.Context, build *core.Build) error
	// Modify performs an atomic read-modify-write: it loads the record
	// under a row lock, applies mutate, and writes the result back.
	// Concurrent writers to the same key serialize on the lock, so no
	// update is lost.
	Modify(ctx context.Context, taskGroupID string, mutate func(*core.Build)) (*core.Build, error)
}

// CheckRunStore persists one CheckRun record per (task group, task).
type CheckRunStore interface {
	Load(ctx context.Context, taskGroupID, taskID string) (*core.CheckRun, error)
	Create(ctx context.Context, run *core.CheckRun) error
}

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
