// Package monitor is the error-reporting collaborator for the message
// dispatcher. Handler failures are reported here instead of crashing
// the consumer loop.
package monitor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taskbridge/taskbridge/internal/core"
)

// Monitor receives handler failures for operator visibility.
type Monitor interface {
	ReportError(ctx context.Context, err error, fields ...any)
}

type slogMonitor struct {
	logger *slog.Logger
}

// New creates a Monitor that reports through the given logger.
func New(logger *slog.Logger) Monitor {
	return &slogMonitor{logger: logger}
}

// ReportError logs the failure. Data-corruption assertions are marked
// so alerting can page on them rather than treat them as transient.
func (m *slogMonitor) ReportError(ctx context.Context, err error, fields ...any) {
	var corruption *core.CorruptionError
	if errors.As(err, &corruption) {
		args := append([]any{"error", err, "data_corruption", true, "task_group_id", corruption.TaskGroupID}, fields...)
		m.logger.ErrorContext(ctx, "FATAL: build record corruption detected", args...)
		return
	}
	args := append([]any{"error", err}, fields...)
	m.logger.ErrorContext(ctx, "message handler failed", args...)
}
