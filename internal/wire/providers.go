// Package wire assembles the application's dependency graph.
package wire

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/taskbridge/taskbridge/internal/app"
	"github.com/taskbridge/taskbridge/internal/config"
	"github.com/taskbridge/taskbridge/internal/logger"
)

// AppSet lists the providers needed to build the App. The component
// graph below app.NewApp is constructed inside it; wire only threads
// configuration and logging through.
var AppSet = wire.NewSet(
	config.LoadConfig,
	provideLogger,
	app.NewApp,
)

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg, nil)
}
