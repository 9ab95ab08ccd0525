package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/taskbridge/taskbridge/internal/config"
)

// ClientFactory authenticates as a specific App installation and
// returns a Client scoped to it. Handlers resolve the factory once
// per message with the installation ID carried by the message or the
// build record.
//
//go:generate mockgen -destination=../../mocks/mock_client_factory.go -package=mocks . ClientFactory
type ClientFactory interface {
	ForInstallation(ctx context.Context, installationID int64) (Client, error)
}

type appClientFactory struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewClientFactory creates a ClientFactory backed by the configured
// GitHub App credentials.
func NewClientFactory(cfg *config.Config, logger *slog.Logger) ClientFactory {
	return &appClientFactory{cfg: cfg, logger: logger}
}

// ForInstallation mints an installation token and wraps an API client
// authenticated with it.
func (f *appClientFactory) ForInstallation(ctx context.Context, installationID int64) (Client, error) {
	f.logger.Debug("creating GitHub installation client", "installation_id", installationID)

	privateKey, err := os.ReadFile(f.cfg.GitHubPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", f.cfg.GitHubPrivateKeyPath, err)
	}

	appTransport, err := ghinstallation.NewAppsTransport(http.DefaultTransport, f.cfg.GitHubAppID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	appClient := github.NewClient(&http.Client{Transport: appTransport})

	token, _, err := appClient.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token for installation %d: %w", installationID, err)
	}
	if token.GetToken() == "" {
		return nil, fmt.Errorf("received an empty installation token")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.GetToken()})
	tc := oauth2.NewClient(ctx, ts)
	return NewClient(github.NewClient(tc), f.logger), nil
}
