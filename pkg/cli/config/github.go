package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/service/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds configuration for mirroring tickets to GitHub issues
type GitHub struct {
	appID          int
	installationID int
	privateKey     string
	owner          string
	repo           string
}

// Flags returns CLI flags for GitHub App configuration
func (g *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Category:    "GitHub",
			Sources:     cli.EnvVars("COTTUS_GITHUB_APP_ID"),
			Destination: &g.appID,
		},
		&cli.IntFlag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App Installation ID",
			Category:    "GitHub",
			Sources:     cli.EnvVars("COTTUS_GITHUB_APP_INSTALLATION_ID"),
			Destination: &g.installationID,
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App Private Key (PEM string or file path)",
			Category:    "GitHub",
			Sources:     cli.EnvVars("COTTUS_GITHUB_APP_PRIVATE_KEY"),
			Destination: &g.privateKey,
		},
		&cli.StringFlag{
			Name:        "github-owner",
			Usage:       "Owner of the repository that receives ticket issues",
			Category:    "GitHub",
			Sources:     cli.EnvVars("COTTUS_GITHUB_OWNER"),
			Destination: &g.owner,
		},
		&cli.StringFlag{
			Name:        "github-repo",
			Usage:       "Repository that receives ticket issues",
			Category:    "GitHub",
			Sources:     cli.EnvVars("COTTUS_GITHUB_REPO"),
			Destination: &g.repo,
		},
	}
}

// LogAttrs returns log attributes for the GitHub configuration (secrets hidden)
func (g *GitHub) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("app_id", g.appID),
		slog.Int("installation_id", g.installationID),
		slog.String("owner", g.owner),
		slog.String("repo", g.repo),
	}
}

// IsConfigured returns true if all required GitHub App flags are set
func (g *GitHub) IsConfigured() bool {
	return g.appID != 0 && g.installationID != 0 && g.privateKey != "" && g.owner != "" && g.repo != ""
}

// Configure creates the GitHub notifier from the configured flags.
// Returns nil if not all flags are configured (GitHub features will be disabled).
func (g *GitHub) Configure() (*github.Notifier, error) {
	if !g.IsConfigured() {
		return nil, nil
	}

	notifier, err := github.New(int64(g.appID), int64(g.installationID), g.privateKey, g.owner, g.repo)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub notifier")
	}

	return notifier, nil
}
