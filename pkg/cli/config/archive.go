package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/service/archive"
	"github.com/urfave/cli/v3"
)

// Archive holds configuration for keeping export documents in Cloud Storage
type Archive struct {
	bucket string
	prefix string
}

// Flags returns CLI flags for export archiving
func (a *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "export-bucket",
			Usage:       "Cloud Storage bucket that keeps a copy of every export",
			Category:    "Export",
			Sources:     cli.EnvVars("COTTUS_EXPORT_BUCKET"),
			Destination: &a.bucket,
		},
		&cli.StringFlag{
			Name:        "export-prefix",
			Usage:       "Object name prefix inside the export bucket",
			Category:    "Export",
			Sources:     cli.EnvVars("COTTUS_EXPORT_PREFIX"),
			Destination: &a.prefix,
		},
	}
}

// LogAttrs returns log attributes for the archive configuration
func (a *Archive) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("bucket", a.bucket),
		slog.String("prefix", a.prefix),
	}
}

// Configure creates the archive. Returns nil when no bucket is set.
func (a *Archive) Configure(ctx context.Context) (*archive.Storage, error) {
	if a.bucket == "" {
		return nil, nil
	}

	var opts []archive.Option
	if a.prefix != "" {
		opts = append(opts, archive.WithPrefix(a.prefix))
	}

	storage, err := archive.New(ctx, a.bucket, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create export archive")
	}
	return storage, nil
}
