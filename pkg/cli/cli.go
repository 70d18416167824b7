package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/cli/config"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// loadDotEnv reads variables from path into the environment when the file exists.
// Variables that are already set keep their value.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to stat env file", goerr.V("path", path))
	}
	if err := godotenv.Load(path); err != nil {
		return goerr.Wrap(err, "failed to load env file", goerr.V("path", path))
	}
	return nil
}

func Run(ctx context.Context, args []string, version string) error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "cottus",
		Usage:   "Requirement-intake chat service that turns client conversations into engineering tickets",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting cottus", "version", version, "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(version),
			cmdMigrate(),
			cmdValidate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
