package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/cli/config"
	httpctrl "github.com/secmon-lab/cottus/pkg/controller/http"
	"github.com/secmon-lab/cottus/pkg/service/worker"
	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/secmon-lab/cottus/pkg/utils/async"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/secmon-lab/cottus/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var (
		addr              string
		adminToken        string
		engineerToken     string
		allowedOrigins    string
		secureCookie      bool
		completionTimeout time.Duration
		statsInterval     time.Duration

		appCfg     config.App
		repoCfg    config.Repository
		llmCfg     config.LLM
		slackCfg   config.Slack
		githubCfg  config.GitHub
		archiveCfg config.Archive
		sentryCfg  config.Sentry
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("COTTUS_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "admin-token",
			Usage:       "Bearer token for the admin API. Empty leaves it open (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("COTTUS_ADMIN_TOKEN"),
			Destination: &adminToken,
		},
		&cli.StringFlag{
			Name:        "engineer-token",
			Usage:       "Bearer token for the engineer API. Empty leaves it open (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("COTTUS_ENGINEER_TOKEN"),
			Destination: &engineerToken,
		},
		&cli.StringFlag{
			Name:        "allowed-origins",
			Usage:       "Comma separated list of origins allowed by CORS",
			Sources:     cli.EnvVars("COTTUS_ALLOWED_ORIGINS"),
			Destination: &allowedOrigins,
		},
		&cli.BoolFlag{
			Name:        "secure-cookie",
			Usage:       "Set the Secure attribute on session cookies",
			Category:    "Authentication",
			Sources:     cli.EnvVars("COTTUS_SECURE_COOKIE"),
			Destination: &secureCookie,
		},
		&cli.DurationFlag{
			Name:        "completion-timeout",
			Usage:       "Timeout of a single completion service call",
			Category:    "LLM",
			Value:       usecase.DefaultCompletionTimeout,
			Sources:     cli.EnvVars("COTTUS_COMPLETION_TIMEOUT"),
			Destination: &completionTimeout,
		},
		&cli.DurationFlag{
			Name:        "stats-interval",
			Usage:       "Interval of recomputing ticket backlog metrics",
			Value:       worker.DefaultStatsInterval,
			Sources:     cli.EnvVars("COTTUS_STATS_INTERVAL"),
			Destination: &statsInterval,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			persona, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load persona configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo, "repository")

			ucOpts := []usecase.Option{
				usecase.WithPersona(persona),
				usecase.WithCompletionTimeout(completionTimeout),
			}

			completer, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure completion service")
			}
			if completer != nil {
				ucOpts = append(ucOpts, usecase.WithCompleter(completer))
			}

			slackNotifier, err := slackCfg.Configure()
			if err != nil {
				return err
			}
			if slackNotifier != nil {
				ucOpts = append(ucOpts, usecase.WithTicketNotifier(slackNotifier))
				logger.Info("Slack ticket notification enabled")
			}

			githubNotifier, err := githubCfg.Configure()
			if err != nil {
				return err
			}
			if githubNotifier != nil {
				ucOpts = append(ucOpts, usecase.WithTicketNotifier(githubNotifier))
				logger.Info("GitHub issue mirroring enabled")
			}

			storage, err := archiveCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if storage != nil {
				defer safe.Close(ctx, storage, "export archive")
				ucOpts = append(ucOpts, usecase.WithExportArchiver(storage))
				logger.Info("Export archiving enabled")
			}

			uc, err := usecase.New(repo, ucOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			if adminToken == "" || engineerToken == "" {
				logger.Warn("Admin or engineer API is not protected by a token (development only)")
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithAdminToken(adminToken),
				httpctrl.WithEngineerToken(engineerToken),
				httpctrl.WithSecureCookie(secureCookie),
			}
			if origins := splitOrigins(allowedOrigins); len(origins) > 0 {
				httpOpts = append(httpOpts, httpctrl.WithAllowedOrigins(origins))
			}

			logger.Info("Serve configuration",
				"addr", addr,
				"completion_timeout", completionTimeout,
				slog.Any("llm", slog.GroupValue(llmCfg.LogAttrs()...)),
				slog.Any("repository", slog.GroupValue(repoCfg.LogAttrs()...)),
				slog.Any("slack", slog.GroupValue(slackCfg.LogAttrs()...)),
				slog.Any("github", slog.GroupValue(githubCfg.LogAttrs()...)),
				slog.Any("archive", slog.GroupValue(archiveCfg.LogAttrs()...)),
				slog.Any("sentry", slog.GroupValue(sentryCfg.LogAttrs()...)),
			)

			statsWorker := worker.NewTicketStatsWorker(repo, statsInterval)
			if err := statsWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start ticket stats worker")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				statsWorker.Stop()
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				statsWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Let pending notifications finish before the repository closes
				if err := async.Wait(shutdownCtx); err != nil {
					logger.Warn("background tasks did not finish before shutdown", "error", err.Error())
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
