package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"

	appcmd "github.com/tailorbase/storesmith/pkg/cmd"
	"github.com/tailorbase/storesmith/pkg/log"
)

const defaultPort = 8080

func main() {
	// Local development reads credentials from .env; missing files are fine.
	_ = godotenv.Load()

	logger := log.WithModule("storesmith")

	cmd := &cli.Command{
		Name:                  "storesmith",
		Usage:                 "Provision complete storefronts from a seed configuration",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "app-url",
				Usage:    "Public base URL of this app (used for OAuth redirects and webhook addresses)",
				Required: true,
				Sources:  cli.EnvVars("APP_URL"),
			},
			&cli.StringFlag{
				Name:     "api-key",
				Usage:    "Platform API key",
				Required: true,
				Sources:  cli.EnvVars("SHOPIFY_API_KEY"),
			},
			&cli.StringFlag{
				Name:     "api-secret",
				Usage:    "Platform API secret (signs OAuth callbacks and webhook deliveries)",
				Required: true,
				Sources:  cli.EnvVars("SHOPIFY_API_SECRET"),
			},
			&cli.StringFlag{
				Name:    "session-store-url",
				Usage:   "Session store URL (file://, redis://, postgres://)",
				Value:   "file://./data/sessions",
				Sources: cli.EnvVars("SESSION_STORE_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing (exports via OTLP/HTTP)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing storesmith")

			store, err := appcmd.NewSessionStore(ctx, logger, command.String("session-store-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close session store", "error", err)
				}
			}()

			eventBus := appcmd.NewEventBus(logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api, err := NewAPI(ctx, Config{
				AppURL:    command.String("app-url"),
				APIKey:    command.String("api-key"),
				APISecret: command.String("api-secret"),
				Tracing:   command.Bool("tracing"),
			}, store, eventBus, logger)
			if err != nil {
				return err
			}
			defer api.Shutdown(ctx)

			return api.Start(command.Int("port"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
