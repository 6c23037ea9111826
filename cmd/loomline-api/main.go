package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomline/loomline/pkg/cmd"
	"github.com/loomline/loomline/pkg/log"
	"github.com/loomline/loomline/pkg/otelhelper"
	"github.com/loomline/loomline/pkg/ratelimit"
	"github.com/loomline/loomline/pkg/triggers/schedule"
)

const defaultPort = 9091

const defaultQCScoreThreshold = 8.0

func main() {
	command := &cli.Command{
		Name:                  "loomline-api",
		Usage:                 "Manufacturing order lifecycle and automation API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres://... or a file persistence root)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the distributed rate limiter; empty uses in-process limiting",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:     "system-token",
				Usage:    "Token required by the automatic transition endpoint",
				Required: true,
				Sources:  cli.EnvVars("SYSTEM_TOKEN"),
			},
			&cli.FloatFlag{
				Name:    "qc-score-threshold",
				Usage:   "Inspection score at or above which QC auto-advances to PACKING",
				Value:   defaultQCScoreThreshold,
				Sources: cli.EnvVars("QC_SCORE_THRESHOLD"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export execution traces over OTLP (endpoint from OTEL_EXPORTER_OTLP_ENDPOINT)",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")
	logger.InfoContext(ctx, "Initializing Loomline API")

	store := cmd.NewPersistence(ctx, logger, command.String("database-url"))

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), "loomline-api", logger)

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	limiter, err := newLimiter(ctx, command.String("redis-url"), logger)
	if err != nil {
		return err
	}

	var tracer trace.Tracer

	if command.Bool("tracing") {
		tracer, err = otelhelper.NewTracer(ctx, "loomline-api")
		if err != nil {
			return err
		}
	}

	api := NewAPI(
		logger,
		store,
		cmd.NewRegistry(logger, store),
		eventBus,
		limiter,
		tracer,
		command.String("system-token"),
		command.Float("qc-score-threshold"),
	)

	app := api.App()

	scheduler := schedule.NewScheduler(store.WorkflowRepository(), api.Engine(), logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	defer func() {
		if err := scheduler.Stop(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to stop scheduler", "error", err)
		}

		api.Engine().Wait()
	}()

	return app.Listen(":" + strconv.Itoa(command.Int("port")))
}

func newLimiter(ctx context.Context, redisURL string, logger *slog.Logger) (ratelimit.Limiter, error) {
	config := ratelimit.DefaultConfig()

	if redisURL == "" {
		logger.InfoContext(ctx, "Using in-process rate limiter")

		return ratelimit.NewMemoryLimiter(config), nil
	}

	client, err := ratelimit.NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}

	return ratelimit.NewRedisLimiter(client, config, logger), nil
}
