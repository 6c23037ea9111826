// Package main provides the Loomline API server.
package main

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomline/loomline/pkg/automation"
	"github.com/loomline/loomline/pkg/eventbus"
	"github.com/loomline/loomline/pkg/persistence"
	"github.com/loomline/loomline/pkg/ratelimit"
	"github.com/loomline/loomline/pkg/registry"
	"github.com/loomline/loomline/pkg/services"
	"github.com/loomline/loomline/pkg/statemachine"
	"github.com/loomline/loomline/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	limiter     ratelimit.Limiter
	tracer      trace.Tracer
	systemToken string
	qcThreshold float64

	engine *automation.Engine
}

// NewAPI assembles the server dependencies. tracer may be nil, in which
// case executions run untraced.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	limiter ratelimit.Limiter,
	tracer trace.Tracer,
	systemToken string,
	qcThreshold float64,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		limiter:     limiter,
		tracer:      tracer,
		systemToken: systemToken,
		qcThreshold: qcThreshold,
	}
}

func (a *API) App() *fiber.App {
	machine := statemachine.NewMachine(a.persistence, a.logger,
		statemachine.WithQCScoreThreshold(a.qcThreshold))

	var engineOpts []automation.EngineOption
	if a.tracer != nil {
		engineOpts = append(engineOpts, automation.WithTracer(a.tracer))
	}

	a.engine = automation.NewEngine(
		a.persistence,
		a.registry,
		automation.NewOrderFieldResolver(a.persistence.OrderRepository()),
		a.eventBus,
		a.logger,
		engineOpts...,
	)

	workflowService := services.NewWorkflow(a.persistence)

	handlers := web.NewHandlers(
		machine,
		workflowService,
		a.engine,
		a.persistence,
		a.limiter,
		a.eventBus,
		a.systemToken,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Loomline API")
	})

	handlers.Register(app)

	return app
}

// Engine exposes the automation engine after App() so the caller can
// schedule workflows and drain in-flight executions on shutdown.
func (a *API) Engine() *automation.Engine {
	return a.engine
}
