// Package main provides the rule intake API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/dukex/ruleintake/pkg/eventbus"
	"github.com/dukex/ruleintake/pkg/services"
	"github.com/dukex/ruleintake/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

const defaultOrigin = "http://localhost:5173"

var (
	ErrNoAllowedOrigins        = errors.New("at least one allowed origin is required")
	ErrWildcardWithCredentials = errors.New("wildcard origin cannot be combined with credentials")
	ErrInvalidOrigin           = errors.New("invalid origin")
)

// allowedMethods covers every method fiber routes, so CORS never narrows the API.
var allowedMethods = slices.Clone(fiber.DefaultMethods)

type API struct {
	logger         *slog.Logger
	publisher      eventbus.EventPublisher
	tracer         trace.Tracer
	validate       *validator.Validate
	allowedOrigins []string
}

func NewAPI(
	logger *slog.Logger,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	allowedOrigins []string,
) *API {
	return &API{
		logger:         logger,
		publisher:      publisher,
		tracer:         tracer,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		allowedOrigins: allowedOrigins,
	}
}

func (a *API) App() (*fiber.App, error) {
	if len(a.allowedOrigins) == 0 {
		return nil, ErrNoAllowedOrigins
	}

	if slices.Contains(a.allowedOrigins, "*") {
		return nil, ErrWildcardWithCredentials
	}

	for _, origin := range a.allowedOrigins {
		if err := checkOrigin(origin); err != nil {
			return nil, err
		}
	}

	requestValidator, err := services.NewRequestValidator(a.validate)
	if err != nil {
		return nil, err
	}

	intake := services.NewIntake(a.logger, a.publisher, a.tracer)
	handlers := web.NewAPIHandlers(intake, requestValidator)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     a.allowedOrigins,
		AllowMethods:     allowedMethods,
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", handlers.Root)

	api := app.Group("/api")
	api.Post("/rules", handlers.SubmitRules)

	return app, nil
}

// checkOrigin accepts scheme://host[:port] with no path, matching what the CORS
// middleware compares against the Origin header.
func checkOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidOrigin, origin, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path != "" {
		return fmt.Errorf("%w %q", ErrInvalidOrigin, origin)
	}

	return nil
}

// Start serves the API until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (a *API) Start(ctx context.Context, port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		a.logger.Info("Shutting down rule intake API")

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down server", "error", err)
		}
	}()

	a.logger.Info("Rule intake API listening", "port", port, "allowed_origins", a.allowedOrigins)

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{
		DisableStartupMessage: true,
	})
}
