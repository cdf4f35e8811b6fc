package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/ruleintake/pkg/cmd"
	"github.com/dukex/ruleintake/pkg/eventbus"
	"github.com/dukex/ruleintake/pkg/log"
	"github.com/dukex/ruleintake/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const (
	serviceName = "ruleintake-api"
	defaultPort = 8000
)

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Accept workflow rule sets over HTTP",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewValidateCommand(),
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringSliceFlag{
				Name:    "allowed-origins",
				Usage:   "Origins allowed to call the API with credentials",
				Value:   []string{defaultOrigin},
				Sources: cli.EnvVars("CORS_ALLOWED_ORIGINS"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (none, gochannel, kafka)",
				Value:   cmd.EventBusNone,
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers used when the event bus is kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
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

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing rule intake API")

			if command.Bool("tracing") {
				tracerProvider, err := otelhelper.NewTracerProvider(ctx, serviceName)
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := tracerProvider.Shutdown(context.Background()); err != nil {
						logger.Error("Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			publisher, err := cmd.NewEventPublisher(command.String("event-bus"), command.StringSlice("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			var eventPublisher eventbus.EventPublisher
			if publisher != nil {
				eventPublisher = publisher

				defer func() {
					if err := publisher.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()
			}

			api := NewAPI(
				logger,
				eventPublisher,
				otelhelper.Tracer(serviceName),
				command.StringSlice("allowed-origins"),
			)

			return api.Start(ctx, command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
