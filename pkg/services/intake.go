package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/ruleintake/pkg/eventbus"
	"github.com/dukex/ruleintake/pkg/events"
	"github.com/dukex/ruleintake/pkg/models"
	"github.com/dukex/ruleintake/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPublishTimeout bounds how long a submission waits for the event bus.
const DefaultPublishTimeout = 2 * time.Second

// Intake records submitted rule sets and acknowledges them. It holds no per-request
// state and is safe for concurrent use.
type Intake struct {
	logger         *slog.Logger
	publisher      eventbus.EventPublisher
	tracer         trace.Tracer
	publishTimeout time.Duration
}

type IntakeOption func(*Intake)

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(timeout time.Duration) IntakeOption {
	return func(s *Intake) {
		s.publishTimeout = timeout
	}
}

// NewIntake creates a new intake service. publisher may be nil, in which case
// submissions are only logged.
func NewIntake(logger *slog.Logger, publisher eventbus.EventPublisher, tracer trace.Tracer, opts ...IntakeOption) *Intake {
	s := &Intake{
		logger:         logger,
		publisher:      publisher,
		tracer:         tracer,
		publishTimeout: DefaultPublishTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Submit logs the workflow and each of its rules, announces the submission on the
// event bus and returns the acknowledgment. Publishing is best effort: failures and
// timeouts are logged and never fail the submission.
func (s *Intake) Submit(ctx context.Context, req *models.RuleRequest) (*models.RuleSummary, error) {
	if req == nil {
		return nil, ErrRequestNil
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "rules.submit",
		attribute.String(otelhelper.WorkflowNameKey, req.WorkflowName),
		attribute.Int(otelhelper.RuleCountKey, len(req.Rules)),
	)
	defer span.End()

	s.logger.InfoContext(ctx, "Received rules for workflow",
		"workflow_name", req.WorkflowName,
		"total", len(req.Rules),
	)

	for i, rule := range req.Rules {
		s.logger.InfoContext(ctx, "Rule",
			"workflow_name", req.WorkflowName,
			"index", i,
			"rule", rule,
		)
	}

	s.publish(ctx, span, req)

	return models.NewRuleSummary(req), nil
}

func (s *Intake) publish(ctx context.Context, span trace.Span, req *models.RuleRequest) {
	if s.publisher == nil {
		return
	}

	event := events.NewRulesReceived(req)

	// The publish may outlive the request, so it only inherits the span context.
	publishCtx := trace.ContextWithSpanContext(context.Background(), span.SpanContext())
	done := make(chan error, 1)

	go func() {
		done <- s.publisher.Publish(publishCtx, req.WorkflowName, event)
	}()

	timer := time.NewTimer(s.publishTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.EventIDKey, event.ID))
			s.logger.ErrorContext(ctx, "Failed to publish rules received event",
				"workflow_name", req.WorkflowName,
				"event_id", event.ID,
				"error", err,
			)

			return
		}

		s.logger.DebugContext(ctx, "Published rules received event",
			"workflow_name", req.WorkflowName,
			"event_id", event.ID,
		)
	case <-timer.C:
		otelhelper.SetError(span, ErrPublishTimeout, attribute.String(otelhelper.EventIDKey, event.ID))
		s.logger.WarnContext(ctx, "Timed out publishing rules received event",
			"workflow_name", req.WorkflowName,
			"event_id", event.ID,
			"timeout", s.publishTimeout,
		)
	}
}
