package services_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/ruleintake/pkg/channels/gochannel"
	"github.com/dukex/ruleintake/pkg/eventbus"
	"github.com/dukex/ruleintake/pkg/events"
	"github.com/dukex/ruleintake/pkg/mocks"
	"github.com/dukex/ruleintake/pkg/models"
	"github.com/dukex/ruleintake/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func onboardingRequest() *models.RuleRequest {
	return &models.RuleRequest{
		WorkflowName: "Onboarding",
		Rules: []models.Rule{
			{FieldName: "age", Expression: "age>=18", SuccessEvent: "ok", ErrorMessage: "too young", Enabled: true},
			{FieldName: "email", Expression: "email != ''", SuccessEvent: "ok", ErrorMessage: "email missing", Enabled: false},
		},
	}
}

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestIntake_Submit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		request       *models.RuleRequest
		expectedTotal int
	}{
		{name: "two rules", request: onboardingRequest(), expectedTotal: 2},
		{name: "empty rules", request: &models.RuleRequest{WorkflowName: "Empty", Rules: []models.Rule{}}, expectedTotal: 0},
		{name: "nil rules", request: &models.RuleRequest{WorkflowName: "Nil"}, expectedTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			intake := services.NewIntake(newBufferLogger(&buf), nil, noop.NewTracerProvider().Tracer("test"))

			summary, err := intake.Submit(context.Background(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, models.SavedMessage, summary.Message)
			assert.Equal(t, tt.expectedTotal, summary.Total)
		})
	}
}

func TestIntake_Submit_NilRequest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	intake := services.NewIntake(newBufferLogger(&buf), nil, noop.NewTracerProvider().Tracer("test"))

	summary, err := intake.Submit(context.Background(), nil)
	require.ErrorIs(t, err, services.ErrRequestNil)
	assert.Nil(t, summary)
	assert.True(t, services.IsValidationError(err))
	assert.Empty(t, buf.String())
}

func TestIntake_Submit_LogsWorkflowAndRules(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	intake := services.NewIntake(newBufferLogger(&buf), nil, noop.NewTracerProvider().Tracer("test"))

	_, err := intake.Submit(context.Background(), onboardingRequest())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], `msg="Received rules for workflow"`)
	assert.Contains(t, lines[0], "workflow_name=Onboarding")
	assert.Contains(t, lines[0], "total=2")

	assert.Contains(t, lines[1], "index=0")
	assert.Contains(t, lines[1], "rule.field_name=age")
	assert.Contains(t, lines[1], `rule.expression="age>=18"`)
	assert.Contains(t, lines[1], "rule.enabled=true")

	assert.Contains(t, lines[2], "index=1")
	assert.Contains(t, lines[2], "rule.field_name=email")
	assert.Contains(t, lines[2], "rule.enabled=false")
}

func TestIntake_Submit_IndependentRequests(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	intake := services.NewIntake(newBufferLogger(&buf), nil, noop.NewTracerProvider().Tracer("test"))

	first, err := intake.Submit(context.Background(), onboardingRequest())
	require.NoError(t, err)

	second, err := intake.Submit(context.Background(), &models.RuleRequest{WorkflowName: "Empty", Rules: []models.Rule{}})
	require.NoError(t, err)

	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 0, second.Total)
}

func TestIntake_Submit_PublishesEvent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub := gochannel.CreateTestChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, sub)

	defer func() { _ = bus.Close() }()

	received := make(chan *events.RulesReceived, 1)

	require.NoError(t, bus.Handle(events.RulesReceivedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.RulesReceived)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	var buf bytes.Buffer

	intake := services.NewIntake(newBufferLogger(&buf), bus, noop.NewTracerProvider().Tracer("test"))

	summary, err := intake.Submit(ctx, onboardingRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)

	select {
	case event := <-received:
		assert.Equal(t, "Onboarding", event.WorkflowName)
		assert.Equal(t, 2, event.Total)
		assert.Len(t, event.Rules, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rules received event")
	}
}

func TestIntake_Submit_PublishFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "Onboarding", mock.AnythingOfType("*events.RulesReceived")).
		Return(errors.New("broker unavailable")).
		Once()

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	var buf bytes.Buffer

	intake := services.NewIntake(newBufferLogger(&buf), bus, tracer)

	summary, err := intake.Submit(context.Background(), onboardingRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)

	bus.AssertExpectations(t)
	assert.Contains(t, buf.String(), "Failed to publish rules received event")
	assert.Contains(t, buf.String(), "broker unavailable")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "rules.submit", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

type blockingPublisher struct {
	release chan struct{}
}

func (p *blockingPublisher) Publish(_ context.Context, _ string, _ eventbus.Event) error {
	<-p.release

	return nil
}

func TestIntake_Submit_PublishTimeout(t *testing.T) {
	t.Parallel()

	publisher := &blockingPublisher{release: make(chan struct{})}
	defer close(publisher.release)

	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	var buf bytes.Buffer

	intake := services.NewIntake(newBufferLogger(&buf), publisher, tracer,
		services.WithPublishTimeout(50*time.Millisecond),
	)

	start := time.Now()
	summary, err := intake.Submit(context.Background(), onboardingRequest())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Contains(t, buf.String(), "Timed out publishing rules received event")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, services.ErrPublishTimeout.Error(), spans[0].Status().Description)
}
