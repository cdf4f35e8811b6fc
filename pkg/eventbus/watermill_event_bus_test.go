package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/ruleintake/pkg/channels/gochannel"
	"github.com/dukex/ruleintake/pkg/eventbus"
	"github.com/dukex/ruleintake/pkg/events"
	"github.com/dukex/ruleintake/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
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

	event := events.NewRulesReceived(&models.RuleRequest{
		WorkflowName: "Onboarding",
		Rules: []models.Rule{
			{FieldName: "age", Expression: "age>=18", SuccessEvent: "ok", ErrorMessage: "too young", Enabled: true},
		},
	})

	require.NoError(t, bus.Publish(ctx, "Onboarding", event))

	select {
	case got := <-received:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, "Onboarding", got.WorkflowName)
		assert.Equal(t, 1, got.Total)
		assert.Equal(t, "age", got.Rules[0].FieldName)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	pub, sub := gochannel.CreateChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, sub)

	defer func() { _ = bus.Close() }()

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestWatermillEventBus_PublishOnly(t *testing.T) {
	t.Parallel()

	pub, _ := gochannel.CreateChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, nil)

	event := events.NewRulesReceived(&models.RuleRequest{WorkflowName: "Solo", Rules: []models.Rule{}})

	require.NoError(t, bus.Publish(context.Background(), "Solo", event))
	require.ErrorIs(t, bus.Subscribe(context.Background()), eventbus.ErrNoSubscriber)
	assert.NoError(t, bus.Close())
}
