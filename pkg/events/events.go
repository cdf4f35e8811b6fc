// Package events defines the notifications emitted when rule sets are received.
package events

import (
	"time"

	"github.com/dukex/ruleintake/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "ruleintake.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RulesReceivedEvent EventType = "rules.received"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	WorkflowName string         `json:"workflow_name"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates a new base event with common fields.
func NewBaseEvent(eventType EventType, workflowName string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		WorkflowName: workflowName,
		Metadata:     make(map[string]any),
	}
}

// RulesReceived is published once per accepted submission.
type RulesReceived struct {
	BaseEvent

	Rules []models.Rule `json:"rules"`
	Total int           `json:"total"`
}

func (r RulesReceived) GetType() EventType {
	return RulesReceivedEvent
}

// NewRulesReceived builds the event for an accepted request.
func NewRulesReceived(req *models.RuleRequest) *RulesReceived {
	return &RulesReceived{
		BaseEvent: NewBaseEvent(RulesReceivedEvent, req.WorkflowName),
		Rules:     req.Rules,
		Total:     len(req.Rules),
	}
}
