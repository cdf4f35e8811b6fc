// Package models defines the request and response types accepted by the rule intake service.
package models

import "log/slog"

// SavedMessage is the acknowledgment returned for every accepted submission.
const SavedMessage = "Rules saved successfully"

// Rule is a single field-level validation directive. Expression, SuccessEvent and
// ErrorMessage are opaque labels; they are carried through untouched.
type Rule struct {
	FieldName    string `json:"fieldName"`
	Expression   string `json:"expression"`
	SuccessEvent string `json:"successEvent"`
	ErrorMessage string `json:"errorMessage"`
	Enabled      bool   `json:"enabled"`
}

// LogValue renders the rule as a structured group.
func (r Rule) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("field_name", r.FieldName),
		slog.String("expression", r.Expression),
		slog.String("success_event", r.SuccessEvent),
		slog.String("error_message", r.ErrorMessage),
		slog.Bool("enabled", r.Enabled),
	)
}

// RuleRequest is a workflow's rule set as submitted by a client.
type RuleRequest struct {
	WorkflowName string `json:"WorkflowName"`
	Rules        []Rule `json:"Rules"`
}

// RuleSummary acknowledges a submission.
type RuleSummary struct {
	Message string `json:"message"`
	Total   int    `json:"total"`
}

// NewRuleSummary builds the acknowledgment for req.
func NewRuleSummary(req *RuleRequest) *RuleSummary {
	return &RuleSummary{
		Message: SavedMessage,
		Total:   len(req.Rules),
	}
}
