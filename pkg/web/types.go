// Package web provides HTTP request and response types for the rule intake API.
package web

import (
	"github.com/dukex/ruleintake/pkg/services"
	"github.com/moogar0880/problems"
)

// RunningMessage is returned by the root liveness endpoint.
const RunningMessage = "service is running"

// StatusResponse is the body of the root liveness endpoint.
type StatusResponse struct {
	Message string `json:"message"`
}

// ValidationProblem is an RFC 7807 problem document extended with the offending fields.
type ValidationProblem struct {
	Type     string                `json:"type"`
	Title    string                `json:"title"`
	Status   int                   `json:"status,omitempty"`
	Detail   string                `json:"detail,omitempty"`
	Instance string                `json:"instance,omitempty"`
	Errors   []services.FieldError `json:"errors"`
}

// NewValidationProblem extends problem with the field violations.
func NewValidationProblem(problem *problems.Problem, fields []services.FieldError) ValidationProblem {
	return ValidationProblem{
		Type:     problem.Type,
		Title:    problem.Title,
		Status:   problem.Status,
		Detail:   problem.Detail,
		Instance: problem.Instance,
		Errors:   fields,
	}
}
