package web

import (
	"github.com/dukex/ruleintake/pkg/services"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	intake    *services.Intake
	validator *services.RequestValidator
}

func NewAPIHandlers(intake *services.Intake, validator *services.RequestValidator) *APIHandlers {
	return &APIHandlers{
		intake:    intake,
		validator: validator,
	}
}

// SubmitRules accepts a workflow's rule set and acknowledges how many rules it holds.
func (h *APIHandlers) SubmitRules(c fiber.Ctx) error {
	req, err := h.validator.Decode(c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	summary, err := h.intake.Submit(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) Root(c fiber.Ctx) error {
	return c.JSON(StatusResponse{Message: RunningMessage})
}
