package web

import (
	"github.com/dukex/ruleintake/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func unprocessable(c fiber.Ctx, detail string, fields []services.FieldError) error {
	problem := problems.NewStatusProblem(fiber.StatusUnprocessableEntity).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusUnprocessableEntity).JSON(NewValidationProblem(problem, fields))
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	if validationErr, ok := services.AsValidationError(err); ok {
		return unprocessable(c, "request body does not match the rule request schema", validationErr.Fields)
	}

	if services.IsValidationError(err) {
		return unprocessable(c, err.Error(), []services.FieldError{})
	}

	return internalError(c, err)
}
