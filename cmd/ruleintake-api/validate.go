package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/ruleintake/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
)

var ErrPayloadRequired = errors.New("a payload file is required (use - for stdin)")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check a rule request payload against the request schema",
		ArgsUsage: "<file|->",
		Action: func(_ context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return ErrPayloadRequired
			}

			body, err := readPayload(path, command.Reader)
			if err != nil {
				return err
			}

			return validatePayload(body, command.Writer)
		},
	}
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	return body, nil
}

func validatePayload(body []byte, out io.Writer) error {
	requestValidator, err := services.NewRequestValidator(validator.New(validator.WithRequiredStructEnabled()))
	if err != nil {
		return err
	}

	req, err := requestValidator.Decode(body)
	if err != nil {
		if validationErr, ok := services.AsValidationError(err); ok {
			for _, f := range validationErr.Fields {
				_, _ = fmt.Fprintf(out, "%s: %s (%s)\n", f.Field, f.Message, f.Type)
			}
		}

		return err
	}

	_, _ = fmt.Fprintf(out, "workflow %q: %d rules valid\n", req.WorkflowName, len(req.Rules))

	return nil
}
