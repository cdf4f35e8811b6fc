package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/dukex/ruleintake/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

const (
	opDecode = "decode rule request"

	bodyField = "body"
	rootField = "(root)"
	typeJSON  = "json_invalid"
)

// ruleWire and ruleRequestWire mirror the payload with pointer fields so that a
// missing key is distinguishable from a zero value ("" or false).
type ruleWire struct {
	FieldName    *string `json:"fieldName"    validate:"required"`
	Expression   *string `json:"expression"   validate:"required"`
	SuccessEvent *string `json:"successEvent" validate:"required"`
	ErrorMessage *string `json:"errorMessage" validate:"required"`
	Enabled      *bool   `json:"enabled"      validate:"required"`
}

type ruleRequestWire struct {
	WorkflowName *string    `json:"WorkflowName" validate:"required"`
	Rules        []ruleWire `json:"Rules"        validate:"required,dive"`
}

// RequestValidator checks raw rule request bodies and decodes them. The JSON schema
// checks primitive types, the struct tags check presence.
type RequestValidator struct {
	schema   *gojsonschema.Schema
	validate *validator.Validate
}

// NewRequestValidator compiles the rule request schema and makes validate report
// fields by their JSON names.
func NewRequestValidator(validate *validator.Validate) (*RequestValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(models.RuleRequestSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule request schema: %w", err)
	}

	validate.RegisterTagNameFunc(jsonFieldName)

	return &RequestValidator{
		schema:   schema,
		validate: validate,
	}, nil
}

// Decode validates body and returns the decoded request. On failure the error is a
// *ValidationError listing the violations found.
func (v *RequestValidator) Decode(body []byte) (*models.RuleRequest, error) {
	if len(body) == 0 || !json.Valid(body) {
		return nil, newValidationError(opDecode, FieldError{
			Field:   bodyField,
			Message: "request body must be valid JSON",
			Type:    typeJSON,
		})
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, newValidationError(opDecode, FieldError{
			Field:   bodyField,
			Message: err.Error(),
			Type:    typeJSON,
		})
	}

	if !result.Valid() {
		return nil, newValidationError(opDecode, schemaFieldErrors(result.Errors())...)
	}

	wire, err := decodeWire(body)
	if err != nil {
		return nil, newValidationError(opDecode, FieldError{
			Field:   bodyField,
			Message: err.Error(),
			Type:    typeJSON,
		})
	}

	if err := v.validate.Struct(wire); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("%s: %w", opDecode, err)
		}

		return nil, newValidationError(opDecode, structFieldErrors(validationErrors)...)
	}

	return wire.toModel(), nil
}

// decodeWire reads keys by exact name. encoding/json matches struct fields
// case-insensitively, which would let "rules" override "Rules".
func decodeWire(body []byte) (*ruleRequestWire, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}

	wire := &ruleRequestWire{}

	if err := unmarshalField(fields, "WorkflowName", &wire.WorkflowName); err != nil {
		return nil, err
	}

	raw, ok := fields["Rules"]
	if !ok {
		return wire, nil
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("Rules: %w", err)
	}

	wire.Rules = make([]ruleWire, len(items))

	for i, item := range items {
		rule := &wire.Rules[i]

		for key, dst := range map[string]any{
			"fieldName":    &rule.FieldName,
			"expression":   &rule.Expression,
			"successEvent": &rule.SuccessEvent,
			"errorMessage": &rule.ErrorMessage,
			"enabled":      &rule.Enabled,
		} {
			if err := unmarshalField(item, key, dst); err != nil {
				return nil, fmt.Errorf("Rules.%d: %w", i, err)
			}
		}
	}

	return wire, nil
}

func unmarshalField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	return nil
}

func (w *ruleRequestWire) toModel() *models.RuleRequest {
	rules := make([]models.Rule, 0, len(w.Rules))
	for _, r := range w.Rules {
		rules = append(rules, models.Rule{
			FieldName:    *r.FieldName,
			Expression:   *r.Expression,
			SuccessEvent: *r.SuccessEvent,
			ErrorMessage: *r.ErrorMessage,
			Enabled:      *r.Enabled,
		})
	}

	return &models.RuleRequest{
		WorkflowName: *w.WorkflowName,
		Rules:        rules,
	}
}

func schemaFieldErrors(resultErrors []gojsonschema.ResultError) []FieldError {
	fields := make([]FieldError, 0, len(resultErrors))

	for _, resultErr := range resultErrors {
		field := contextField(resultErr.Context())
		if field == "" {
			field = bodyField
		}

		fields = append(fields, FieldError{
			Field:   field,
			Message: resultErr.Description(),
			Type:    resultErr.Type(),
		})
	}

	sortFields(fields)

	return fields
}

func structFieldErrors(validationErrors validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(validationErrors))

	for _, fieldErr := range validationErrors {
		field := namespaceField(fieldErr.Namespace())

		fields = append(fields, FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s is %s", fieldErr.Field(), fieldErr.Tag()),
			Type:    fieldErr.Tag(),
		})
	}

	sortFields(fields)

	return fields
}

// namespaceField turns "ruleRequestWire.Rules[0].enabled" into "Rules.0.enabled".
func namespaceField(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		namespace = rest
	}

	return strings.NewReplacer("[", ".", "]", "").Replace(namespace)
}

// contextField turns a schema context such as "(root).Rules.0" into "Rules.0".
func contextField(ctx *gojsonschema.JsonContext) string {
	if ctx == nil {
		return ""
	}

	field := ctx.String()
	if field == rootField {
		return ""
	}

	return strings.TrimPrefix(field, rootField+".")
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	return name
}

func sortFields(fields []FieldError) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Field < fields[j].Field
	})
}
