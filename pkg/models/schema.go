package models

// JSONSchema represents a JSON Schema document used to check request bodies.
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// RuleSchema describes a single Rule object.
func RuleSchema() *Property {
	return &Property{
		Type:        "object",
		Description: "A field-level validation rule",
		Properties: map[string]*Property{
			"fieldName": {
				Type:        "string",
				Description: "Data field the rule applies to",
			},
			"expression": {
				Type:        "string",
				Description: "Rule expression, never evaluated by this service",
			},
			"successEvent": {
				Type:        "string",
				Description: "Event label fired on success",
			},
			"errorMessage": {
				Type:        "string",
				Description: "Message surfaced on failure",
			},
			"enabled": {
				Type:        "boolean",
				Description: "Whether the rule is active",
			},
		},
	}
}

// RuleRequestSchema declares the types of the body accepted by the rule intake
// endpoint. Field presence is checked by the request decoder.
func RuleRequestSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Title:       "RuleRequest",
		Description: "A workflow name and its ordered list of rules",
		Properties: map[string]*Property{
			"WorkflowName": {
				Type:        "string",
				Description: "Workflow the rules belong to",
			},
			"Rules": {
				Type:        "array",
				Description: "Ordered rules, possibly empty",
				Items:       RuleSchema(),
			},
		},
	}
}
