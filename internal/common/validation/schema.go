package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SearchInputSchema constrains the variables a caller hands to a search:
// a single non-blank question.
const SearchInputSchema = `{
  "type": "object",
  "properties": {
    "question": {
      "type": "string",
      "minLength": 1,
      "pattern": "\\S"
    }
  },
  "required": ["question"]
}`

var searchInputLoader = gojsonschema.NewStringLoader(SearchInputSchema)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks input against a JSON schema document.
func ValidateInput(input map[string]interface{}, schemaJSON string) (*ValidationResult, error) {
	return validate(gojsonschema.NewStringLoader(schemaJSON), input)
}

// ValidateSearchInput checks input against SearchInputSchema.
func ValidateSearchInput(input map[string]interface{}) *ValidationResult {
	result, err := validate(searchInputLoader, input)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "SCHEMA_ERROR",
		}}}
	}
	return result
}

func validate(schema gojsonschema.JSONLoader, input map[string]interface{}) (*ValidationResult, error) {
	if input == nil {
		input = map[string]interface{}{}
	}

	res, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: res.Valid()}
	for _, desc := range res.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
