package ruleset

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaFS contains the embedded rule-set JSON schema.
//
//go:embed ruleset-schema.json
var SchemaFS embed.FS

const schemaFile = "ruleset-schema.json"

// Issue is one schema violation.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// ValidationError lists every schema violation of a rule-set document.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))

	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}

	return fmt.Sprintf("%s: %s", ErrInvalidRuleSet, strings.Join(parts, "; "))
}

// Unwrap makes errors.Is(err, ErrInvalidRuleSet) hold.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRuleSet
}

// validateDocument checks a decoded YAML document against the schema.
func validateDocument(doc any) error {
	schemaBytes, err := SchemaFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	issues := make([]Issue, 0, len(result.Errors()))

	for _, verr := range result.Errors() {
		issues = append(issues, Issue{Field: verr.Field(), Message: verr.Description()})
	}

	return &ValidationError{Issues: issues}
}
