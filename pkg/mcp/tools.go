package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameSearch  = "jsmorph_search"
	ToolNameRewrite = "jsmorph_rewrite"
	ToolNameApply   = "jsmorph_apply"
	ToolNameParse   = "jsmorph_parse"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrEmptyRule indicates the rule parameter is empty.
	ErrEmptyRule = errors.New("rule parameter is required and must not be empty")
	// ErrEmptyRuleSet indicates the rules parameter is empty.
	ErrEmptyRuleSet = errors.New("rules parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// SearchInput is the input schema for the jsmorph_search tool.
type SearchInput struct {
	Code string `json:"code" jsonschema:"JavaScript source to search"`
	Rule string `json:"rule" jsonschema:"pattern to search for; text after '->' is ignored"`
}

// RewriteInput is the input schema for the jsmorph_rewrite tool.
type RewriteInput struct {
	Code string `json:"code"           jsonschema:"JavaScript source to rewrite"`
	Diff bool   `json:"diff,omitempty" jsonschema:"also return a unified diff of the change"`
	Rule string `json:"rule"           jsonschema:"rewrite rule of the form 'pattern -> replacement'"`
}

// ApplyInput is the input schema for the jsmorph_apply tool.
type ApplyInput struct {
	Code  string `json:"code"  jsonschema:"JavaScript source to rewrite"`
	Rules string `json:"rules" jsonschema:"YAML rule-set document"`
}

// ParseInput is the input schema for the jsmorph_parse tool.
type ParseInput struct {
	Code string `json:"code"           jsonschema:"JavaScript source to parse"`
	Kind string `json:"kind,omitempty" jsonschema:"optional node kind filter (e.g. CallExpression)"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateCode checks common code input constraints.
func validateCode(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}

// validateRuleInput checks the code and rule of a search or rewrite call.
func validateRuleInput(code, rule string) error {
	err := validateCode(code)
	if err != nil {
		return err
	}

	if rule == "" {
		return ErrEmptyRule
	}

	return nil
}
