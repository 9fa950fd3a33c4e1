package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

// diffName labels inline code in returned diffs.
const diffName = "input.js"

// SearchOutput is the result of jsmorph_search.
type SearchOutput struct {
	Matches     []report.MatchView   `json:"matches"`
	Diagnostics []rewrite.Diagnostic `json:"diagnostics,omitempty"`
}

// RewriteOutput is the result of jsmorph_rewrite.
type RewriteOutput struct {
	Output      string               `json:"output"`
	Changed     bool                 `json:"changed"`
	Edits       int                  `json:"edits"`
	Diff        string               `json:"diff,omitempty"`
	Diagnostics []rewrite.Diagnostic `json:"diagnostics,omitempty"`
}

// ParseOutput is the result of jsmorph_parse with a kind filter.
type ParseOutput struct {
	Kind  string           `json:"kind"`
	Nodes []map[string]any `json:"nodes"`
}

// handleSearch processes jsmorph_search tool calls.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SearchInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRuleInput(input.Code, input.Rule)
	if err != nil {
		return errorResult(err)
	}

	source := []byte(input.Code)

	result, err := s.engine.Search(ctx, source, input.Rule)
	if err != nil {
		return errorResult(fmt.Errorf("search: %w", err))
	}

	s.recordRules(ctx, ToolNameSearch, observability.RuleStats{
		Matches:     len(result.Matches),
		Diagnostics: len(result.Diagnostics),
	})

	return jsonResult(SearchOutput{
		Matches:     report.MatchViews("", source, result.Matches),
		Diagnostics: result.Diagnostics,
	})
}

// handleRewrite processes jsmorph_rewrite tool calls.
func (s *Server) handleRewrite(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input RewriteInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRuleInput(input.Code, input.Rule)
	if err != nil {
		return errorResult(err)
	}

	result, err := s.engine.Rewrite(ctx, []byte(input.Code), input.Rule)
	if err != nil {
		return errorResult(fmt.Errorf("rewrite: %w", err))
	}

	s.recordRules(ctx, ToolNameRewrite, observability.RuleStats{
		Matches:     len(result.Matches),
		Edits:       len(result.Edits),
		Diagnostics: len(result.Diagnostics),
	})

	out := RewriteOutput{
		Output:      result.Output,
		Changed:     result.Changed(),
		Edits:       len(result.Edits),
		Diagnostics: result.Diagnostics,
	}

	if input.Diff {
		out.Diff = report.UnifiedDiff(diffName, input.Code, result.Output, report.DiffOptions{})
	}

	return jsonResult(out)
}

// handleApply processes jsmorph_apply tool calls.
func (s *Server) handleApply(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ApplyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	if input.Rules == "" {
		return errorResult(ErrEmptyRuleSet)
	}

	rs, err := ruleset.Parse([]byte(input.Rules))
	if err != nil {
		return errorResult(err)
	}

	compiled, err := rs.Compile(ctx, s.engine, s.logger)
	if err != nil {
		return errorResult(err)
	}

	result, err := compiled.Apply(ctx, s.engine, []byte(input.Code))
	if err != nil {
		return errorResult(fmt.Errorf("apply: %w", err))
	}

	edits := 0
	for _, applied := range result.Applied {
		edits += applied.Edits
	}

	s.recordRules(ctx, ToolNameApply, observability.RuleStats{
		Edits:       edits,
		Diagnostics: len(result.Diagnostics),
	})

	return jsonResult(result)
}

// handleParse processes jsmorph_parse tool calls.
func (s *Server) handleParse(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	root, err := s.engine.Parser().ParseString(ctx, input.Code)
	if err != nil {
		return errorResult(fmt.Errorf("parse code: %w", err))
	}

	if input.Kind == "" {
		return jsonResult(root.ToMap())
	}

	return jsonResult(filterByKind(root, node.Kind(input.Kind)))
}

// filterByKind collects every node of the given kind in pre-order.
func filterByKind(root *node.Node, kind node.Kind) ParseOutput {
	found := root.Find(func(n *node.Node) bool { return n.Kind == kind })

	out := ParseOutput{Kind: string(kind), Nodes: make([]map[string]any, 0, len(found))}
	for _, n := range found {
		out.Nodes = append(out.Nodes, n.ToMap())
	}

	return out
}
