package lsp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

const diagnosticSource = "jsmorph"

// hit is a finding located in a document, with the rewrite it offers.
type hit struct {
	finding ruleset.Finding
	rng     protocol.Range
	span    uint
	fix     *rewrite.Edit
	text    string
}

// diagnose reports a syntax error, or one diagnostic per rule finding.
func (srv *Server) diagnose(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	_, err := srv.engine.Parser().ParseString(context.Background(), text)
	if err != nil {
		var syntaxErr *estree.SyntaxError
		if errors.As(err, &syntaxErr) {
			diagnostics = append(diagnostics, syntaxDiagnostic(text, syntaxErr))
		} else {
			srv.logger.Warn("lsp: parse failed", "error", err)
		}

		return diagnostics
	}

	for _, h := range srv.findingsAt(text, nil) {
		diagnostics = append(diagnostics, findingDiagnostic(h))
	}

	return diagnostics
}

// findingsAt runs every rule over text and keeps the findings whose range
// satisfies keep. A nil keep keeps all of them.
func (srv *Server) findingsAt(text string, keep func(protocol.Range) bool) []hit {
	ctx := context.Background()
	source := []byte(text)

	findings, err := srv.rules.Search(ctx, srv.engine, source)
	if err != nil {
		srv.logger.Debug("lsp: search failed", "error", err)

		return nil
	}

	fixes := make(map[string]map[uint]rewrite.Edit)

	var hits []hit

	for _, finding := range findings {
		start, end := finding.Match.Node.Start(), finding.Match.Node.End()

		rng := rangeOf(text, start, end)
		if keep != nil && !keep(rng) {
			continue
		}

		h := hit{finding: finding, rng: rng, span: end - start, text: finding.Match.Node.Text(source)}

		if edit, ok := srv.fixOf(ctx, fixes, source, finding.Rule)[start]; ok && edit.End == end {
			h.fix = &edit
		}

		hits = append(hits, h)
	}

	return hits
}

// fixOf returns the edits of one rewrite rule keyed by start offset, computed
// once per rule.
func (srv *Server) fixOf(
	ctx context.Context,
	cache map[string]map[uint]rewrite.Edit,
	source []byte,
	rule ruleset.CompiledRule,
) map[uint]rewrite.Edit {
	if edits, ok := cache[rule.Name]; ok {
		return edits
	}

	edits := make(map[uint]rewrite.Edit)
	cache[rule.Name] = edits

	if !rule.Compiled.CanRewrite() {
		return edits
	}

	result, err := srv.engine.RewriteRule(ctx, source, rule.Compiled)
	if err != nil {
		srv.logger.Debug("lsp: rewrite failed", "rule", rule.Name, "error", err)

		return edits
	}

	for _, edit := range result.Edits {
		edits[edit.Start] = edit
	}

	return edits
}

// fixAll offers a source action applying the whole rule set to the document.
func (srv *Server) fixAll(uri, text string) (protocol.CodeAction, bool) {
	result, err := srv.rules.Apply(context.Background(), srv.engine, []byte(text))
	if err != nil || !result.Changed() {
		return protocol.CodeAction{}, false
	}

	kind := protocol.CodeActionKindSourceFixAll

	return protocol.CodeAction{
		Title: fmt.Sprintf("Apply %d jsmorph rule(s)", len(result.Applied)),
		Kind:  &kind,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				uri: {{Range: rangeOf(text, 0, uint(len(text))), NewText: result.Output}},
			},
		},
	}, true
}

func quickFix(uri string, h hit) protocol.CodeAction {
	kind := protocol.CodeActionKindQuickFix
	preferred := true
	diagnostic := findingDiagnostic(h)

	return protocol.CodeAction{
		Title:       fmt.Sprintf("%s: rewrite to %s", h.finding.Rule.Name, report.Snippet(h.fix.Text)),
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diagnostic},
		IsPreferred: &preferred,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				uri: {{Range: h.rng, NewText: h.fix.Text}},
			},
		},
	}
}

func findingDiagnostic(h hit) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityInformation
	if h.finding.Rule.Compiled.CanRewrite() {
		severity = protocol.DiagnosticSeverityWarning
	}

	source := diagnosticSource

	message := h.finding.Rule.Description
	if message == "" {
		message = h.finding.Rule.Rule.Rule
	}

	return protocol.Diagnostic{
		Range:    h.rng,
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: h.finding.Rule.Name},
		Source:   &source,
		Message:  message,
	}
}

func syntaxDiagnostic(text string, syntaxErr *estree.SyntaxError) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := diagnosticSource
	end := min(syntaxErr.Offset+uint(len(syntaxErr.Near)), uint(len(text)))

	return protocol.Diagnostic{
		Range:    rangeOf(text, syntaxErr.Offset, end),
		Severity: &severity,
		Source:   &source,
		Message:  syntaxErr.Error(),
	}
}

func hoverText(h hit) string {
	var sb strings.Builder

	rule := h.finding.Rule

	fmt.Fprintf(&sb, "**%s** `%s`\n", rule.Name, rule.Rule.Rule)

	if rule.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", rule.Description)
	}

	bindings := h.finding.Match.Bindings.Text()
	for _, name := range h.finding.Match.Bindings.Names() {
		fmt.Fprintf(&sb, "\n- `%s` = `%s`", name, bindings[name])
	}

	if h.fix != nil {
		fmt.Fprintf(&sb, "\n\nRewrites `%s` to `%s`", report.Snippet(h.text), report.Snippet(h.fix.Text))
	}

	return sb.String()
}

// narrowest returns the hit with the smallest span, the first one on ties.
func narrowest(hits []hit) hit {
	best := hits[0]

	for _, h := range hits[1:] {
		if h.span < best.span {
			best = h
		}
	}

	return best
}
