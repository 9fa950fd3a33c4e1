// Package rewrite implements structural search and rewrite of JavaScript
// with "pattern -> replacement" rules whose single-letter identifiers are
// wildcards.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/printer"
)

const tracerName = "jsmorph.rewrite"

// Match is one program node matched by a pattern.
type Match struct {
	Node     *node.Node
	Parent   *node.Node
	Field    string
	Bindings Bindings
}

// SearchResult holds the matches of a search in pre-order.
type SearchResult struct {
	Matches     []Match
	Diagnostics []Diagnostic
}

// RewriteResult holds the rewritten source and the edits that produced it.
// Matches whose replacement prints as the matched text yield no edit.
type RewriteResult struct {
	Output      string
	Matches     []Match
	Edits       []Edit
	Diagnostics []Diagnostic

	source string
}

// Changed reports whether Output differs from the rewritten source.
func (r *RewriteResult) Changed() bool {
	return r.Output != r.source
}

// Engine runs rules over JavaScript sources. It is safe for concurrent use.
type Engine struct {
	parser *estree.Parser
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for diagnostics and edit tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer sets the tracer. Defaults to the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithParser shares an existing parser.
func WithParser(parser *estree.Parser) Option {
	return func(e *Engine) {
		e.parser = parser
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{}

	for _, opt := range opts {
		opt(e)
	}

	if e.parser == nil {
		parser, err := estree.NewParser()
		if err != nil {
			return nil, fmt.Errorf("rewrite: %w", err)
		}

		e.parser = parser
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}

	return e, nil
}

// Parser returns the engine's parser.
func (e *Engine) Parser() *estree.Parser {
	return e.parser
}

// Compile parses a rewrite rule.
func (e *Engine) Compile(ctx context.Context, text string) (*Rule, error) {
	return ParseRule(ctx, e.parser, text)
}

// CompilePattern parses a search rule.
func (e *Engine) CompilePattern(ctx context.Context, text string) (*Rule, error) {
	return ParsePattern(ctx, e.parser, text)
}

// Search finds every node of source matching the pattern half of ruleText.
func (e *Engine) Search(ctx context.Context, source []byte, ruleText string) (*SearchResult, error) {
	rule, err := e.CompilePattern(ctx, ruleText)
	if err != nil {
		return nil, err
	}

	return e.SearchRule(ctx, source, rule)
}

// SearchRule finds every node of source matching rule.Pattern. Every node is
// tried with fresh bindings, including descendants of earlier matches.
func (e *Engine) SearchRule(ctx context.Context, source []byte, rule *Rule) (*SearchResult, error) {
	ctx, span := e.tracer.Start(ctx, "jsmorph.search",
		trace.WithAttributes(attribute.String("jsmorph.rule.text", rule.Text)))
	defer span.End()

	root, err := e.parser.Parse(ctx, source)
	if err != nil {
		recordError(span, err)

		return nil, fmt.Errorf("parse source: %w", err)
	}

	diags := &diagnostics{}
	m := &matcher{diags: diags}

	var matches []Match

	root.Walk(func(frame node.Frame) bool {
		env := Bindings{}
		if m.match(env, rule.Pattern, frame.Node) {
			matches = append(matches, Match{
				Node:     frame.Node,
				Parent:   frame.Parent,
				Field:    frame.Field,
				Bindings: env,
			})
		}

		return true
	})

	diags.log(ctx, e.logger)
	span.SetAttributes(attribute.Int("jsmorph.search.matches", len(matches)))

	return &SearchResult{Matches: matches, Diagnostics: diags.list()}, nil
}

// Rewrite applies ruleText to source. Rule text without exactly one "->"
// leaves source unchanged and is not an error.
func (e *Engine) Rewrite(ctx context.Context, source []byte, ruleText string) (*RewriteResult, error) {
	rule, err := e.Compile(ctx, ruleText)
	if errors.Is(err, ErrMalformedRule) {
		e.logger.DebugContext(ctx, "rewrite: malformed rule, source unchanged", "rule", ruleText)

		return &RewriteResult{Output: string(source), source: string(source)}, nil
	}

	if err != nil {
		return nil, err
	}

	return e.RewriteRule(ctx, source, rule)
}

// RewriteRule replaces every outermost match of rule.Pattern with the
// hydrated replacement. Bytes outside the matches are preserved.
func (e *Engine) RewriteRule(ctx context.Context, source []byte, rule *Rule) (*RewriteResult, error) {
	if !rule.CanRewrite() {
		return nil, ErrNoReplacement
	}

	ctx, span := e.tracer.Start(ctx, "jsmorph.rewrite",
		trace.WithAttributes(attribute.String("jsmorph.rule.text", rule.Text)))
	defer span.End()

	root, err := e.parser.Parse(ctx, source)
	if err != nil {
		recordError(span, err)

		return nil, fmt.Errorf("parse source: %w", err)
	}

	diags := &diagnostics{}
	m := &matcher{diags: diags}
	h := &hydrator{diags: diags}

	var (
		matches []Match
		edits   []Edit
	)

	root.Walk(func(frame node.Frame) bool {
		env := Bindings{}
		if !m.match(env, rule.Pattern, frame.Node) {
			return true
		}

		text := replacementText(frame, h.hydrate(env, rule.Replacement))
		if text != frame.Node.Text(source) {
			edits = append(edits, Edit{Start: frame.Node.Start(), End: frame.Node.End(), Text: text})
		}

		matches = append(matches, Match{
			Node:     frame.Node,
			Parent:   frame.Parent,
			Field:    frame.Field,
			Bindings: env,
		})

		return false
	})

	output, applied := ApplyEdits(source, edits)

	for _, edit := range applied {
		e.logger.DebugContext(ctx, "rewrite: edit", "start", edit.Start, "end", edit.End, "text", edit.Text)
	}

	diags.log(ctx, e.logger)
	span.SetAttributes(
		attribute.Int("jsmorph.rewrite.matches", len(matches)),
		attribute.Int("jsmorph.rewrite.edits", len(applied)),
	)

	return &RewriteResult{
		Output:      output,
		Matches:     matches,
		Edits:       applied,
		Diagnostics: diags.list(),
		source:      string(source),
	}, nil
}

// replacementText prints replacement for the slot of the matched node. A
// match already wrapped in source parentheses keeps them and gets no more.
func replacementText(frame node.Frame, replacement *node.Node) string {
	if frame.Node.Parens > 0 {
		return printer.Print(replacement)
	}

	return printer.PrintIn(frame.Parent, frame.Field, replacement)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
	errDefault    error
)

// Default returns a process-wide Engine using slog.Default.
func Default() (*Engine, error) {
	defaultOnce.Do(func() {
		defaultEngine, errDefault = NewEngine()
	})

	return defaultEngine, errDefault
}

// Search finds the matches of ruleText in source with the default engine.
func Search(ctx context.Context, source, ruleText string) ([]Match, error) {
	e, err := Default()
	if err != nil {
		return nil, err
	}

	result, err := e.Search(ctx, []byte(source), ruleText)
	if err != nil {
		return nil, err
	}

	return result.Matches, nil
}

// Rewrite applies ruleText to source with the default engine.
func Rewrite(ctx context.Context, source, ruleText string) (string, error) {
	e, err := Default()
	if err != nil {
		return "", err
	}

	result, err := e.Rewrite(ctx, []byte(source), ruleText)
	if err != nil {
		return "", err
	}

	return result.Output, nil
}
