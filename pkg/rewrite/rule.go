package rewrite

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree"
	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// Sentinel errors for rule handling.
var (
	// ErrMalformedRule is returned for rule text without exactly one "->".
	ErrMalformedRule = errors.New("malformed rule")
	// ErrNoReplacement is returned when a search-only rule is used to rewrite.
	ErrNoReplacement = errors.New("rule has no replacement")
)

// separatorPattern splits a rule into its pattern and replacement halves.
var separatorPattern = regexp.MustCompile(`\s*->\s*`)

// Rule is a parsed pattern and, for rewrite rules, its replacement.
// Rules are read-only once parsed and may be shared between goroutines.
type Rule struct {
	Text        string
	Pattern     *node.Node
	Replacement *node.Node
}

// CanRewrite reports whether the rule carries a replacement.
func (r *Rule) CanRewrite() bool {
	return r != nil && r.Replacement != nil
}

// IsRewriteRule reports whether text contains a "->" separator.
func IsRewriteRule(text string) bool {
	return separatorPattern.MatchString(text)
}

// SplitRule splits text on the single "->" separator.
func SplitRule(text string) (pattern, replacement string, err error) {
	parts := separatorPattern.Split(text, -1)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedRule, text)
	}

	return parts[0], parts[1], nil
}

// ParseRule parses a "pattern -> replacement" rule. An empty replacement
// deletes what the pattern matches.
func ParseRule(ctx context.Context, parser *estree.Parser, text string) (*Rule, error) {
	patternText, replacementText, err := SplitRule(text)
	if err != nil {
		return nil, err
	}

	pattern, err := parseHalf(ctx, parser, patternText)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}

	replacement, err := parseHalf(ctx, parser, replacementText)
	if err != nil {
		return nil, fmt.Errorf("replacement: %w", err)
	}

	return &Rule{Text: text, Pattern: pattern, Replacement: replacement}, nil
}

// ParsePattern parses text for searching. Text without a separator is the
// pattern; with one separator only the left half is used.
func ParsePattern(ctx context.Context, parser *estree.Parser, text string) (*Rule, error) {
	patternText := text

	if IsRewriteRule(text) {
		left, _, err := SplitRule(text)
		if err != nil {
			return nil, err
		}

		patternText = left
	}

	if strings.TrimSpace(patternText) == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrMalformedRule)
	}

	pattern, err := parseHalf(ctx, parser, patternText)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}

	return &Rule{Text: text, Pattern: pattern}, nil
}

func parseHalf(ctx context.Context, parser *estree.Parser, text string) (*node.Node, error) {
	root, err := parser.ParseString(ctx, text)
	if err != nil {
		return nil, err
	}

	return unwrap(root), nil
}

// unwrap strips the Program and ExpressionStatement wrappers the parser puts
// around a lone expression. Only the first statement of a program is kept.
func unwrap(n *node.Node) *node.Node {
	for n != nil {
		switch {
		case n.Kind == node.Program && len(n.List(node.FieldBody)) > 0:
			n = n.List(node.FieldBody)[0]
		case n.Kind == node.ExpressionStatement:
			n = n.Child(node.FieldExpression)
		default:
			return n
		}
	}

	return n
}
