// Package ruleset loads named rewrite rules from YAML and applies them in
// order.
package ruleset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
)

// Sentinel errors for rule-set handling.
var (
	ErrInvalidRuleSet = errors.New("invalid rule set")
	ErrDuplicateRule  = errors.New("duplicate rule name")
	ErrInvalidRule    = errors.New("invalid rule")
)

// Rule is one named entry of a rule-set file.
type Rule struct {
	Name        string `yaml:"name"                  json:"name"`
	Rule        string `yaml:"rule"                  json:"rule"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     *bool  `yaml:"enabled,omitempty"     json:"enabled,omitempty"`
}

// IsEnabled reports whether the rule runs. Rules are enabled unless set otherwise.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// RuleSet is an ordered list of rules.
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules"`
	// Path is the file the set was loaded from, if any.
	Path string `yaml:"-" json:"-"`
}

// Load reads and validates a rule-set file.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rs.Path = path

	return rs, nil
}

// Parse decodes and validates a rule-set document.
func Parse(data []byte) (*RuleSet, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleSet, err)
	}

	err = validateDocument(doc)
	if err != nil {
		return nil, err
	}

	var rs RuleSet

	err = yaml.Unmarshal(data, &rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleSet, err)
	}

	seen := make(map[string]bool, len(rs.Rules))

	for _, rule := range rs.Rules {
		if seen[rule.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, rule.Name)
		}

		seen[rule.Name] = true
	}

	return &rs, nil
}

// Enabled returns the enabled rules in file order.
func (rs *RuleSet) Enabled() []Rule {
	enabled := make([]Rule, 0, len(rs.Rules))

	for _, rule := range rs.Rules {
		if rule.IsEnabled() {
			enabled = append(enabled, rule)
		}
	}

	return enabled
}

// CompiledRule pairs a rule-set entry with its parsed form.
type CompiledRule struct {
	Rule

	Compiled *rewrite.Rule
}

// Compiled is a rule set ready to run.
type Compiled struct {
	Rules  []CompiledRule
	logger *slog.Logger
}

// Compile parses every enabled rule. Rules without "->" compile as
// search-only rules. All failures are reported together.
func (rs *RuleSet) Compile(ctx context.Context, engine *rewrite.Engine, logger *slog.Logger) (*Compiled, error) {
	if logger == nil {
		logger = slog.Default()
	}

	compiled := &Compiled{logger: logger}

	var errs []error

	for _, rule := range rs.Enabled() {
		var (
			parsed *rewrite.Rule
			err    error
		)

		if rewrite.IsRewriteRule(rule.Rule) {
			parsed, err = engine.Compile(ctx, rule.Rule)
		} else {
			parsed, err = engine.CompilePattern(ctx, rule.Rule)
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("%w %q: %w", ErrInvalidRule, rule.Name, err))

			continue
		}

		compiled.Rules = append(compiled.Rules, CompiledRule{Rule: rule, Compiled: parsed})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return compiled, nil
}

// AppliedRule records one rule that changed the source.
type AppliedRule struct {
	Name  string `json:"name"`
	Edits int    `json:"edits"`
}

// Result is the outcome of applying a rule set.
type Result struct {
	Output      string               `json:"output"`
	Applied     []AppliedRule        `json:"applied"`
	Diagnostics []rewrite.Diagnostic `json:"diagnostics,omitempty"`

	source string
}

// Changed reports whether Output differs from the source the rules ran on.
// Rules may undo each other, so Applied alone does not tell.
func (r *Result) Changed() bool {
	return r.Output != r.source
}

// Apply runs every rewrite rule in order, each on the output of the
// previous one. Search-only rules are skipped.
func (c *Compiled) Apply(ctx context.Context, engine *rewrite.Engine, source []byte) (*Result, error) {
	result := &Result{Output: string(source), source: string(source)}
	current := source

	for _, rule := range c.Rules {
		if !rule.Compiled.CanRewrite() {
			continue
		}

		ruleCtx := observability.WithLogAttrs(ctx, slog.String(observability.AttrRule, rule.Name))

		rewritten, err := engine.RewriteRule(ruleCtx, current, rule.Compiled)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}

		result.Diagnostics = append(result.Diagnostics, rewritten.Diagnostics...)

		if !rewritten.Changed() {
			continue
		}

		c.logger.InfoContext(ruleCtx, "ruleset: applied rule", "edits", len(rewritten.Edits))

		result.Applied = append(result.Applied, AppliedRule{Name: rule.Name, Edits: len(rewritten.Edits)})
		result.Output = rewritten.Output
		current = []byte(rewritten.Output)
	}

	return result, nil
}

// Finding is a match of one named rule.
type Finding struct {
	Rule  CompiledRule
	Match rewrite.Match
}

// Search runs the pattern of every rule over source and returns the
// findings grouped by rule in file order.
func (c *Compiled) Search(ctx context.Context, engine *rewrite.Engine, source []byte) ([]Finding, error) {
	var findings []Finding

	for _, rule := range c.Rules {
		ruleCtx := observability.WithLogAttrs(ctx, slog.String(observability.AttrRule, rule.Name))

		searched, err := engine.SearchRule(ruleCtx, source, rule.Compiled)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}

		for _, match := range searched.Matches {
			findings = append(findings, Finding{Rule: rule, Match: match})
		}
	}

	return findings, nil
}
