package batch

import (
	"context"

	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

// SearchJob reports the matches of rule in each file.
func SearchJob(engine *rewrite.Engine, rule *rewrite.Rule) Job {
	return func(ctx context.Context, path string, source []byte) (*Outcome, error) {
		result, err := engine.SearchRule(ctx, source, rule)
		if err != nil {
			return nil, err
		}

		return &Outcome{Matches: report.MatchViews(path, source, result.Matches)}, nil
	}
}

// RewriteJob applies rule to each file.
func RewriteJob(engine *rewrite.Engine, rule *rewrite.Rule) Job {
	return func(ctx context.Context, path string, source []byte) (*Outcome, error) {
		result, err := engine.RewriteRule(ctx, source, rule)
		if err != nil {
			return nil, err
		}

		return &Outcome{
			Matches: report.MatchViews(path, source, result.Matches),
			Output:  result.Output,
			Changed: result.Changed(),
		}, nil
	}
}

// ApplyJob applies a compiled rule set to each file.
func ApplyJob(engine *rewrite.Engine, rules *ruleset.Compiled) Job {
	return func(ctx context.Context, _ string, source []byte) (*Outcome, error) {
		result, err := rules.Apply(ctx, engine, source)
		if err != nil {
			return nil, err
		}

		return &Outcome{Output: result.Output, Changed: result.Changed()}, nil
	}
}

// FindJob reports the matches of every rule of a compiled rule set.
func FindJob(engine *rewrite.Engine, rules *ruleset.Compiled) Job {
	return func(ctx context.Context, path string, source []byte) (*Outcome, error) {
		findings, err := rules.Search(ctx, engine, source)
		if err != nil {
			return nil, err
		}

		views := make([]report.MatchView, 0, len(findings))

		for _, finding := range findings {
			view := report.NewMatchView(path, source, finding.Match)
			view.Rule = finding.Rule.Name
			views = append(views, view)
		}

		return &Outcome{Matches: views}, nil
	}
}
