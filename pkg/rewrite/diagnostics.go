package rewrite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// Phase names the engine stage that produced a diagnostic.
type Phase string

// Engine phases.
const (
	PhaseMatch   Phase = "match"
	PhaseHydrate Phase = "hydrate"
)

// Diagnostic reports a node kind the engine could not handle.
type Diagnostic struct {
	Phase   Phase           `json:"phase"`
	Kind    node.Kind       `json:"kind"`
	Message string          `json:"message"`
	Pos     *node.Positions `json:"pos,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Pos == nil {
		return fmt.Sprintf("%s: %s", d.Phase, d.Message)
	}

	return fmt.Sprintf("%s: %s at %d:%d", d.Phase, d.Message, d.Pos.StartLine, d.Pos.StartCol)
}

type diagnosticKey struct {
	phase Phase
	kind  node.Kind
}

// diagnostics collects one Diagnostic per (phase, kind) for a single call.
type diagnostics struct {
	items []Diagnostic
	seen  map[diagnosticKey]bool
}

func (d *diagnostics) unsupported(phase Phase, n *node.Node) {
	key := diagnosticKey{phase: phase, kind: n.Kind}

	if d.seen == nil {
		d.seen = make(map[diagnosticKey]bool)
	}

	if d.seen[key] {
		return
	}

	d.seen[key] = true

	kind := string(n.Kind)
	if n.Kind == node.Opaque && n.Prop(node.PropType) != "" {
		kind = fmt.Sprintf("%s(%s)", n.Kind, n.Prop(node.PropType))
	}

	d.items = append(d.items, Diagnostic{
		Phase:   phase,
		Kind:    n.Kind,
		Message: kind + " not supported in " + string(phase),
		Pos:     n.Pos,
	})
}

func (d *diagnostics) list() []Diagnostic {
	return d.items
}

func (d *diagnostics) log(ctx context.Context, logger *slog.Logger) {
	for _, diag := range d.items {
		logger.WarnContext(ctx, "rewrite: unsupported node",
			"phase", string(diag.Phase),
			"kind", string(diag.Kind),
			"message", diag.Message,
		)
	}
}
