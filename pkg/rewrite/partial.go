package rewrite

import (
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// partial reports whether every pattern matches a distinct candidate.
// Candidates left over are ignored. Each pattern takes the first remaining
// candidate it matches and that choice is never revisited, so a pattern
// list can fail even when some other assignment would have succeeded.
// Bindings from a rejected candidate are discarded before the next is tried.
func (m *matcher) partial(env Bindings, patterns, candidates []*node.Node) bool {
	pool := slices.Clone(candidates)

	for _, pattern := range patterns {
		found := -1

		for i, candidate := range pool {
			trial := maps.Clone(env)
			if m.match(trial, pattern, candidate) {
				maps.Copy(env, trial)

				found = i

				break
			}
		}

		if found < 0 {
			return false
		}

		pool = slices.Delete(pool, found, found+1)
	}

	return true
}
