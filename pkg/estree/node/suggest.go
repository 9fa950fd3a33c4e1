package node

import "strings"

// Known reports whether kind is one of the kinds produced by the parser.
func Known(kind Kind) bool {
	_, ok := shapes[kind]

	return ok && kind != Opaque
}

// Closest returns the known kind nearest to name by edit distance, ignoring
// case. It reports false when no kind is close enough to be a likely typo.
func Closest(name string) (Kind, bool) {
	needle := strings.ToLower(name)
	limit := max(2, len([]rune(needle))/3)

	var (
		best     Kind
		bestDist = limit + 1
		d        distance
	)

	for _, kind := range Kinds() {
		dist := d.between(needle, strings.ToLower(string(kind)))
		if dist < bestDist {
			best, bestDist = kind, dist
		}
	}

	return best, bestDist <= limit
}

// distance computes Levenshtein distances over runes, reusing one row
// buffer across calls.
type distance struct {
	row []int
}

func (d *distance) between(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(rb) == 0 {
		return len(ra)
	}

	if cap(d.row) < len(ra)+1 {
		d.row = make([]int, len(ra)+1)
	}

	row := d.row[:len(ra)+1]
	for i := range row {
		row[i] = i
	}

	for j, cb := range rb {
		diag := row[0]
		row[0] = j + 1

		for i, ca := range ra {
			cost := 1
			if ca == cb {
				cost = 0
			}

			above := row[i+1]
			row[i+1] = min(above+1, row[i]+1, diag+cost)
			diag = above
		}
	}

	return row[len(ra)]
}
