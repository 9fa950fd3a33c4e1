package rewrite

import (
	"slices"
	"strings"
)

// Edit replaces source bytes [Start, End) with Text.
type Edit struct {
	Start uint   `json:"start"`
	End   uint   `json:"end"`
	Text  string `json:"text"`
}

// ApplyEdits splices edits into source in one pass ordered by start offset.
// An edit that overlaps an earlier one, or falls outside source, is dropped.
// It returns the new text and the edits that were applied.
func ApplyEdits(source []byte, edits []Edit) (string, []Edit) {
	if len(edits) == 0 {
		return string(source), nil
	}

	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b Edit) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	var (
		out     strings.Builder
		applied []Edit
		cursor  uint
	)

	out.Grow(len(source))

	for _, edit := range sorted {
		if edit.Start < cursor || edit.End < edit.Start || edit.End > uint(len(source)) {
			continue
		}

		out.Write(source[cursor:edit.Start])
		out.WriteString(edit.Text)

		cursor = edit.End
		applied = append(applied, edit)
	}

	out.Write(source[cursor:])

	return out.String(), applied
}
