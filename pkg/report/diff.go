package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines kept around each change.
const contextLines = 3

type lineOp struct {
	op   diffmatchpatch.Operation
	text string
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	lines              []lineOp
}

// DiffOptions controls unified diff rendering.
type DiffOptions struct {
	// Color enables ANSI colors for headers and changed lines.
	Color bool
}

// UnifiedDiff renders a unified line diff between before and after.
// It returns an empty string when the texts are equal.
func UnifiedDiff(name, before, after string, opts DiffOptions) string {
	if before == after {
		return ""
	}

	lines := diffLines(before, after)
	hunks := groupHunks(lines)

	header, added, removed, meta := palette(opts.Color)

	var buf strings.Builder

	header.Fprintf(&buf, "--- a/%s\n", name)
	header.Fprintf(&buf, "+++ b/%s\n", name)

	for _, h := range hunks {
		meta.Fprintf(&buf, "@@ -%s +%s @@\n", span(h.oldStart, h.oldCount), span(h.newStart, h.newCount))

		for _, line := range h.lines {
			switch line.op {
			case diffmatchpatch.DiffDelete:
				removed.Fprint(&buf, "-"+line.text)
			case diffmatchpatch.DiffInsert:
				added.Fprint(&buf, "+"+line.text)
			case diffmatchpatch.DiffEqual:
				buf.WriteString(" " + line.text)
			}

			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// DiffStat counts inserted and deleted lines between before and after.
func DiffStat(before, after string) (inserted, deleted int) {
	for _, line := range diffLines(before, after) {
		switch line.op {
		case diffmatchpatch.DiffInsert:
			inserted++
		case diffmatchpatch.DiffDelete:
			deleted++
		case diffmatchpatch.DiffEqual:
		}
	}

	return inserted, deleted
}

func diffLines(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []lineOp

	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			lines = append(lines, lineOp{op: d.Type, text: text})
		}
	}

	return lines
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}

	return strings.Split(text, "\n")
}

// groupHunks cuts the line script into hunks separated by more than
// 2*contextLines unchanged lines.
func groupHunks(lines []lineOp) []hunk {
	var (
		hunks   []hunk
		current *hunk
		oldLine = 1
		newLine = 1
		trail   int
	)

	for i, line := range lines {
		changed := line.op != diffmatchpatch.DiffEqual

		if current == nil && changed {
			lead := leadingContext(lines, i)
			current = &hunk{
				oldStart: oldLine - len(lead),
				newStart: newLine - len(lead),
				lines:    lead,
			}
			current.oldCount = len(lead)
			current.newCount = len(lead)
		}

		if current != nil {
			if changed {
				trail = 0
			} else {
				trail++
			}

			if !changed && trail > contextLines && !changeWithin(lines, i, contextLines) {
				hunks = append(hunks, *current)
				current = nil
			} else {
				current.lines = append(current.lines, line)

				switch line.op {
				case diffmatchpatch.DiffDelete:
					current.oldCount++
				case diffmatchpatch.DiffInsert:
					current.newCount++
				case diffmatchpatch.DiffEqual:
					current.oldCount++
					current.newCount++
				}
			}
		}

		switch line.op {
		case diffmatchpatch.DiffDelete:
			oldLine++
		case diffmatchpatch.DiffInsert:
			newLine++
		case diffmatchpatch.DiffEqual:
			oldLine++
			newLine++
		}
	}

	if current != nil {
		hunks = append(hunks, *current)
	}

	return hunks
}

// leadingContext returns up to contextLines unchanged lines before index i.
func leadingContext(lines []lineOp, i int) []lineOp {
	start := i
	for start > 0 && i-start < contextLines && lines[start-1].op == diffmatchpatch.DiffEqual {
		start--
	}

	return append([]lineOp(nil), lines[start:i]...)
}

// changeWithin reports whether a changed line follows i within n lines.
func changeWithin(lines []lineOp, i, n int) bool {
	for j := i + 1; j < len(lines) && j <= i+n; j++ {
		if lines[j].op != diffmatchpatch.DiffEqual {
			return true
		}
	}

	return false
}

func span(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}

	if count == 1 {
		return fmt.Sprintf("%d", start)
	}

	return fmt.Sprintf("%d,%d", start, count)
}

func palette(enabled bool) (header, added, removed, meta *color.Color) {
	header = color.New(color.Bold)
	added = color.New(color.FgGreen)
	removed = color.New(color.FgRed)
	meta = color.New(color.FgCyan)

	for _, c := range []*color.Color{header, added, removed, meta} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return header, added, removed, meta
}
