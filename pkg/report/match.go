// Package report renders search and rewrite results for people and tools.
package report

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
)

// maxSnippet bounds matched text in table and compact output.
const maxSnippet = 60

// MatchView is the serializable form of one match.
type MatchView struct {
	File     string            `json:"file,omitempty"`
	Rule     string            `json:"rule,omitempty"`
	Kind     string            `json:"kind"`
	Line     uint              `json:"line"`
	Column   uint              `json:"column"`
	Start    uint              `json:"start"`
	End      uint              `json:"end"`
	Text     string            `json:"text"`
	Bindings map[string]string `json:"bindings,omitempty"`
}

// NewMatchView builds the view of a match found in source.
func NewMatchView(file string, source []byte, match rewrite.Match) MatchView {
	view := MatchView{
		File:     file,
		Kind:     string(match.Node.Kind),
		Start:    match.Node.Start(),
		End:      match.Node.End(),
		Text:     match.Node.Text(source),
		Bindings: match.Bindings.Text(),
	}

	if match.Node.Pos != nil {
		view.Line = match.Node.Pos.StartLine
		view.Column = match.Node.Pos.StartCol
	}

	if len(view.Bindings) == 0 {
		view.Bindings = nil
	}

	return view
}

// MatchViews converts every match of one file.
func MatchViews(file string, source []byte, matches []rewrite.Match) []MatchView {
	views := make([]MatchView, 0, len(matches))

	for _, match := range matches {
		views = append(views, NewMatchView(file, source, match))
	}

	return views
}

// Location formats the match position as file:line:column.
func (v MatchView) Location() string {
	file := v.File
	if file == "" {
		file = "<stdin>"
	}

	return fmt.Sprintf("%s:%d:%d", file, v.Line, v.Column)
}

// Compact renders the view on one line, grep style.
func (v MatchView) Compact() string {
	line := v.Location() + ": " + Snippet(v.Text)
	if v.Rule != "" {
		line += " [" + v.Rule + "]"
	}

	return line
}

// Snippet collapses whitespace and truncates text for single-line output.
func Snippet(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")

	runes := []rune(collapsed)
	if len(runes) > maxSnippet {
		return string(runes[:maxSnippet-1]) + "…"
	}

	return collapsed
}

func bindingsText(bindings map[string]string) string {
	parts := make([]string, 0, len(bindings))

	for _, name := range slices.Sorted(maps.Keys(bindings)) {
		parts = append(parts, name+"="+Snippet(bindings[name]))
	}

	return strings.Join(parts, " ")
}
