package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
)

func search(t *testing.T, source, rule string) []rewrite.Match {
	t.Helper()

	engine, err := rewrite.NewEngine()
	require.NoError(t, err)

	result, err := engine.Search(context.Background(), []byte(source), rule)
	require.NoError(t, err)

	return result.Matches
}

func TestMatchViews(t *testing.T) {
	t.Parallel()

	source := "f(1, 2);\nf(3, 4);\n"
	views := MatchViews("app.js", []byte(source), search(t, source, "f(a, b)"))
	require.Len(t, views, 2)

	assert.Equal(t, MatchView{
		File:     "app.js",
		Kind:     "CallExpression",
		Line:     1,
		Column:   1,
		Start:    0,
		End:      7,
		Text:     "f(1, 2)",
		Bindings: map[string]string{"a": "1", "b": "2", "f": "f"},
	}, views[0])

	assert.Equal(t, uint(2), views[1].Line)
	assert.Equal(t, uint(9), views[1].Start)
	assert.Equal(t, "app.js:2:1", views[1].Location())
}

func TestMatchViewWithoutBindings(t *testing.T) {
	t.Parallel()

	source := "foo(bar)"
	views := MatchViews("", []byte(source), search(t, source, "bar"))
	require.Len(t, views, 1)

	assert.Nil(t, views[0].Bindings)
	assert.Equal(t, uint(5), views[0].Column)
	assert.Equal(t, "<stdin>:1:5: bar", views[0].Compact())

	views[0].Rule = "no-bar"
	assert.Equal(t, "<stdin>:1:5: bar [no-bar]", views[0].Compact())
}

func TestSnippet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "short", input: "a + b", want: "a + b"},
		{name: "whitespace collapsed", input: "f(\n    a,\n    b\n)", want: "f( a, b )"},
		{name: "truncated", input: strings.Repeat("x", 80), want: strings.Repeat("x", maxSnippet-1) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Snippet(tt.input))
		})
	}
}

func TestBindingsTextSorted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a=1 b=x + y", bindingsText(map[string]string{"b": "x + y", "a": "1"}))
	assert.Empty(t, bindingsText(nil))
}

func TestUnifiedDiff(t *testing.T) {
	t.Parallel()

	before := "a;\nb;\nc;\n"
	after := "a;\nB;\nc;\n"

	want := strings.Join([]string{
		"--- a/x.js",
		"+++ b/x.js",
		"@@ -1,3 +1,3 @@",
		" a;",
		"-b;",
		"+B;",
		" c;",
		"",
	}, "\n")

	assert.Equal(t, want, UnifiedDiff("x.js", before, after, DiffOptions{}))
}

func TestUnifiedDiffEqual(t *testing.T) {
	t.Parallel()

	assert.Empty(t, UnifiedDiff("x.js", "same;\n", "same;\n", DiffOptions{}))
}

func TestUnifiedDiffSplitsDistantHunks(t *testing.T) {
	t.Parallel()

	var beforeLines, afterLines []string

	for i := range 20 {
		line := string(rune('a'+i)) + ";"
		beforeLines = append(beforeLines, line)

		switch i {
		case 1, 17:
			afterLines = append(afterLines, strings.ToUpper(line))
		default:
			afterLines = append(afterLines, line)
		}
	}

	before := strings.Join(beforeLines, "\n") + "\n"
	after := strings.Join(afterLines, "\n") + "\n"

	out := UnifiedDiff("x.js", before, after, DiffOptions{})

	assert.Equal(t, 2, strings.Count(out, "@@ -"))
	assert.Contains(t, out, "@@ -1,5 +1,5 @@")
	assert.Contains(t, out, "@@ -15,6 +15,6 @@")
	assert.NotContains(t, out, " j;")
}

func TestUnifiedDiffColor(t *testing.T) {
	t.Parallel()

	out := UnifiedDiff("x.js", "a;\n", "b;\n", DiffOptions{Color: true})
	assert.Contains(t, out, "\x1b[")

	plain := UnifiedDiff("x.js", "a;\n", "b;\n", DiffOptions{})
	assert.NotContains(t, plain, "\x1b[")
	assert.Contains(t, plain, "@@ -1 +1 @@")
}

func TestDiffStat(t *testing.T) {
	t.Parallel()

	inserted, deleted := DiffStat("a;\nb;\n", "a;\nc;\nd;\n")
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 1, deleted)
}

func TestMatchTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, msgNoMatches, MatchTable(nil))

	views := []MatchView{
		{File: "a.js", Kind: "CallExpression", Line: 3, Column: 7, Text: "f(1)", Bindings: map[string]string{"a": "1"}},
	}

	out := MatchTable(views)
	assert.Contains(t, out, "a.js:3:7")
	assert.Contains(t, out, "CallExpression")
	assert.Contains(t, out, "a=1")
	assert.NotContains(t, strings.ToUpper(out), "RULE")

	views[0].Rule = "calls"
	assert.Contains(t, strings.ToUpper(MatchTable(views)), "RULE")
}

func TestSummaryTable(t *testing.T) {
	t.Parallel()

	out := SummaryTable(Summary{Files: 1200, Matches: 3, Changed: 2, Bytes: 2_500_000, Duration: 1500 * time.Millisecond})

	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "2.5 MB")
	assert.Contains(t, out, "1.5s")
}
