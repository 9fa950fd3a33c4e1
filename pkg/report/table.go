package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

const msgNoMatches = "No matches"

// MatchTable renders views as a borderless table.
func MatchTable(views []MatchView) string {
	if len(views) == 0 {
		return msgNoMatches
	}

	withRule := false

	for _, v := range views {
		if v.Rule != "" {
			withRule = true

			break
		}
	}

	tbl := newTable()

	header := table.Row{"Location", "Kind", "Text", "Bindings"}
	if withRule {
		header = append(table.Row{"Rule"}, header...)
	}

	tbl.AppendHeader(header)

	for _, v := range views {
		row := table.Row{v.Location(), v.Kind, Snippet(v.Text), bindingsText(v.Bindings)}
		if withRule {
			row = append(table.Row{v.Rule}, row...)
		}

		tbl.AppendRow(row)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %s matches", humanize.Comma(int64(len(views))))})

	return tbl.Render()
}

// Summary holds the totals of a batch run.
type Summary struct {
	Files    int           `json:"files"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Matches  int           `json:"matches"`
	Changed  int           `json:"changed"`
	Bytes    uint64        `json:"bytes"`
	Duration time.Duration `json:"duration_ns"`
}

// SummaryTable renders the totals of a batch run.
func SummaryTable(s Summary) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Files", humanize.Comma(int64(s.Files))},
		{"Skipped", humanize.Comma(int64(s.Skipped))},
		{"Failed", humanize.Comma(int64(s.Failed))},
		{"Matches", humanize.Comma(int64(s.Matches))},
		{"Changed", humanize.Comma(int64(s.Changed))},
		{"Scanned", humanize.Bytes(s.Bytes)},
		{"Elapsed", s.Duration.Round(time.Millisecond).String()},
	})

	return tbl.Render()
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	return tbl
}
