// Package report renders scored riders and insights as terminal tables and
// spreadsheet workbooks.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/okian/peloton/internal/domain/analytics"
	"github.com/okian/peloton/internal/domain/scoring"
)

// RiderHeader is the column layout shared by the table and the workbook.
var RiderHeader = []string{
	"Name", "Team", "Position", "Stars", "Points", "UCI", "Pts/Star",
	"Z", "Tier", "Outlier", "Consistency", "Trend",
}

// WriteTable renders riders as a table.
func WriteTable(w io.Writer, riders []scoring.ScoredRider) {
	t := newTable(w)
	t.AppendHeader(headerRow(RiderHeader))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, r := range riders {
		t.AppendRow(table.Row{
			r.Name, r.Team, r.Position,
			fmt.Sprintf("%g", r.Cost),
			fmt.Sprintf("%.0f", r.Performance),
			fmt.Sprintf("%.0f", r.UCIPoints),
			formatRatio(r.ValueRatio),
			fmt.Sprintf("%.2f", r.ZScore),
			string(r.Tier),
			string(r.OutlierClass),
			consistency(r.ResultsCount, r.Consistency),
			trend(r.ResultsCount, r.Trend),
		})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d riders", len(riders))})
	t.Render()
}

// WriteInsights renders the headline numbers, outliers, value picks and
// grouped statistics of a report.
func WriteInsights(w io.Writer, rep analytics.Report) {
	s := rep.Summary
	t := newTable(w)
	t.SetTitle("Summary")
	t.AppendRows([]table.Row{
		{"Riders", s.Riders},
		{"Riders with points", s.RidersWithPoints},
		{"Mean points", fmt.Sprintf("%.1f", s.MeanPoints)},
		{"Median points", fmt.Sprintf("%.1f", s.MedianPoints)},
		{"Std dev points", fmt.Sprintf("%.1f", s.StdDevPoints)},
		{"Best rider", fmt.Sprintf("%s (%.0f)", s.BestRider, s.BestPoints)},
		{"Mean points per star", fmt.Sprintf("%.2f", s.MeanPointsPerStar)},
		{"Mean stars", fmt.Sprintf("%.2f", s.MeanStars)},
	})
	if tl := rep.TrendLine; tl != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Trend line", fmt.Sprintf("points = %.1f + %.1f x stars (R² %.2f, n=%d)", tl.Intercept, tl.Slope, tl.RSquared, tl.N)})
	}
	t.Render()

	t = newTable(w)
	t.SetTitle("Tiers")
	t.AppendHeader(table.Row{"Tier", "Riders"})
	for _, tier := range scoring.Tiers {
		t.AppendRow(table.Row{tier, rep.Tiers[tier]})
	}
	t.AppendSeparator()
	for _, vt := range sortedValueTiers(rep.ValueTiers) {
		t.AppendRow(table.Row{"Value: " + string(vt), rep.ValueTiers[vt]})
	}
	t.Render()

	writeEfficiency(w, "Overperformers", rep.Overperformers)
	writeEfficiency(w, "Underperformers", rep.Underperformers)

	t = newTable(w)
	t.SetTitle("Value picks")
	t.AppendHeader(table.Row{"Name", "Team", "Stars", "Points", "Pts/Star"})
	for _, p := range rep.ValuePicks {
		t.AppendRow(table.Row{p.Name, p.Team, fmt.Sprintf("%g", p.Stars), fmt.Sprintf("%.0f", p.Points), fmt.Sprintf("%.1f", p.ValueScore)})
	}
	t.Render()

	t = newTable(w)
	t.SetTitle("Positions")
	t.AppendHeader(table.Row{"Position", "Riders", "Mean", "Std dev", "Pts/Star"})
	for _, g := range rep.Positions {
		t.AppendRow(table.Row{g.Key, g.Count, fmt.Sprintf("%.1f", g.MeanPoints), fmt.Sprintf("%.1f", g.StdDevPoints), fmt.Sprintf("%.1f", g.Efficiency)})
	}
	t.Render()
}

func writeEfficiency(w io.Writer, title string, rows []analytics.Efficiency) {
	t := newTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Name", "Team", "Stars", "Points", "Pts/Star", "Z"})
	for _, e := range rows {
		t.AppendRow(table.Row{e.Name, e.Team, fmt.Sprintf("%g", e.Stars), fmt.Sprintf("%.0f", e.Points), fmt.Sprintf("%.1f", e.PointsPerStar), fmt.Sprintf("%+.2f", e.ZScore)})
	}
	if len(rows) == 0 {
		t.AppendRow(table.Row{"none"})
	}
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func headerRow(cols []string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

var valueTierOrder = map[analytics.ValueTier]int{
	analytics.ValueExceptional: 0,
	analytics.ValueGreat:       1,
	analytics.ValueGood:        2,
	analytics.ValueStandard:    3,
	analytics.ValueNoData:      4,
}

func sortedValueTiers(m map[analytics.ValueTier]int) []analytics.ValueTier {
	out := make([]analytics.ValueTier, 0, len(m))
	for vt := range m {
		out = append(out, vt)
	}
	sort.Slice(out, func(i, j int) bool { return valueTierOrder[out[i]] < valueTierOrder[out[j]] })
	return out
}

func formatRatio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}

func consistency(results int, score float64) string {
	if results < 2 {
		return ""
	}
	return analytics.ConsistencyLabel(score)
}

func trend(results int, score float64) string {
	if results < 2 {
		return ""
	}
	return analytics.TrendLabel(score)
}
