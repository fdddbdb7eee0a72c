package report

import (
	"fmt"
	"io"

	excelize "github.com/xuri/excelize/v2"

	"github.com/okian/peloton/internal/domain/analytics"
	"github.com/okian/peloton/internal/domain/scoring"
)

// Sheet names of the exported workbook.
const (
	RidersSheet     = "Riders"
	ValuePicksSheet = "Value Picks"
	PositionsSheet  = "Positions"
)

// WriteXLSX writes riders and the report as a workbook to w.
func WriteXLSX(w io.Writer, riders []scoring.ScoredRider, rep analytics.Report) error {
	xl, err := NewWorkbook(riders, rep)
	if err != nil {
		return err
	}
	defer xl.Close()

	if _, err := xl.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// NewWorkbook builds the workbook in memory.
func NewWorkbook(riders []scoring.ScoredRider, rep analytics.Report) (*excelize.File, error) {
	xl := excelize.NewFile()
	if err := xl.SetSheetName(xl.GetSheetName(xl.GetActiveSheetIndex()), RidersSheet); err != nil {
		xl.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := make([][]any, 0, len(riders))
	for _, r := range riders {
		var ratio any
		if r.ValueRatio != nil {
			ratio = *r.ValueRatio
		}
		rows = append(rows, []any{
			r.Name, r.Team, r.Position, r.Cost, r.Performance, r.UCIPoints, ratio,
			r.ZScore, string(r.Tier), string(r.OutlierClass),
			consistency(r.ResultsCount, r.Consistency), trend(r.ResultsCount, r.Trend),
		})
	}
	if err := writeSheet(xl, RidersSheet, RiderHeader, rows); err != nil {
		xl.Close()
		return nil, err
	}

	rows = rows[:0]
	for _, p := range rep.ValuePicks {
		rows = append(rows, []any{p.Name, p.Team, p.Stars, p.Points, p.ValueScore})
	}
	if err := writeSheet(xl, ValuePicksSheet, []string{"Name", "Team", "Stars", "Points", "Pts/Star"}, rows); err != nil {
		xl.Close()
		return nil, err
	}

	rows = rows[:0]
	for _, g := range rep.Positions {
		rows = append(rows, []any{g.Key, g.Count, g.MeanPoints, g.StdDevPoints, g.Efficiency})
	}
	if err := writeSheet(xl, PositionsSheet, []string{"Position", "Riders", "Mean", "Std dev", "Pts/Star"}, rows); err != nil {
		xl.Close()
		return nil, err
	}
	return xl, nil
}

func writeSheet(xl *excelize.File, sheet string, header []string, rows [][]any) error {
	if idx, _ := xl.GetSheetIndex(sheet); idx < 0 {
		if _, err := xl.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
	}

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := xl.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}
	bold, err := xl.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := xl.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style header of %q: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+2, sheet, err)
		}
	}
	return nil
}
