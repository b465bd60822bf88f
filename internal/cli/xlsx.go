package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/resumerag/internal/models"
)

const shortlistSheet = "Shortlist"

var shortlistHeader = []string{"Rank", "Resume ID", "Resume", "Candidate", "Email", "Match %", "Strengths", "Missing", "Evidence"}

// WriteMatchXLSX writes a match response as a one-sheet workbook, one row per candidate in
// rank order.
func WriteMatchXLSX(w io.Writer, response *models.MatchResponse, names SkillNamer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shortlistSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, h := range shortlistHeader {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(shortlistHeader))
	if err := f.SetCellStyle(shortlistSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, m := range response.Matches {
		row := []any{
			i + 1,
			m.ResumeID,
			m.Candidate.ResumeTitle,
			m.Candidate.Name,
			m.Candidate.Email,
			m.MatchScore,
			skillList(m.Strengths, names),
			skillList(m.MissingRequirements, names),
			strings.Join(m.Evidence, "\n"),
		}
		for col, v := range row {
			if err := setCell(f, col+1, i+2, v); err != nil {
				return err
			}
		}
	}

	if len(response.Matches) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(response.Matches)+1)
		if err := f.AutoFilter(shortlistSheet, ref, nil); err != nil {
			return fmt.Errorf("failed to add filter: %w", err)
		}
	}
	_ = f.SetColWidth(shortlistSheet, "B", "B", 38)
	_ = f.SetColWidth(shortlistSheet, "C", "E", 24)
	_ = f.SetColWidth(shortlistSheet, "G", "I", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(shortlistSheet, cell, v); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}
	return nil
}
