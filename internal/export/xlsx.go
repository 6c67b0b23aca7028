// internal/export/xlsx.go
package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	maxSheetName = 31
	minColWidth  = 10
	maxColWidth  = 60
	headerFill   = "#DDEBF7"
	approveFill  = "#E2EFDA"
	declineFill  = "#FCE4D6"
	completeFill = "#D9E1F2"
	pendingFill  = "#FFF2CC"
)

var statusFills = map[string]string{
	"pending":  pendingFill,
	"approve":  approveFill,
	"decline":  declineFill,
	"complete": completeFill,
}

// WriteXLSX writes the table as a single-sheet workbook.
func (t Table) WriteXLSX(w io.Writer, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = sheetName(sheet)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	statusStyles := make(map[string]int, len(statusFills))
	for status, fill := range statusFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create status style: %w", err)
		}
		statusStyles[status] = style
	}

	widths := make([]int, len(t.Headers))
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for r, row := range t.Rows {
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
			if i < len(widths) && utf8.RuneCountInString(v) > widths[i] {
				widths[i] = utf8.RuneCountInString(v)
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
		if t.StatusCol >= 0 && t.StatusCol < len(row) {
			if style, ok := statusStyles[row[t.StatusCol]]; ok {
				cell, _ := excelize.CoordinatesToCellName(t.StatusCol+1, r+2)
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return fmt.Errorf("style status: %w", err)
				}
			}
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, float64(clamp(width+2, minColWidth, maxColWidth))); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX returns the rows of the first sheet, header first.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

func sheetName(name string) string {
	if name == "" {
		return defaultSheet
	}
	cleaned := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		cleaned = append(cleaned, r)
		if len(cleaned) == maxSheetName {
			break
		}
	}
	if len(cleaned) == 0 {
		return defaultSheet
	}
	return string(cleaned)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
