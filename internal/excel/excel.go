package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/courtmix/courtmix/internal/config"
	"github.com/courtmix/courtmix/internal/report"
	"github.com/courtmix/courtmix/internal/schedule"
)

// Generate creates an Excel workbook with the round grid and a
// per-player summary sheet.
func Generate(cfg *config.Config, sched *schedule.Schedule, sum *report.Summary) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	if err := writeRoundsSheet(f, cfg, sched); err != nil {
		return nil, fmt.Errorf("writing rounds sheet: %w", err)
	}

	if err := writePlayersSheet(f, sum); err != nil {
		return nil, fmt.Errorf("writing players sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func matchLabel(c schedule.CourtMatch) string {
	if c.Team2 == nil {
		return c.Team1.String()
	}
	return fmt.Sprintf("%s vs %s", c.Team1, c.Team2)
}

func writeRoundsSheet(f *excelize.File, cfg *config.Config, sched *schedule.Schedule) error {
	sheet := "Rounds"
	f.NewSheet(sheet)

	// Headers: Round, Court 1, Court 2, ..., Resting
	headers := []string{"Round"}
	for i := 1; i <= cfg.Session.Courts; i++ {
		headers = append(headers, fmt.Sprintf("Court %d", i))
	}
	headers = append(headers, "Resting")
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		for i := range headers {
			f.SetCellStyle(sheet, cellRef(i+1, 1), cellRef(i+1, 1), headerStyle)
		}
	}

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})

	matchCellStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	restCol := len(headers)
	for _, r := range sched.Rounds {
		row := r.Index + 2
		f.SetCellValue(sheet, cellRef(1, row), r.Index+1)

		for _, c := range r.Courts {
			f.SetCellValue(sheet, cellRef(c.Court+1, row), matchLabel(c))
		}
		f.SetCellValue(sheet, cellRef(restCol, row), strings.Join(r.Resting, ", "))

		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(1, row), cellStyle)
			for col := 2; col < restCol; col++ {
				f.SetCellStyle(sheet, cellRef(col, row), cellRef(col, row), matchCellStyle)
			}
			f.SetCellStyle(sheet, cellRef(restCol, row), cellRef(restCol, row), cellStyle)
		}
	}

	// Set column widths (sized for Arial 16)
	f.SetColWidth(sheet, "A", "A", 10)
	for i := 0; i < cfg.Session.Courts; i++ {
		col := colLetter(i + 2)
		f.SetColWidth(sheet, col, col, 44)
	}
	rest := colLetter(restCol)
	f.SetColWidth(sheet, rest, rest, 36)

	// Conditional formatting: court cells without a full match get light red
	lastRow := len(sched.Rounds) + 1
	redFill, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	for i := 0; i < cfg.Session.Courts; i++ {
		col := colLetter(i + 2)
		cellRange := fmt.Sprintf("%s2:%s%d", col, col, lastRow)
		topCell := fmt.Sprintf("%s2", col)
		formula := fmt.Sprintf(`AND(%s<>"",ISERROR(FIND(" vs ",%s)))`, topCell, topCell)
		f.SetConditionalFormat(sheet, cellRange, []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: formula,
				Format:   &redFill,
			},
		})
	}

	return nil
}

func writePlayersSheet(f *excelize.File, sum *report.Summary) error {
	sheet := "Players"
	f.NewSheet(sheet)

	headers := []string{"Player", "Level", "Games", "Rests", "Partners", "Opponents", "Notes"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		for i := range headers {
			f.SetCellStyle(sheet, cellRef(i+1, 1), cellRef(i+1, 1), headerStyle)
		}
	}

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})

	for i, p := range sum.Players {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), p.Name)
		f.SetCellValue(sheet, cellRef(2, row), p.Level)
		f.SetCellValue(sheet, cellRef(3, row), p.Games)
		f.SetCellValue(sheet, cellRef(4, row), p.Rests)
		f.SetCellValue(sheet, cellRef(5, row), p.Partners)
		f.SetCellValue(sheet, cellRef(6, row), p.Opponents)
		f.SetCellValue(sheet, cellRef(7, row), strings.Join(p.Violations, "; "))
		if cellStyle != 0 {
			for col := 1; col <= len(headers); col++ {
				f.SetCellStyle(sheet, cellRef(col, row), cellRef(col, row), cellStyle)
			}
		}
	}

	// Set column widths (sized for Arial 16)
	widths := map[string]float64{"A": 18, "B": 8, "C": 10, "D": 10, "E": 12, "F": 14, "G": 60}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	return nil
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
