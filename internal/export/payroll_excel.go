package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/amamusic/accademia/internal/models"
	"github.com/amamusic/accademia/internal/payroll"
)

// TeacherCompensation is one row of the monthly report.
type TeacherCompensation struct {
	Teacher models.TeacherProfile
	Summary payroll.Summary
}

// CompensationWorkbook holds the generated monthly report.
type CompensationWorkbook struct {
	File *excelize.File
}

// NewCompensationWorkbook builds a single-sheet workbook with one row per
// teacher plus a totals row.
func NewCompensationWorkbook(month string, rows []TeacherCompensation) (*CompensationWorkbook, error) {
	f := excelize.NewFile()
	sheet := "Compensi " + month
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []string{"Insegnante", "Username", "Lezioni", "Ore", "Compenso €"}
	for col, h := range header {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	totalLessons := 0
	totalHours := 0.0
	totalPay := 0
	for i, row := range rows {
		r := i + 2
		vals := []string{
			row.Teacher.Name + " " + row.Teacher.Surname,
			row.Teacher.Username,
			strconv.Itoa(row.Summary.LessonsCount),
			strconv.FormatFloat(row.Summary.TotalHours, 'f', 2, 64),
			strconv.Itoa(row.Summary.Compensation),
		}
		for c, val := range vals {
			cell := fmt.Sprintf("%s%d", colName(c+1), r)
			if err := f.SetCellStr(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		totalLessons += row.Summary.LessonsCount
		totalHours += row.Summary.TotalHours
		totalPay += row.Summary.Compensation
	}

	if len(rows) > 0 {
		r := len(rows) + 2
		totals := []string{
			"Totale",
			"",
			strconv.Itoa(totalLessons),
			strconv.FormatFloat(totalHours, 'f', 2, 64),
			strconv.Itoa(totalPay),
		}
		for c, val := range totals {
			cell := fmt.Sprintf("%s%d", colName(c+1), r)
			if err := f.SetCellStr(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := ApplyDefaultFormatting(f, sheet); err != nil {
		return nil, err
	}
	return &CompensationWorkbook{File: f}, nil
}
