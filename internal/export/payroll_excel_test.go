package export

import (
	"testing"

	"github.com/amamusic/accademia/internal/models"
	"github.com/amamusic/accademia/internal/payroll"
)

func TestNewCompensationWorkbook(t *testing.T) {
	rows := []TeacherCompensation{
		{
			Teacher: models.TeacherProfile{Name: "Mario", Surname: "Rossi", Username: "m.rossi"},
			Summary: payroll.Summary{Month: "2026-03", LessonsCount: 4, TotalHours: 5.5, Compensation: 83},
		},
		{
			Teacher: models.TeacherProfile{Name: "Anna", Surname: "Bianchi", Username: "a.bianchi"},
			Summary: payroll.Summary{Month: "2026-03", LessonsCount: 2, TotalHours: 2, Compensation: 30},
		},
	}

	wb, err := NewCompensationWorkbook("2026-03", rows)
	if err != nil {
		t.Fatal(err)
	}
	sheet := "Compensi 2026-03"

	got, err := wb.File.GetCellValue(sheet, "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Mario Rossi" {
		t.Fatalf("A2 = %q", got)
	}

	// Totals row under the two data rows.
	got, _ = wb.File.GetCellValue(sheet, "A4")
	if got != "Totale" {
		t.Fatalf("A4 = %q", got)
	}
	got, _ = wb.File.GetCellValue(sheet, "E4")
	if got != "113" {
		t.Fatalf("E4 = %q", got)
	}
}

func TestBuildCompensationFilename(t *testing.T) {
	name := BuildCompensationFilename("2026-03")
	if name == "" || name[len(name)-5:] != ".xlsx" {
		t.Fatalf("unexpected filename %q", name)
	}
}
