package httpapi

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/export"
	"github.com/amamusic/accademia/internal/payroll"
)

// handleExportCompensation streams an xlsx with the monthly pay of every
// teacher.
func (s *Server) handleExportCompensation(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	monthStart, err := payroll.ParseMonth(month)
	if err != nil {
		s.respondError(w, r, badRequestf("%v", err))
		return
	}

	teachers, err := db.ListTeachers(r.Context(), s.db)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rows := make([]export.TeacherCompensation, 0, len(teachers))
	for _, t := range teachers {
		lessons, err := db.PayableLessons(r.Context(), s.db, t.ID, monthStart)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		sum, err := s.policy.Summarize(month, lessons)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		rows = append(rows, export.TeacherCompensation{Teacher: t, Summary: sum})
	}

	wb, err := export.NewCompensationWorkbook(month, rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := export.BuildCompensationFilename(month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''`+url.PathEscape(filename))
	if err := wb.File.Write(w); err != nil {
		s.log.Error("write compensation workbook", zap.Error(err))
	}
}
