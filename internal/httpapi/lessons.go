package httpapi

import (
	"net/http"
	"time"

	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/metrics"
	"github.com/amamusic/accademia/internal/models"
	"github.com/amamusic/accademia/internal/schedule"
)

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, badRequestf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

type createLessonRequest struct {
	TeacherID int64   `json:"teacherId" validate:"required"`
	StudentID int64   `json:"studentId" validate:"required"`
	Room      string  `json:"room" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	Start     string  `json:"start" validate:"required"`
	End       string  `json:"end" validate:"required"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason"`
}

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var req createLessonRequest
	if !s.decode(w, r, &req) {
		return
	}
	// Admins schedule for anyone; a teacher only for themselves.
	if !p.IsAdmin() && !p.OwnsTeacher(req.TeacherID) {
		s.respondError(w, r, errForbidden)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !schedule.ValidSpan(req.Start, req.End) {
		s.respondError(w, r, badRequestf("invalid time span %s-%s", req.Start, req.End))
		return
	}
	status := models.LessonStatus(req.Status)
	if req.Status == "" {
		status = models.LessonDone
	}
	if !status.Valid() {
		s.respondError(w, r, badRequestf("unknown status %q", req.Status))
		return
	}

	lesson, err := db.CreateLesson(r.Context(), s.db, models.Lesson{
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		Room:      req.Room,
		Date:      date,
		Start:     req.Start,
		End:       req.End,
		Status:    status,
		Reason:    req.Reason,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, lessonJSON(*lesson))
}

type updateLessonRequest struct {
	TeacherID *int64  `json:"teacherId"`
	StudentID *int64  `json:"studentId"`
	Room      *string `json:"room"`
	Date      *string `json:"date"`
	Start     *string `json:"start"`
	End       *string `json:"end"`
	Status    *string `json:"status"`
	Reason    *string `json:"reason"`
}

func (s *Server) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateLessonRequest
	if !s.decode(w, r, &req) {
		return
	}

	// Ownership is checked against the currently assigned teacher, not the
	// one the request may be moving the lesson to.
	cur, err := db.GetLesson(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !p.IsAdmin() && !p.OwnsTeacher(cur.TeacherID) {
		s.respondError(w, r, errForbidden)
		return
	}

	patch := models.LessonPatch{
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		Room:      req.Room,
		Start:     req.Start,
		End:       req.End,
		Reason:    req.Reason,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		patch.Date = &date
	}
	if req.Status != nil {
		status := models.LessonStatus(*req.Status)
		if !status.Valid() {
			s.respondError(w, r, badRequestf("unknown status %q", *req.Status))
			return
		}
		patch.Status = &status
	}

	updated, err := db.UpdateLesson(r.Context(), s.db, id, patch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if updated.WasRescheduled {
		metrics.Reschedules.Inc()
		s.notifier.LessonRescheduled(cur, updated)
	}
	s.respondJSON(w, http.StatusOK, lessonJSON(*updated))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request, status models.LessonStatus) {
	p, _ := principalFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req reasonRequest
	if !s.decode(w, r, &req) {
		return
	}

	cur, err := db.GetLesson(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !p.IsAdmin() && !p.OwnsTeacher(cur.TeacherID) {
		s.respondError(w, r, errForbidden)
		return
	}

	updated, err := db.SetLessonStatus(r.Context(), s.db, id, status, req.Reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, lessonJSON(*updated))
}

func (s *Server) handlePostponeLesson(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, models.LessonPostponed)
}

func (s *Server) handleCancelLesson(w http.ResponseWriter, r *http.Request) {
	s.setStatus(w, r, models.LessonCancelled)
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	lesson, err := db.GetLesson(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, lessonJSON(*lesson))
}

func (s *Server) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := db.DeleteLesson(r.Context(), s.db, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "lesson deleted"})
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := db.ListLessons(r.Context(), s.db, nil)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonDetailJSON(l))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleOccupiedRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDate(q.Get("date"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	start, end := q.Get("start"), q.Get("end")
	if !schedule.ValidSpan(start, end) {
		s.respondError(w, r, badRequestf("invalid time span %s-%s", start, end))
		return
	}
	rooms, err := db.OccupiedRooms(r.Context(), s.db, date, start, end)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"occupied": rooms})
}

func (s *Server) handleLessonCounts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var from, to *time.Time
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		to = &t
	}
	counts, err := db.LessonStatusCounts(r.Context(), s.db, id, from, to)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, counts)
}

// lessonJSON shapes a lesson for the API, adding the composite start/end
// timestamps calendar clients consume.
func lessonJSON(l models.Lesson) map[string]any {
	day := schedule.Day(l.Date)
	history := l.History
	if history == nil {
		history = []models.ScheduleSnapshot{}
	}
	return map[string]any{
		"id":             l.ID,
		"teacherId":      l.TeacherID,
		"studentId":      l.StudentID,
		"room":           l.Room,
		"date":           day,
		"start":          l.Start,
		"end":            l.End,
		"startsAt":       day + "T" + l.Start,
		"endsAt":         day + "T" + l.End,
		"status":         l.Status,
		"reason":         l.Reason,
		"wasRescheduled": l.WasRescheduled,
		"history":        history,
	}
}

func lessonDetailJSON(d models.LessonDetail) map[string]any {
	out := lessonJSON(d.Lesson)
	out["teacherName"] = d.TeacherName
	out["teacherSurname"] = d.TeacherSurname
	out["studentName"] = d.StudentName
	out["studentSurname"] = d.StudentSurname
	out["title"] = "Lezione con " + d.StudentName + " " + d.StudentSurname + " - Aula " + d.Room
	return out
}
