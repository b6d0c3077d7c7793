package httpapi

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/payroll"
)

type createTeacherRequest struct {
	Name            string `json:"name" validate:"required"`
	Surname         string `json:"surname" validate:"required"`
	InitialPassword string `json:"initialPassword" validate:"required,min=8"`
}

func (s *Server) handleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req createTeacherRequest
	if !s.decode(w, r, &req) {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.InitialPassword), bcrypt.DefaultCost)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := db.CreateTeacher(r.Context(), s.db, req.Name, req.Surname, string(hash), s.cfg.ReservedUsernames)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := db.ListTeachers(r.Context(), s.db)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, teachers)
}

func (s *Server) handleTeacherMe(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	if p.TeacherID != nil {
		t, err := db.GetTeacher(r.Context(), s.db, *p.TeacherID)
		if err == nil {
			s.respondJSON(w, http.StatusOK, t)
			return
		}
	}
	// Fall back to the username link for accounts issued before profiles
	// carried ids in the token.
	t, err := db.GetTeacherByUsername(r.Context(), s.db, p.Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleGetTeacher(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !p.IsAdmin() && !p.OwnsTeacher(id) {
		s.respondError(w, r, errForbidden)
		return
	}
	t, err := db.GetTeacher(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleTeacherLessons(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !p.IsAdmin() && !p.OwnsTeacher(id) {
		s.respondError(w, r, errForbidden)
		return
	}
	lessons, err := db.ListLessons(r.Context(), s.db, &id)
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

func (s *Server) handleTeacherStudents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	students, err := db.TeacherStudents(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, students)
}

// handleCompensation computes the monthly pay for a teacher: qualifying
// lesson hours times the configured hourly rate.
func (s *Server) handleCompensation(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !p.IsAdmin() && !p.OwnsTeacher(id) {
		s.respondError(w, r, errForbidden)
		return
	}

	month := r.URL.Query().Get("month")
	monthStart, err := payroll.ParseMonth(month)
	if err != nil {
		s.respondError(w, r, badRequestf("%v", err))
		return
	}
	if _, err := db.GetTeacher(r.Context(), s.db, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	lessons, err := db.PayableLessons(r.Context(), s.db, id, monthStart)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sum, err := s.policy.Summarize(month, lessons)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sum)
}

type avatarRequest struct {
	AvatarURL string `json:"avatarUrl" validate:"required,uri"`
}

// handleTeacherAvatar stores the avatar reference; the file itself lives in
// external storage the API never inspects.
func (s *Server) handleTeacherAvatar(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !p.IsAdmin() && !p.OwnsTeacher(id) {
		s.respondError(w, r, errForbidden)
		return
	}
	var req avatarRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := db.SetTeacherAvatar(r.Context(), s.db, id, req.AvatarURL); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"avatarUrl": req.AvatarURL})
}
