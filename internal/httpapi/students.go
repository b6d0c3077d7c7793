package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/models"
)

type studentRequest struct {
	Name       string  `json:"name" validate:"required"`
	Surname    string  `json:"surname" validate:"required"`
	Email      string  `json:"email" validate:"omitempty,email"`
	Phone      string  `json:"phone"`
	Notes      string  `json:"notes"`
	EnrolledOn string  `json:"enrolledOn" validate:"omitempty,datetime=2006-01-02"`
	MonthlyFee float64 `json:"monthlyFee" validate:"gte=0"`
	Active     *bool   `json:"active"`
}

func (r studentRequest) model() models.Student {
	s := models.Student{
		Name:       r.Name,
		Surname:    r.Surname,
		Email:      r.Email,
		Phone:      r.Phone,
		Notes:      r.Notes,
		MonthlyFee: r.MonthlyFee,
		Active:     true,
	}
	if r.EnrolledOn != "" {
		s.EnrolledOn, _ = time.Parse("2006-01-02", r.EnrolledOn)
	} else {
		s.EnrolledOn = time.Now()
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
	return s
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !s.decode(w, r, &req) {
		return
	}
	st, err := db.CreateStudent(r.Context(), s.db, req.model())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, st)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req studentRequest
	if !s.decode(w, r, &req) {
		return
	}
	m := req.model()
	m.ID = id
	st, err := db.UpdateStudent(r.Context(), s.db, m)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	st, err := db.GetStudent(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := db.ListStudents(r.Context(), s.db)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, students)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := db.DeleteStudent(r.Context(), s.db, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activeRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleStudentActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req activeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := db.SetStudentActive(r.Context(), s.db, id, req.Active); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (s *Server) handleStudentTeachers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	teachers, err := db.StudentTeachers(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, teachers)
}

type assignTeachersRequest struct {
	TeacherIDs []int64 `json:"teacherIds" validate:"required"`
}

func (s *Server) handleAssignTeachers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req assignTeachersRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := db.AssignTeachers(r.Context(), s.db, id, req.TeacherIDs); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"teacherIds": req.TeacherIDs})
}

type paymentRequest struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=2100"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req paymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	created, err := db.RecordPayment(r.Context(), s.db, id, req.Year, req.Month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, map[string]bool{"created": created})
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	year, month, err := yearMonthQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := db.DeletePayment(r.Context(), s.db, id, year, month); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	payments, err := db.ListPayments(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, payments)
}

type membershipFeeRequest struct {
	Year int  `json:"year" validate:"required,gte=2000,lte=2100"`
	Paid bool `json:"paid"`
}

func (s *Server) handleUpsertMembershipFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req membershipFeeRequest
	if !s.decode(w, r, &req) {
		return
	}
	fee, err := db.UpsertMembershipFee(r.Context(), s.db, id, req.Year, req.Paid)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, fee)
}

func (s *Server) handleDeleteMembershipFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		s.respondError(w, r, badRequestf("invalid year"))
		return
	}
	if err := db.DeleteMembershipFee(r.Context(), s.db, id, year); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembershipFees(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	fees, err := db.ListMembershipFees(r.Context(), s.db, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, fees)
}

func yearMonthQuery(r *http.Request) (year, month int, err error) {
	year, err = strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, badRequestf("invalid year")
	}
	month, err = strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, badRequestf("invalid month")
	}
	return year, month, nil
}
