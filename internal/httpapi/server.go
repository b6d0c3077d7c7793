// Package httpapi exposes the back office over HTTP/JSON: authentication,
// lessons and their lifecycle, teachers, students, rooms, fees and payroll.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amamusic/accademia/internal/config"
	"github.com/amamusic/accademia/internal/metrics"
	"github.com/amamusic/accademia/internal/notify"
	"github.com/amamusic/accademia/internal/payroll"
)

type Server struct {
	db       *sql.DB
	log      *zap.Logger
	cfg      *config.Config
	validate *validator.Validate
	notifier *notify.Notifier
	policy   payroll.Policy
}

func New(database *sql.DB, log *zap.Logger, cfg *config.Config, notifier *notify.Notifier) *Server {
	return &Server{
		db:       database,
		log:      log,
		cfg:      cfg,
		validate: validator.New(),
		notifier: notifier,
		policy:   payroll.Policy{HourlyRate: cfg.HourlyRate, PayCancelled: cfg.PayCancelled},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/lessons", func(r chi.Router) {
				r.Get("/", s.handleListLessons)
				r.Post("/", s.handleCreateLesson)
				r.Get("/{id}", s.handleGetLesson)
				r.Put("/{id}", s.handleUpdateLesson)
				r.Patch("/{id}/postpone", s.handlePostponeLesson)
				r.Patch("/{id}/cancel", s.handleCancelLesson)
				r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteLesson)
			})

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", s.handleListRooms)
				r.Get("/occupied", s.handleOccupiedRooms)
				r.With(s.requireAdmin).Post("/", s.handleCreateRoom)
				r.With(s.requireAdmin).Put("/{id}", s.handleRenameRoom)
				r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteRoom)
			})

			r.Route("/teachers", func(r chi.Router) {
				r.Get("/", s.handleListTeachers)
				r.With(s.requireAdmin).Post("/", s.handleCreateTeacher)
				r.Get("/me", s.handleTeacherMe)
				r.Get("/{id}", s.handleGetTeacher)
				r.Get("/{id}/lessons", s.handleTeacherLessons)
				r.Get("/{id}/students", s.handleTeacherStudents)
				r.Get("/{id}/compensation", s.handleCompensation)
				r.Put("/{id}/avatar", s.handleTeacherAvatar)
			})

			r.Route("/students", func(r chi.Router) {
				r.Get("/", s.handleListStudents)
				r.With(s.requireAdmin).Post("/", s.handleCreateStudent)
				r.Get("/{id}", s.handleGetStudent)
				r.With(s.requireAdmin).Put("/{id}", s.handleUpdateStudent)
				r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteStudent)
				r.With(s.requireAdmin).Patch("/{id}/active", s.handleStudentActive)
				r.Get("/{id}/teachers", s.handleStudentTeachers)
				r.With(s.requireAdmin).Post("/{id}/teachers", s.handleAssignTeachers)
				r.Get("/{id}/lesson-counts", s.handleLessonCounts)
				r.Get("/{id}/payments", s.handleListPayments)
				r.With(s.requireAdmin).Post("/{id}/payments", s.handleRecordPayment)
				r.With(s.requireAdmin).Delete("/{id}/payments", s.handleDeletePayment)
				r.Get("/{id}/membership-fees", s.handleListMembershipFees)
				r.With(s.requireAdmin).Post("/{id}/membership-fees", s.handleUpsertMembershipFee)
				r.With(s.requireAdmin).Delete("/{id}/membership-fees", s.handleDeleteMembershipFee)
			})

			r.With(s.requireAdmin).Get("/users", s.handleListUsers)
			r.With(s.requireAdmin).Post("/users", s.handleCreateUser)

			r.With(s.requireAdmin).Get("/export/compensation", s.handleExportCompensation)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t0 := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		metrics.CountRequest(r.Method, route, ww.Status())
		s.log.Info("http",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(t0)),
		)
	})
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, handler http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		_ = srv.ListenAndServe()
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return srv
}
