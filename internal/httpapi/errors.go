package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/metrics"
	"github.com/amamusic/accademia/internal/observability"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errForbidden       = errors.New("access denied")
	errBadCredentials  = errors.New("invalid credentials")
)

// badRequest marks client input errors so they map to 400 instead of 500.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

// respondError maps the error taxonomy onto status codes. Store faults are
// the only class reported to Sentry; everything else is the caller's doing.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var br badRequest
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, errUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, errBadCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		status = http.StatusForbidden
	case errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, db.ErrRoomConflict):
		status = http.StatusConflict
		metrics.RoomConflicts.Inc()
	case errors.Is(err, db.ErrDuplicateRoom):
		status = http.StatusConflict
	case errors.As(err, &br), errors.As(err, &verr):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		observability.CaptureErr(err)
		s.log.Error("internal error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

// decode reads a JSON body into v and validates it; on failure it answers
// the request itself and reports false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, r, badRequestf("malformed request body: %v", err))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.respondError(w, r, err)
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequestf("invalid id")
	}
	return id, nil
}
