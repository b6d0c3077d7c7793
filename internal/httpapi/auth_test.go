package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/amamusic/accademia/internal/config"
	"github.com/amamusic/accademia/internal/models"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTTTL:     time.Hour,
		HourlyRate: 15,
	}
	return New(nil, zap.NewNop(), cfg, nil)
}

func TestTokenRoundTrip(t *testing.T) {
	s := testServer(t)
	tid := int64(42)
	u := &models.User{ID: 7, Username: "m.rossi", Role: models.Teacher}

	raw, err := s.generateToken(u, &tid)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := s.parseToken(raw)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Username != "m.rossi" || claims.Role != "teacher" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TeacherID == nil || *claims.TeacherID != 42 {
		t.Fatalf("teacher id not carried: %+v", claims.TeacherID)
	}
	if claims.Subject != "7" {
		t.Fatalf("want subject 7, got %q", claims.Subject)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	a := testServer(t)
	b := testServer(t)
	b.cfg.JWTSecret = "other-secret"

	raw, err := a.generateToken(&models.User{ID: 1, Username: "x", Role: models.Admin}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.parseToken(raw); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	s := testServer(t)

	var seen Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = principalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := s.authenticate(next)

	t.Run("missing_header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("garbage_token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("valid_token", func(t *testing.T) {
		raw, err := s.generateToken(&models.User{ID: 3, Username: "admin", Role: models.Admin}, nil)
		if err != nil {
			t.Fatal(err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if seen.UserID != 3 || !seen.IsAdmin() {
			t.Fatalf("principal not resolved: %+v", seen)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	s := testServer(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := s.authenticate(s.requireAdmin(next))

	raw, err := s.generateToken(&models.User{ID: 9, Username: "m.rossi", Role: models.Teacher}, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("teacher passed an admin gate: %d", rec.Code)
	}
}

func TestOwnsTeacher(t *testing.T) {
	tid := int64(5)
	p := Principal{Role: models.Teacher, TeacherID: &tid}
	if !p.OwnsTeacher(5) {
		t.Fatal("own profile rejected")
	}
	if p.OwnsTeacher(6) {
		t.Fatal("foreign profile accepted")
	}
	if (Principal{Role: models.Teacher}).OwnsTeacher(5) {
		t.Fatal("unlinked account accepted")
	}
}
