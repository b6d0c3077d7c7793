package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/models"
)

// Claims are the authorization claims carried in the bearer token. TeacherID
// is the linked profile id when the account belongs to a teacher.
type Claims struct {
	jwt.StandardClaims
	Username  string `json:"username"`
	Role      string `json:"role"`
	TeacherID *int64 `json:"teacherId,omitempty"`
}

// Principal is the resolved caller identity handlers work with.
type Principal struct {
	UserID    int64
	Username  string
	Role      models.Role
	TeacherID *int64
}

func (p Principal) IsAdmin() bool { return p.Role == models.Admin }

// OwnsTeacher reports whether the caller is that teacher (admins pass every
// ownership check separately).
func (p Principal) OwnsTeacher(teacherID int64) bool {
	return p.TeacherID != nil && *p.TeacherID == teacherID
}

type principalKey struct{}

func principalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func (s *Server) generateToken(u *models.User, teacherID *int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.cfg.JWTTTL).Unix(),
		},
		Username:  u.Username,
		Role:      string(u.Role),
		TeacherID: teacherID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) parseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// authenticate resolves the bearer token into a Principal or rejects the
// request. Handlers downstream can rely on the principal being present.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.respondError(w, r, errUnauthenticated)
			return
		}
		claims, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.respondError(w, r, errUnauthenticated)
			return
		}
		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			s.respondError(w, r, errUnauthenticated)
			return
		}
		p := Principal{
			UserID:    userID,
			Username:  claims.Username,
			Role:      models.Role(claims.Role),
			TeacherID: claims.TeacherID,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFrom(r.Context())
		if !ok || !p.IsAdmin() {
			s.respondError(w, r, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TeacherID *int64 `json:"teacherId,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	u, err := db.GetUserByUsername(r.Context(), s.db, req.Username)
	if err != nil {
		// Not-found and bad-password produce the same answer.
		s.respondError(w, r, errBadCredentials)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		s.respondError(w, r, errBadCredentials)
		return
	}

	var teacherID *int64
	if u.Role == models.Teacher {
		if t, err := db.GetTeacherByUsername(r.Context(), s.db, u.Username); err == nil {
			teacherID = &t.ID
		}
	}

	token, err := s.generateToken(u, teacherID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		Username:  u.Username,
		Role:      string(u.Role),
		TeacherID: teacherID,
	})
}
