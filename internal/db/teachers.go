package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amamusic/accademia/internal/identity"
	"github.com/amamusic/accademia/internal/models"
)

// CreateTeacher provisions a teacher profile and its login account in one
// transaction. The username is derived from the name; a collision with a
// reserved administrative account gets the teacher id suffixed. The account
// table stays authoritative for credentials, the profile only links to it by
// username.
func CreateTeacher(ctx context.Context, database *sql.DB, name, surname, passwordHash string, reserved []string) (*models.TeacherProfile, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var t models.TeacherProfile
	t.Name, t.Surname = name, surname
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO teachers (name, surname) VALUES ($1, $2) RETURNING id`,
		name, surname).Scan(&t.ID); err != nil {
		return nil, err
	}

	t.Username = identity.Dedupe(identity.Username(name, surname), t.ID, reserved)
	if _, err := tx.ExecContext(ctx,
		`UPDATE teachers SET username = $1 WHERE id = $2`, t.Username, t.ID); err != nil {
		return nil, err
	}
	// An existing account with this username (same-named teacher) is reused.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING`,
		t.Username, passwordHash, models.Teacher); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &t, nil
}

func GetTeacher(ctx context.Context, database *sql.DB, id int64) (*models.TeacherProfile, error) {
	row := database.QueryRowContext(ctx,
		`SELECT id, name, surname, COALESCE(username, ''), avatar_url FROM teachers WHERE id = $1`, id)
	return scanTeacher(row)
}

func GetTeacherByUsername(ctx context.Context, database *sql.DB, username string) (*models.TeacherProfile, error) {
	row := database.QueryRowContext(ctx,
		`SELECT id, name, surname, COALESCE(username, ''), avatar_url FROM teachers WHERE LOWER(username) = LOWER($1)`,
		username)
	return scanTeacher(row)
}

func scanTeacher(row rowScanner) (*models.TeacherProfile, error) {
	var t models.TeacherProfile
	err := row.Scan(&t.ID, &t.Name, &t.Surname, &t.Username, &t.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ListTeachers(ctx context.Context, database *sql.DB) ([]models.TeacherProfile, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, name, surname, COALESCE(username, ''), avatar_url FROM teachers ORDER BY surname, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TeacherProfile
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func SetTeacherAvatar(ctx context.Context, database *sql.DB, id int64, avatarURL string) error {
	res, err := database.ExecContext(ctx,
		`UPDATE teachers SET avatar_url = $1 WHERE id = $2`, avatarURL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TeacherStudents lists the students assigned to a teacher.
func TeacherStudents(ctx context.Context, database *sql.DB, teacherID int64) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT s.id, s.name, s.surname, s.email, s.phone, s.notes, s.enrolled_on, s.monthly_fee, s.active
		FROM students s
		JOIN student_teachers st ON s.id = st.student_id
		WHERE st.teacher_id = $1
		ORDER BY s.surname, s.name`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStudents(rows)
}
