package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amamusic/accademia/internal/models"
)

func CreateStudent(ctx context.Context, database *sql.DB, s models.Student) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO students (name, surname, email, phone, notes, enrolled_on, monthly_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, surname, email, phone, notes, enrolled_on, monthly_fee, active`,
		s.Name, s.Surname, s.Email, s.Phone, s.Notes, s.EnrolledOn, s.MonthlyFee)
	return scanStudent(row)
}

func UpdateStudent(ctx context.Context, database *sql.DB, s models.Student) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `
		UPDATE students SET name = $1, surname = $2, email = $3, phone = $4, notes = $5, monthly_fee = $6
		WHERE id = $7
		RETURNING id, name, surname, email, phone, notes, enrolled_on, monthly_fee, active`,
		s.Name, s.Surname, s.Email, s.Phone, s.Notes, s.MonthlyFee, s.ID)
	return scanStudent(row)
}

func GetStudent(ctx context.Context, database *sql.DB, id int64) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, name, surname, email, phone, notes, enrolled_on, monthly_fee, active
		FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

func ListStudents(ctx context.Context, database *sql.DB) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, name, surname, email, phone, notes, enrolled_on, monthly_fee, active
		FROM students ORDER BY surname, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStudents(rows)
}

func DeleteStudent(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func SetStudentActive(ctx context.Context, database *sql.DB, id int64, active bool) error {
	res, err := database.ExecContext(ctx,
		`UPDATE students SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.Name, &s.Surname, &s.Email, &s.Phone, &s.Notes,
		&s.EnrolledOn, &s.MonthlyFee, &s.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStudents(rows *sql.Rows) ([]models.Student, error) {
	var out []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// AssignTeachers replaces a student's teacher set in one transaction.
func AssignTeachers(ctx context.Context, database *sql.DB, studentID int64, teacherIDs []int64) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM student_teachers WHERE student_id = $1`, studentID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO student_teachers (student_id, teacher_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, tid := range teacherIDs {
		if _, err := stmt.ExecContext(ctx, studentID, tid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func StudentTeachers(ctx context.Context, database *sql.DB, studentID int64) ([]models.TeacherProfile, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT t.id, t.name, t.surname, COALESCE(t.username, ''), t.avatar_url
		FROM teachers t
		JOIN student_teachers st ON t.id = st.teacher_id
		WHERE st.student_id = $1
		ORDER BY t.surname, t.name`, studentID)
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

// RecordPayment marks (year, month) as paid. Re-recording an existing
// payment reports created=false and changes nothing.
func RecordPayment(ctx context.Context, database *sql.DB, studentID int64, year, month int) (created bool, err error) {
	res, err := database.ExecContext(ctx, `
		INSERT INTO monthly_payments (student_id, year, month)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, year, month) DO NOTHING`,
		studentID, year, month)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func DeletePayment(ctx context.Context, database *sql.DB, studentID int64, year, month int) error {
	res, err := database.ExecContext(ctx, `
		DELETE FROM monthly_payments WHERE student_id = $1 AND year = $2 AND month = $3`,
		studentID, year, month)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func ListPayments(ctx context.Context, database *sql.DB, studentID int64) ([]models.MonthlyPayment, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT student_id, year, month, paid_on FROM monthly_payments
		WHERE student_id = $1 ORDER BY year DESC, month DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MonthlyPayment
	for rows.Next() {
		var p models.MonthlyPayment
		if err := rows.Scan(&p.StudentID, &p.Year, &p.Month, &p.PaidOn); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertMembershipFee sets the paid flag for (student, year); the payment
// date follows the flag.
func UpsertMembershipFee(ctx context.Context, database *sql.DB, studentID int64, year int, paid bool) (*models.MembershipFee, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO membership_fees (student_id, year, paid, paid_on)
		VALUES ($1, $2, $3, CASE WHEN $3 THEN CURRENT_DATE ELSE NULL END)
		ON CONFLICT (student_id, year) DO UPDATE SET
			paid = EXCLUDED.paid,
			paid_on = CASE WHEN EXCLUDED.paid THEN CURRENT_DATE ELSE NULL END
		RETURNING student_id, year, paid, paid_on`,
		studentID, year, paid)
	var f models.MembershipFee
	if err := row.Scan(&f.StudentID, &f.Year, &f.Paid, &f.PaidOn); err != nil {
		return nil, err
	}
	return &f, nil
}

func DeleteMembershipFee(ctx context.Context, database *sql.DB, studentID int64, year int) error {
	res, err := database.ExecContext(ctx,
		`DELETE FROM membership_fees WHERE student_id = $1 AND year = $2`, studentID, year)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func ListMembershipFees(ctx context.Context, database *sql.DB, studentID int64) ([]models.MembershipFee, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT student_id, year, paid, paid_on FROM membership_fees
		WHERE student_id = $1 ORDER BY year DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MembershipFee
	for rows.Next() {
		var f models.MembershipFee
		if err := rows.Scan(&f.StudentID, &f.Year, &f.Paid, &f.PaidOn); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
