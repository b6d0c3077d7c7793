package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/amamusic/accademia/internal/models"
	"github.com/amamusic/accademia/internal/schedule"
)

// lessonCols is the canonical select list; times come back minute-normalized.
const lessonCols = `id, teacher_id, student_id, room, date,
	to_char(start_time, 'HH24:MI') AS start_time,
	to_char(end_time, 'HH24:MI') AS end_time,
	status, reason, was_rescheduled, history`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var l models.Lesson
	var history []byte
	err := row.Scan(&l.ID, &l.TeacherID, &l.StudentID, &l.Room, &l.Date,
		&l.Start, &l.End, &l.Status, &l.Reason, &l.WasRescheduled, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// History is stored as JSONB; the shape is validated on every read
	// instead of trusted.
	if err := json.Unmarshal(history, &l.History); err != nil {
		return nil, fmt.Errorf("lesson %d: malformed history: %w", l.ID, err)
	}
	return &l, nil
}

func GetLesson(ctx context.Context, database *sql.DB, id int64) (*models.Lesson, error) {
	row := database.QueryRowContext(ctx,
		`SELECT `+lessonCols+` FROM lessons WHERE id = $1`, id)
	return scanLesson(row)
}

// CreateLesson persists a new lesson after checking the room is free. The
// check and the insert share one serializable transaction so two concurrent
// creates cannot both claim the slot.
func CreateLesson(ctx context.Context, database *sql.DB, l models.Lesson) (*models.Lesson, error) {
	var out *models.Lesson
	err := inSerializableTx(ctx, database, func(tx *sql.Tx) error {
		if err := checkRoomFree(ctx, tx, 0, l.Date, l.Room, l.Start, l.End); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, `
			INSERT INTO lessons (teacher_id, student_id, room, date, start_time, end_time, status, reason)
			VALUES ($1, $2, $3, $4, $5::time, $6::time, $7, $8)
			RETURNING `+lessonCols,
			l.TeacherID, l.StudentID, strings.TrimSpace(l.Room), l.Date,
			schedule.HHMM(l.Start), schedule.HHMM(l.End), l.Status, l.Reason)
		var err error
		out, err = scanLesson(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLesson merges patch over the stored lesson and writes the result as
// one statement. Inside the same serializable transaction it re-reads the
// row, rejects room overlaps, detects schedule changes and maintains the
// reschedule flag and the append-only history:
//
//   - postponed + schedule changed: was_rescheduled=true, prior slot appended
//   - postponed + unchanged: was_rescheduled=false, history untouched
//   - any other status: was_rescheduled=false, history untouched
func UpdateLesson(ctx context.Context, database *sql.DB, id int64, patch models.LessonPatch) (*models.Lesson, error) {
	var out *models.Lesson
	err := inSerializableTx(ctx, database, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+lessonCols+` FROM lessons WHERE id = $1 FOR UPDATE`, id)
		cur, err := scanLesson(row)
		if err != nil {
			return err
		}

		merged := mergeLesson(*cur, patch)
		if !schedule.ValidSpan(merged.Start, merged.End) {
			return fmt.Errorf("invalid time span %s-%s", merged.Start, merged.End)
		}
		if err := checkRoomFree(ctx, tx, id, merged.Date, merged.Room, merged.Start, merged.End); err != nil {
			return err
		}

		changed := schedule.Changed(cur.Date, merged.Date, cur.Start, merged.Start,
			cur.End, merged.End, cur.Room, merged.Room)

		merged.WasRescheduled = false
		merged.History = cur.History
		if merged.Status == models.LessonPostponed && changed {
			merged.WasRescheduled = true
			merged.History = append(merged.History, models.ScheduleSnapshot{
				Date:      schedule.Day(cur.Date),
				Start:     cur.Start,
				End:       cur.End,
				Room:      cur.Room,
				ChangedAt: time.Now().UTC(),
			})
		}

		history, err := json.Marshal(merged.History)
		if err != nil {
			return err
		}
		row = tx.QueryRowContext(ctx, `
			UPDATE lessons SET
				teacher_id = $1, student_id = $2, room = $3, date = $4,
				start_time = $5::time, end_time = $6::time,
				status = $7, reason = $8, was_rescheduled = $9, history = $10
			WHERE id = $11
			RETURNING `+lessonCols,
			merged.TeacherID, merged.StudentID, strings.TrimSpace(merged.Room), merged.Date,
			merged.Start, merged.End, merged.Status, merged.Reason,
			merged.WasRescheduled, history, id)
		out, err = scanLesson(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func mergeLesson(cur models.Lesson, patch models.LessonPatch) models.Lesson {
	if patch.TeacherID != nil {
		cur.TeacherID = *patch.TeacherID
	}
	if patch.StudentID != nil {
		cur.StudentID = *patch.StudentID
	}
	if patch.Room != nil {
		cur.Room = *patch.Room
	}
	if patch.Date != nil {
		cur.Date = *patch.Date
	}
	if patch.Start != nil {
		cur.Start = schedule.HHMM(*patch.Start)
	}
	if patch.End != nil {
		cur.End = schedule.HHMM(*patch.End)
	}
	if patch.Status != nil {
		cur.Status = *patch.Status
	}
	if patch.Reason != nil {
		cur.Reason = patch.Reason
	}
	return cur
}

// SetLessonStatus is the status-only transition behind postpone and cancel:
// reason recorded, reschedule flag cleared, schedule and history untouched.
// Calling it twice with the same arguments is a no-op the second time.
func SetLessonStatus(ctx context.Context, database *sql.DB, id int64, status models.LessonStatus, reason string) (*models.Lesson, error) {
	row := database.QueryRowContext(ctx, `
		UPDATE lessons SET status = $1, was_rescheduled = FALSE, reason = $2
		WHERE id = $3
		RETURNING `+lessonCols,
		status, reason, id)
	return scanLesson(row)
}

func DeleteLesson(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLessons returns lessons with joined teacher/student names, optionally
// narrowed to one teacher.
func ListLessons(ctx context.Context, database *sql.DB, teacherID *int64) ([]models.LessonDetail, error) {
	q := `
		SELECT l.id, l.teacher_id, l.student_id, l.room, l.date,
			to_char(l.start_time, 'HH24:MI'), to_char(l.end_time, 'HH24:MI'),
			l.status, l.reason, l.was_rescheduled, l.history,
			t.name, t.surname, s.name, s.surname
		FROM lessons l
		JOIN teachers t ON l.teacher_id = t.id
		JOIN students s ON l.student_id = s.id`
	args := []any{}
	if teacherID != nil {
		q += ` WHERE l.teacher_id = $1`
		args = append(args, *teacherID)
	}
	q += ` ORDER BY l.date, l.start_time`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LessonDetail
	for rows.Next() {
		var d models.LessonDetail
		var history []byte
		if err := rows.Scan(&d.ID, &d.TeacherID, &d.StudentID, &d.Room, &d.Date,
			&d.Start, &d.End, &d.Status, &d.Reason, &d.WasRescheduled, &history,
			&d.TeacherName, &d.TeacherSurname, &d.StudentName, &d.StudentSurname); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(history, &d.History); err != nil {
			return nil, fmt.Errorf("lesson %d: malformed history: %w", d.ID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LessonsOn returns the lessons of a single day, ordered by start time.
func LessonsOn(ctx context.Context, database *sql.DB, date time.Time) ([]models.LessonDetail, error) {
	q := `
		SELECT l.id, l.teacher_id, l.student_id, l.room, l.date,
			to_char(l.start_time, 'HH24:MI'), to_char(l.end_time, 'HH24:MI'),
			l.status, l.reason, l.was_rescheduled, l.history,
			t.name, t.surname, s.name, s.surname
		FROM lessons l
		JOIN teachers t ON l.teacher_id = t.id
		JOIN students s ON l.student_id = s.id
		WHERE l.date = $1
		ORDER BY l.start_time`

	rows, err := database.QueryContext(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LessonDetail
	for rows.Next() {
		var d models.LessonDetail
		var history []byte
		if err := rows.Scan(&d.ID, &d.TeacherID, &d.StudentID, &d.Room, &d.Date,
			&d.Start, &d.End, &d.Status, &d.Reason, &d.WasRescheduled, &history,
			&d.TeacherName, &d.TeacherSurname, &d.StudentName, &d.StudentSurname); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(history, &d.History); err != nil {
			return nil, fmt.Errorf("lesson %d: malformed history: %w", d.ID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LessonStatusCounts groups a student's lessons by (status, was_rescheduled)
// and folds them into the four reporting buckets. Nil bounds mean unbounded.
func LessonStatusCounts(ctx context.Context, database *sql.DB, studentID int64, from, to *time.Time) (models.StatusCounts, error) {
	q := `SELECT status, was_rescheduled, COUNT(*) FROM lessons WHERE student_id = $1`
	args := []any{studentID}
	if from != nil {
		args = append(args, *from)
		q += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		q += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	q += ` GROUP BY status, was_rescheduled`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return models.StatusCounts{}, err
	}
	defer rows.Close()

	var counts models.StatusCounts
	for rows.Next() {
		var status models.LessonStatus
		var rescheduled bool
		var n int
		if err := rows.Scan(&status, &rescheduled, &n); err != nil {
			return models.StatusCounts{}, err
		}
		switch {
		case status == models.LessonDone:
			counts.Done += n
		case status == models.LessonCancelled:
			counts.Cancelled += n
		case status == models.LessonPostponed && rescheduled:
			counts.Rescheduled += n
		case status == models.LessonPostponed:
			counts.Postponed += n
		}
	}
	return counts, rows.Err()
}

// OccupiedRooms returns the distinct rooms with at least one lesson whose
// interval overlaps [start, end) on the given date.
func OccupiedRooms(ctx context.Context, database *sql.DB, date time.Time, start, end string) ([]string, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT DISTINCT room FROM lessons
		WHERE date = $1 AND $2::time < end_time AND $3::time > start_time
		ORDER BY room`,
		date, schedule.HHMM(start), schedule.HHMM(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// PayableLessons selects the lessons whose slot falls in the calendar month
// and may count toward pay: held, cancelled, or postponed with a new slot
// already assigned. The payroll policy decides the cancelled bucket.
func PayableLessons(ctx context.Context, database *sql.DB, teacherID int64, monthStart time.Time) ([]models.Lesson, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT `+lessonCols+` FROM lessons
		WHERE teacher_id = $1
		  AND date >= $2 AND date < $3
		  AND (status IN ('done', 'cancelled') OR (status = 'postponed' AND was_rescheduled))
		ORDER BY date, start_time`,
		teacherID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func checkRoomFree(ctx context.Context, tx *sql.Tx, excludeID int64, date time.Time, room, start, end string) error {
	var one int
	err := tx.QueryRowContext(ctx, `
		SELECT 1 FROM lessons
		WHERE id <> $1 AND date = $2 AND room = $3
		  AND $4::time < end_time AND $5::time > start_time
		LIMIT 1`,
		excludeID, date, strings.TrimSpace(room), schedule.HHMM(start), schedule.HHMM(end)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrRoomConflict
}

// inSerializableTx runs fn inside a SERIALIZABLE transaction, retrying a
// bounded number of times when the database aborts it with a serialization
// failure (SQLSTATE 40001).
func inSerializableTx(ctx context.Context, database *sql.DB, fn func(*sql.Tx) error) error {
	const maxAttempts = 3
	for attempt := 1; ; attempt++ {
		err := func() error {
			tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		}()
		if err == nil || attempt >= maxAttempts || !isSerializationFailure(err) {
			return err
		}
	}
}

func isSerializationFailure(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == "40001"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "40001"
	}
	return false
}
