//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/models"
	"github.com/amamusic/accademia/internal/payroll"
	"github.com/amamusic/accademia/internal/testutil/testdb"
)

var reserved = []string{"admin", "segreteria"}

func startDB(t *testing.T) *testdb.DBHandle {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return h
}

func seedTeacher(t *testing.T, h *testdb.DBHandle, name, surname string) *models.TeacherProfile {
	t.Helper()
	tp, err := db.CreateTeacher(context.Background(), h.DB, name, surname, "x", reserved)
	if err != nil {
		t.Fatal(err)
	}
	return tp
}

func seedStudent(t *testing.T, h *testdb.DBHandle, name, surname string) *models.Student {
	t.Helper()
	st, err := db.CreateStudent(context.Background(), h.DB, models.Student{
		Name: name, Surname: surname, EnrolledOn: time.Now(), Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedLesson(t *testing.T, h *testdb.DBHandle, teacherID, studentID int64, date, start, end, room string) *models.Lesson {
	t.Helper()
	l, err := db.CreateLesson(context.Background(), h.DB, models.Lesson{
		TeacherID: teacherID, StudentID: studentID,
		Room: room, Date: day(date), Start: start, End: end,
		Status: models.LessonDone,
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestCreateLesson_RoomConflict(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	tp := seedTeacher(t, h, "Mario", "Rossi")
	st := seedStudent(t, h, "Luca", "Verdi")

	seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "09:00", "10:00", "Aula 1")

	t.Run("overlap_rejected", func(t *testing.T) {
		_, err := db.CreateLesson(ctx, h.DB, models.Lesson{
			TeacherID: tp.ID, StudentID: st.ID,
			Room: "Aula 1", Date: day("2026-03-02"), Start: "09:30", End: "10:30",
			Status: models.LessonDone,
		})
		if !errors.Is(err, db.ErrRoomConflict) {
			t.Fatalf("want ErrRoomConflict, got %v", err)
		}
	})

	t.Run("touching_end_allowed", func(t *testing.T) {
		if _, err := db.CreateLesson(ctx, h.DB, models.Lesson{
			TeacherID: tp.ID, StudentID: st.ID,
			Room: "Aula 1", Date: day("2026-03-02"), Start: "10:00", End: "11:00",
			Status: models.LessonDone,
		}); err != nil {
			t.Fatalf("back-to-back slot rejected: %v", err)
		}
	})

	t.Run("other_room_allowed", func(t *testing.T) {
		if _, err := db.CreateLesson(ctx, h.DB, models.Lesson{
			TeacherID: tp.ID, StudentID: st.ID,
			Room: "Aula 2", Date: day("2026-03-02"), Start: "09:00", End: "10:00",
			Status: models.LessonDone,
		}); err != nil {
			t.Fatalf("other room rejected: %v", err)
		}
	})

	t.Run("other_day_allowed", func(t *testing.T) {
		if _, err := db.CreateLesson(ctx, h.DB, models.Lesson{
			TeacherID: tp.ID, StudentID: st.ID,
			Room: "Aula 1", Date: day("2026-03-03"), Start: "09:00", End: "10:00",
			Status: models.LessonDone,
		}); err != nil {
			t.Fatalf("other day rejected: %v", err)
		}
	})
}

func TestUpdateLesson_Reschedule(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	tp := seedTeacher(t, h, "Mario", "Rossi")
	st := seedStudent(t, h, "Luca", "Verdi")
	l := seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "09:00", "10:00", "Aula 1")

	postponed := models.LessonPostponed
	newDate := day("2026-03-04")
	newStart, newEnd := "11:00", "12:00"

	got, err := db.UpdateLesson(ctx, h.DB, l.ID, models.LessonPatch{
		Status: &postponed, Date: &newDate, Start: &newStart, End: &newEnd,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.WasRescheduled {
		t.Fatal("moved postponed lesson not flagged as rescheduled")
	}
	if len(got.History) != 1 {
		t.Fatalf("want 1 history entry, got %d", len(got.History))
	}
	snap := got.History[0]
	if snap.Date != "2026-03-02" || snap.Start != "09:00" || snap.End != "10:00" || snap.Room != "Aula 1" {
		t.Fatalf("history holds wrong slot: %+v", snap)
	}

	t.Run("second_move_appends", func(t *testing.T) {
		again := day("2026-03-05")
		got2, err := db.UpdateLesson(ctx, h.DB, l.ID, models.LessonPatch{
			Status: &postponed, Date: &again,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(got2.History) != 2 {
			t.Fatalf("want 2 history entries, got %d", len(got2.History))
		}
		if got2.History[1].Date != "2026-03-04" {
			t.Fatalf("second entry must hold the intermediate slot: %+v", got2.History[1])
		}
	})

	t.Run("unchanged_postpone_clears_flag", func(t *testing.T) {
		got3, err := db.UpdateLesson(ctx, h.DB, l.ID, models.LessonPatch{Status: &postponed})
		if err != nil {
			t.Fatal(err)
		}
		if got3.WasRescheduled {
			t.Fatal("unchanged schedule must not count as rescheduled")
		}
		if len(got3.History) != 2 {
			t.Fatalf("history grew without a move: %d", len(got3.History))
		}
	})

	t.Run("done_status_clears_flag", func(t *testing.T) {
		done := models.LessonDone
		got4, err := db.UpdateLesson(ctx, h.DB, l.ID, models.LessonPatch{Status: &done})
		if err != nil {
			t.Fatal(err)
		}
		if got4.WasRescheduled {
			t.Fatal("non-postponed status must clear the reschedule flag")
		}
		if len(got4.History) != 2 {
			t.Fatalf("history changed on a status-only update: %d", len(got4.History))
		}
	})
}

func TestUpdateLesson_ConflictOnMove(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	tp := seedTeacher(t, h, "Mario", "Rossi")
	st := seedStudent(t, h, "Luca", "Verdi")
	seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "09:00", "10:00", "Aula 1")
	l2 := seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "11:00", "12:00", "Aula 1")

	newStart, newEnd := "09:30", "10:30"
	_, err := db.UpdateLesson(ctx, h.DB, l2.ID, models.LessonPatch{Start: &newStart, End: &newEnd})
	if !errors.Is(err, db.ErrRoomConflict) {
		t.Fatalf("want ErrRoomConflict, got %v", err)
	}

	// The failed move must leave the row untouched.
	cur, err := db.GetLesson(ctx, h.DB, l2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Start != "11:00" || cur.End != "12:00" {
		t.Fatalf("rejected update mutated the lesson: %s-%s", cur.Start, cur.End)
	}
}

func TestSetLessonStatus_Idempotent(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	tp := seedTeacher(t, h, "Mario", "Rossi")
	st := seedStudent(t, h, "Luca", "Verdi")
	l := seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "09:00", "10:00", "Aula 1")

	first, err := db.SetLessonStatus(ctx, h.DB, l.ID, models.LessonCancelled, "influenza")
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.SetLessonStatus(ctx, h.DB, l.ID, models.LessonCancelled, "influenza")
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != models.LessonCancelled || second.Reason == nil || *second.Reason != "influenza" {
		t.Fatalf("unexpected state after repeat: %+v", second)
	}
	if len(first.History) != len(second.History) {
		t.Fatal("repeated transition touched the history")
	}
	if second.WasRescheduled {
		t.Fatal("status-only transition must clear the reschedule flag")
	}
}

func TestLessonStatusCounts(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	tp := seedTeacher(t, h, "Mario", "Rossi")
	st := seedStudent(t, h, "Luca", "Verdi")

	l1 := seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "09:00", "10:00", "Aula 1")
	l2 := seedLesson(t, h, tp.ID, st.ID, "2026-03-03", "09:00", "10:00", "Aula 1")
	l3 := seedLesson(t, h, tp.ID, st.ID, "2026-03-04", "09:00", "10:00", "Aula 1")

	if _, err := db.SetLessonStatus(ctx, h.DB, l1.ID, models.LessonCancelled, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SetLessonStatus(ctx, h.DB, l2.ID, models.LessonPostponed, "malattia"); err != nil {
		t.Fatal(err)
	}
	postponed := models.LessonPostponed
	moved := day("2026-03-10")
	if _, err := db.UpdateLesson(ctx, h.DB, l3.ID, models.LessonPatch{Status: &postponed, Date: &moved}); err != nil {
		t.Fatal(err)
	}
	seedLesson(t, h, tp.ID, st.ID, "2026-03-05", "09:00", "10:00", "Aula 1")

	counts, err := db.LessonStatusCounts(ctx, h.DB, st.ID, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Done != 1 || counts.Cancelled != 1 || counts.Postponed != 1 || counts.Rescheduled != 1 {
		t.Fatalf("unexpected buckets: %+v", counts)
	}

	t.Run("date_window", func(t *testing.T) {
		from, to := day("2026-03-03"), day("2026-03-04")
		counts, err := db.LessonStatusCounts(ctx, h.DB, st.ID, &from, &to)
		if err != nil {
			t.Fatal(err)
		}
		total := counts.Done + counts.Cancelled + counts.Postponed + counts.Rescheduled
		if total != 1 {
			t.Fatalf("window must cover one lesson, got %+v", counts)
		}
	})
}

func TestOccupiedRooms(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	tp := seedTeacher(t, h, "Mario", "Rossi")
	st := seedStudent(t, h, "Luca", "Verdi")

	seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "09:00", "10:00", "Aula 1")
	seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "14:00", "15:00", "Aula 2")

	rooms, err := db.OccupiedRooms(ctx, h.DB, day("2026-03-02"), "09:30", "10:30")
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0] != "Aula 1" {
		t.Fatalf("want [Aula 1], got %v", rooms)
	}

	rooms, err = db.OccupiedRooms(ctx, h.DB, day("2026-03-02"), "10:00", "11:00")
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 0 {
		t.Fatalf("touching span must free the room, got %v", rooms)
	}
}

func TestPayableLessons_Compensation(t *testing.T) {
	h := startDB(t)
	ctx := context.Background()
	tp := seedTeacher(t, h, "Mario", "Rossi")
	st := seedStudent(t, h, "Luca", "Verdi")

	// Two hours done, 1.5 hours done, one postponed-and-moved hour, one
	// plain postponed hour (unpaid), one lesson outside the month.
	l1 := seedLesson(t, h, tp.ID, st.ID, "2026-03-02", "09:00", "11:00", "Aula 1")
	_ = l1
	seedLesson(t, h, tp.ID, st.ID, "2026-03-03", "09:00", "10:30", "Aula 1")
	l3 := seedLesson(t, h, tp.ID, st.ID, "2026-03-04", "09:00", "10:00", "Aula 1")
	l4 := seedLesson(t, h, tp.ID, st.ID, "2026-03-05", "09:00", "10:00", "Aula 1")
	seedLesson(t, h, tp.ID, st.ID, "2026-04-01", "09:00", "10:00", "Aula 1")

	postponed := models.LessonPostponed
	moved := day("2026-03-11")
	if _, err := db.UpdateLesson(ctx, h.DB, l3.ID, models.LessonPatch{Status: &postponed, Date: &moved}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SetLessonStatus(ctx, h.DB, l4.ID, models.LessonPostponed, ""); err != nil {
		t.Fatal(err)
	}

	monthStart, err := payroll.ParseMonth("2026-03")
	if err != nil {
		t.Fatal(err)
	}
	lessons, err := db.PayableLessons(ctx, h.DB, tp.ID, monthStart)
	if err != nil {
		t.Fatal(err)
	}

	policy := payroll.Policy{HourlyRate: 15, PayCancelled: true}
	sum, err := policy.Summarize("2026-03", lessons)
	if err != nil {
		t.Fatal(err)
	}
	// 2 + 1.5 + 1 = 4.5 hours → 67.50 → 68.
	if sum.LessonsCount != 3 {
		t.Fatalf("want 3 qualifying lessons, got %d", sum.LessonsCount)
	}
	if sum.TotalHours != 4.5 {
		t.Fatalf("want 4.5 hours, got %v", sum.TotalHours)
	}
	if sum.Compensation != 68 {
		t.Fatalf("want 68, got %d", sum.Compensation)
	}
}
