package payroll

import (
	"testing"

	"github.com/amamusic/accademia/internal/models"
)

func TestParseMonth(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseMonth("2026-03")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Year() != 2026 || got.Month() != 3 || got.Day() != 1 {
			t.Fatalf("want 2026-03-01, got %v", got)
		}
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		for _, s := range []string{"", "2026", "2026-3", "03-2026", "2026-13", "2026-03-01"} {
			if _, err := ParseMonth(s); err == nil {
				t.Fatalf("expected error for %q", s)
			}
		}
	})
}

func TestQualifies(t *testing.T) {
	p := Policy{HourlyRate: 15, PayCancelled: true}

	if !p.Qualifies(models.LessonDone, false) {
		t.Fatal("done lesson must be paid")
	}
	if !p.Qualifies(models.LessonCancelled, false) {
		t.Fatal("cancelled lesson must be paid under the default policy")
	}
	if p.Qualifies(models.LessonPostponed, false) {
		t.Fatal("postponed lesson without a new slot must not be paid")
	}
	if !p.Qualifies(models.LessonPostponed, true) {
		t.Fatal("rescheduled lesson must be paid")
	}
	if p.Qualifies(models.LessonUpcoming, false) {
		t.Fatal("upcoming lesson must not be paid")
	}

	strict := Policy{HourlyRate: 15, PayCancelled: false}
	if strict.Qualifies(models.LessonCancelled, false) {
		t.Fatal("cancelled lesson must not be paid when the policy excludes it")
	}
}

func TestHours(t *testing.T) {
	cases := []struct {
		start, end string
		want       float64
	}{
		{"09:00", "10:00", 1},
		{"09:00", "10:30", 1.5},
		{"14:15", "14:45", 0.5},
		{"09:00:00", "10:00:00", 1}, // second precision trimmed
	}
	for _, c := range cases {
		got, err := Hours(c.start, c.end)
		if err != nil {
			t.Fatalf("%s-%s: %v", c.start, c.end, err)
		}
		if got != c.want {
			t.Fatalf("%s-%s: want %v hours, got %v", c.start, c.end, c.want, got)
		}
	}

	if _, err := Hours("late", "10:00"); err == nil {
		t.Fatal("expected error for malformed start")
	}
}

func TestSummarize(t *testing.T) {
	p := Policy{HourlyRate: 15, PayCancelled: true}

	t.Run("rounds_half_up", func(t *testing.T) {
		// 3.5 hours at 15/h = 52.50, rounds to 53.
		lessons := []models.Lesson{
			{ID: 1, Start: "09:00", End: "11:00", Status: models.LessonDone},
			{ID: 2, Start: "09:00", End: "10:30", Status: models.LessonDone},
		}
		sum, err := p.Summarize("2026-02", lessons)
		if err != nil {
			t.Fatal(err)
		}
		if sum.LessonsCount != 2 || sum.TotalHours != 3.5 {
			t.Fatalf("want 2 lessons / 3.5h, got %d / %v", sum.LessonsCount, sum.TotalHours)
		}
		if sum.Compensation != 53 {
			t.Fatalf("want 53, got %d", sum.Compensation)
		}
	})

	t.Run("skips_non_qualifying", func(t *testing.T) {
		lessons := []models.Lesson{
			{ID: 1, Start: "09:00", End: "10:00", Status: models.LessonDone},
			{ID: 2, Start: "10:00", End: "11:00", Status: models.LessonPostponed},
			{ID: 3, Start: "11:00", End: "12:00", Status: models.LessonPostponed, WasRescheduled: true},
		}
		sum, err := p.Summarize("2026-02", lessons)
		if err != nil {
			t.Fatal(err)
		}
		if sum.LessonsCount != 2 || sum.TotalHours != 2 {
			t.Fatalf("want 2 lessons / 2h, got %d / %v", sum.LessonsCount, sum.TotalHours)
		}
		if sum.Compensation != 30 {
			t.Fatalf("want 30, got %d", sum.Compensation)
		}
	})

	t.Run("empty_month", func(t *testing.T) {
		sum, err := p.Summarize("2026-02", nil)
		if err != nil {
			t.Fatal(err)
		}
		if sum.Compensation != 0 || sum.LessonsCount != 0 {
			t.Fatalf("want zero summary, got %+v", sum)
		}
	})
}
