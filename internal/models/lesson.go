package models

import "time"

type LessonStatus string

const (
	LessonDone      LessonStatus = "done"
	LessonPostponed LessonStatus = "postponed"
	LessonCancelled LessonStatus = "cancelled"
	LessonUpcoming  LessonStatus = "upcoming"
)

func (s LessonStatus) Valid() bool {
	switch s {
	case LessonDone, LessonPostponed, LessonCancelled, LessonUpcoming:
		return true
	}
	return false
}

// ScheduleSnapshot is one history entry: the slot a lesson occupied before a
// reschedule. History is append-only.
type ScheduleSnapshot struct {
	Date      string    `json:"date"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Room      string    `json:"room"`
	ChangedAt time.Time `json:"changedAt"`
}

// Lesson times are kept as "HH:MM" strings, dates as calendar days.
type Lesson struct {
	ID             int64              `db:"id"`
	TeacherID      int64              `db:"teacher_id"`
	StudentID      int64              `db:"student_id"`
	Room           string             `db:"room"`
	Date           time.Time          `db:"date"`
	Start          string             `db:"start_time"`
	End            string             `db:"end_time"`
	Status         LessonStatus       `db:"status"`
	Reason         *string            `db:"reason"`
	WasRescheduled bool               `db:"was_rescheduled"`
	History        []ScheduleSnapshot `db:"history"`
}

// LessonDetail carries the joined names used by calendar listings.
type LessonDetail struct {
	Lesson
	TeacherName    string `db:"teacher_name"`
	TeacherSurname string `db:"teacher_surname"`
	StudentName    string `db:"student_name"`
	StudentSurname string `db:"student_surname"`
}

// LessonPatch holds the optional fields of an update request. Nil means
// "keep the stored value"; the store merges before writing.
type LessonPatch struct {
	TeacherID *int64
	StudentID *int64
	Room      *string
	Date      *time.Time
	Start     *string
	End       *string
	Status    *LessonStatus
	Reason    *string
}

// StatusCounts is the per-student aggregation. A postponed lesson counts as
// rescheduled once a new slot has been assigned to it.
type StatusCounts struct {
	Done        int `json:"done"`
	Cancelled   int `json:"cancelled"`
	Postponed   int `json:"postponed"`
	Rescheduled int `json:"rescheduled"`
}
