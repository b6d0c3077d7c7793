// Package payroll computes monthly teacher compensation from lesson hours.
package payroll

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/amamusic/accademia/internal/models"
	"github.com/amamusic/accademia/internal/schedule"
)

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ParseMonth validates a "YYYY-MM" string and returns the first day of that
// month in UTC.
func ParseMonth(s string) (time.Time, error) {
	if !monthRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("month %q: want YYYY-MM", s)
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q: %w", s, err)
	}
	return t, nil
}

// Policy holds the compensation rules injected at startup.
type Policy struct {
	HourlyRate float64
	// PayCancelled keeps the school's rule of paying lessons cancelled too
	// late to reassign the slot. Configurable, not baked in.
	PayCancelled bool
}

// Qualifies reports whether a lesson is paid in the month its slot falls in:
// lessons held, cancelled ones (policy permitting), and the original slot of
// a rescheduled lesson. The makeup lesson is paid in its own month.
func (p Policy) Qualifies(status models.LessonStatus, wasRescheduled bool) bool {
	switch status {
	case models.LessonDone:
		return true
	case models.LessonCancelled:
		return p.PayCancelled
	case models.LessonPostponed:
		return wasRescheduled
	}
	return false
}

// Hours returns the lesson duration in fractional hours. Start and end are
// minute-normalized times within a single day, start < end.
func Hours(start, end string) (float64, error) {
	s, err := time.Parse("15:04", schedule.HHMM(start))
	if err != nil {
		return 0, fmt.Errorf("start %q: %w", start, err)
	}
	e, err := time.Parse("15:04", schedule.HHMM(end))
	if err != nil {
		return 0, fmt.Errorf("end %q: %w", end, err)
	}
	return e.Sub(s).Hours(), nil
}

// Summary is the monthly compensation result for one teacher.
type Summary struct {
	Month        string  `json:"month"`
	LessonsCount int     `json:"lessonsCount"`
	TotalHours   float64 `json:"totalHours"`
	Compensation int     `json:"compensation"`
}

// Summarize folds qualifying lessons into a Summary. TotalHours stays
// unrounded; the monetary total rounds half-up (ties away from zero).
func (p Policy) Summarize(month string, lessons []models.Lesson) (Summary, error) {
	sum := Summary{Month: month}
	for _, l := range lessons {
		if !p.Qualifies(l.Status, l.WasRescheduled) {
			continue
		}
		h, err := Hours(l.Start, l.End)
		if err != nil {
			return Summary{}, fmt.Errorf("lesson %d: %w", l.ID, err)
		}
		sum.LessonsCount++
		sum.TotalHours += h
	}
	sum.Compensation = int(math.Round(sum.TotalHours * p.HourlyRate))
	return sum, nil
}
