package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/amamusic/accademia/internal/ctxutil"
	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/notify"
	"github.com/amamusic/accademia/internal/observability"
	"github.com/amamusic/accademia/internal/schedule"
)

const digestHour = 18

// DailyDigest sends tomorrow's lesson list to the office chat once per day,
// after digestHour local time. Run it on a short interval; the lastSent guard
// keeps it to one message a day.
func DailyDigest(database *sql.DB, notifier *notify.Notifier, loc *time.Location) Job {
	var lastSent string
	return func(ctx context.Context) error {
		now := time.Now().In(loc)
		if now.Hour() < digestHour {
			return nil
		}
		today := schedule.Day(now)
		if lastSent == today {
			return nil
		}

		tomorrow := now.AddDate(0, 0, 1)
		cctx, cancel := ctxutil.WithDBTimeout(ctx)
		defer cancel()
		lessons, err := db.LessonsOn(cctx, database, time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC))
		if err != nil {
			observability.CaptureErr(err)
			return err
		}
		notifier.DailyDigest(schedule.Day(tomorrow), lessons)
		lastSent = today
		return nil
	}
}
