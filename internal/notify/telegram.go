package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/amamusic/accademia/internal/models"
	"github.com/amamusic/accademia/internal/observability"
	"github.com/amamusic/accademia/internal/schedule"
)

// Notifier pushes office updates to a Telegram chat. A Notifier with no bot
// configured is valid and drops every message, so callers never nil-check.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zap.Logger
}

// New connects the bot. An empty token yields a silent notifier.
func New(token string, chatID int64, log *zap.Logger) (*Notifier, error) {
	n := &Notifier{chatID: chatID, log: log}
	if token == "" || chatID == 0 {
		return n, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	n.bot = bot
	return n, nil
}

// LessonRescheduled announces a moved lesson with the old and the new slot.
func (n *Notifier) LessonRescheduled(was, now *models.Lesson) {
	if n == nil || n.bot == nil {
		return
	}
	text := fmt.Sprintf(
		"Lezione riprogrammata\n%s %s–%s, Aula %s\n→ %s %s–%s, Aula %s",
		schedule.Day(was.Date), was.Start, was.End, was.Room,
		schedule.Day(now.Date), now.Start, now.End, now.Room,
	)
	n.send(text)
}

// DailyDigest lists tomorrow's lessons for the office chat.
func (n *Notifier) DailyDigest(day string, lessons []models.LessonDetail) {
	if n == nil || n.bot == nil || len(lessons) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Lezioni del %s:\n", day)
	for _, l := range lessons {
		fmt.Fprintf(&b, "• %s–%s Aula %s: %s %s con %s %s\n",
			l.Start, l.End, l.Room,
			l.StudentName, l.StudentSurname,
			l.TeacherName, l.TeacherSurname)
	}
	n.send(b.String())
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		if isSystemErr(err) {
			observability.CaptureErr(err)
		}
		n.log.Warn("telegram send failed", zap.Error(err))
	}
}

// System errors worth a Sentry event: 5xx, 429, timeouts. Validation-style
// Telegram rejections are logged only.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout") {
		return true
	}
	return false
}
