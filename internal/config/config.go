package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	Location    *time.Location
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string

	JWTSecret string
	JWTTTL    time.Duration

	// Payroll policy. The rate is currency units per lesson hour.
	HourlyRate   float64
	PayCancelled bool

	// Accounts that teacher onboarding must never shadow.
	ReservedUsernames []string

	// Optional back-office alert channel. Empty token disables it.
	BotToken     string
	NotifyChatID int64
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Rome")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	rate, err := parseRate(getenv("HOURLY_RATE", "15"))
	if err != nil {
		return nil, fmt.Errorf("HOURLY_RATE: %w", err)
	}

	ttl, err := time.ParseDuration(getenv("JWT_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}

	chatID, err := parseChatID(os.Getenv("NOTIFY_CHAT_ID"))
	if err != nil {
		return nil, fmt.Errorf("NOTIFY_CHAT_ID: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       mustEnv("DATABASE_URL"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		Location:          loc,
		LogLevel:          getenv("LOG_LEVEL", "info"),
		Env:               getenv("ENV", "dev"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		JWTSecret:         mustEnv("JWT_SECRET"),
		JWTTTL:            ttl,
		HourlyRate:        rate,
		PayCancelled:      getenv("PAY_CANCELLED_LESSONS", "true") == "true",
		ReservedUsernames: splitList(getenv("RESERVED_USERNAMES", "admin,segreteria,direzione")),
		BotToken:          os.Getenv("BOT_TOKEN"),
		NotifyChatID:      chatID,
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseRate(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive, got %v", f)
	}
	return f, nil
}

func parseChatID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(p))
	}
	return out
}
