package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/amamusic/accademia/internal/config"
	"github.com/amamusic/accademia/internal/db"
	"github.com/amamusic/accademia/internal/httpapi"
	"github.com/amamusic/accademia/internal/jobs"
	"github.com/amamusic/accademia/internal/logging"
	"github.com/amamusic/accademia/internal/notify"
	"github.com/amamusic/accademia/internal/observability"
)

var release = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Base.Fatal("db connect", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		lg.Base.Fatal("migrate", zap.Error(err))
	}

	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			lg.Base.Fatal("hash admin password", zap.Error(err))
		}
		if err := db.EnsureAdmin(ctx, database, "admin", string(hash)); err != nil {
			lg.Base.Fatal("ensure admin", zap.Error(err))
		}
	}

	notifier, err := notify.New(cfg.BotToken, cfg.NotifyChatID, lg.Base)
	if err != nil {
		lg.Base.Warn("telegram disabled", zap.Error(err))
		notifier, _ = notify.New("", 0, lg.Base)
	}

	runner := jobs.New(ctx)
	runner.Every(10*time.Minute, "daily_digest", jobs.DailyDigest(database, notifier, cfg.Location))

	api := httpapi.New(database, lg.Base, cfg, notifier)
	srv := httpapi.Start(ctx, cfg.HTTPAddr, api.Router())
	lg.Base.Info("listening", zap.String("addr", cfg.HTTPAddr))

	<-ctx.Done()
	lg.Base.Info("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
}
