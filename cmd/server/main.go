package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/dmaher/loanscope/internal/cache"
	"github.com/dmaher/loanscope/internal/clientstore"
	"github.com/dmaher/loanscope/internal/config"
	"github.com/dmaher/loanscope/internal/db"
	"github.com/dmaher/loanscope/internal/migrations"
	"github.com/dmaher/loanscope/internal/scenario"
	"github.com/dmaher/loanscope/internal/seed"
)

func main() {
	log := newLogger()
	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			log.WithError(err).Fatal("failed to run database migrations")
		}
	}

	auth := newAuthService(database, cfg.SessionSecret)
	if err := auth.ensureAdminUser(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.WithError(err).Fatal("failed to ensure admin user")
	}

	scenarios := scenario.NewStore(database)
	clients := clientstore.NewStore(database)

	if cfg.IsDev() {
		stats, err := seed.Run(context.Background(), scenarios)
		if err != nil {
			log.WithError(err).Fatal("failed to seed demo scenarios")
		}
		if stats.Inserts > 0 {
			log.WithField("inserts", stats.Inserts).Info("seeded demo scenarios")
		}
	}

	srv := &server{
		auth:      auth,
		db:        database,
		scenarios: scenarios,
		clients:   clients,
		cache:     newCache(cfg, log),
		log:       log,
	}

	scheduler := cron.New()
	if cfg.SweepEnabled() {
		if _, err := scheduler.AddFunc("@every 1m", func() {
			sweepReminders(context.Background(), clients, log)
		}); err != nil {
			log.WithError(err).Fatal("failed to schedule reminder sweep")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.routes(),
	}

	go func() {
		log.WithField("addr", httpServer.Addr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	return log
}

func newCache(cfg config.Config, log *logrus.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}

	redis := cache.NewRedis(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redis.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unreachable, falling back to in-memory cache")
		return cache.NewMemory()
	}
	log.WithField("addr", cfg.RedisAddr).Info("using redis comparison cache")
	return redis
}

// sweepReminders fires due reminders and records the notification on the
// client timeline.
func sweepReminders(ctx context.Context, clients *clientstore.Store, log *logrus.Logger) {
	due, err := clients.DueReminders(ctx, time.Now().UTC())
	if err != nil {
		log.WithError(err).Error("reminder sweep failed")
		return
	}

	for _, rec := range due {
		if err := clients.MarkNotified(ctx, rec.Scope, rec.ID); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"scope": rec.Scope,
				"id":    rec.ID,
			}).Error("failed to mark reminder notified")
			continue
		}
		log.WithFields(logrus.Fields{
			"scope": rec.Scope,
			"id":    rec.ID,
		}).Info("reminder fired")
	}
}
