package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"rotation-workflow/internal/config"
	"rotation-workflow/internal/handler"
	"rotation-workflow/internal/repository"
	"rotation-workflow/internal/service"
	"rotation-workflow/pkg/telegram"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logrus.Info("Config initialized...")

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	db, err := repository.OpenSQLite(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	repos, err := repository.New(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create repositories")
	}

	// Производственный календарь необязателен: без него праздники не вычитаются из нормы
	if cfg.HolidaysFile != "" {
		loaded, err := service.NewNonWorkingDayService(repos.NonWorkingDays).LoadFromJSON(context.Background(), cfg.HolidaysFile)
		if err != nil {
			logrus.WithError(err).Warn("Failed to load holidays, expected hours ignore them")
		} else {
			logrus.Infof("Loaded %d non-working days from %s", loaded, cfg.HolidaysFile)
		}
	}

	loggers := []service.EventLogger{service.NewAuditTrail(repos.Audit)}
	if cfg.TelegramToken != "" {
		client, err := telegram.NewClient(cfg.TelegramToken)
		if err != nil {
			logrus.Fatal("Failed to create Telegram client:", err)
		}
		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)
		loggers = append(loggers, service.NewTelegramNotifier(client, cfg.AuditChatID))
	}
	events := service.NewMultiEventLogger(loggers...)

	clock := service.SystemClock()
	evidence := service.NewEvidenceService(repos, cfg.Rules)
	timelines := service.NewTimelineService(repos, evidence, events, cfg.Rules, clock)

	h := handler.NewHandler(handler.Services{
		Plans:       service.NewPlanService(repos, events, cfg.Rules),
		Assignments: service.NewAssignmentService(repos, evidence, events, cfg.Rules, clock),
		Approvals:   service.NewApprovalService(repos, evidence, events, cfg.Rules, clock),
		Roster:      service.NewRosterService(repos, evidence, events, cfg.Rules, clock),
		Timelines:   timelines,
		Dossiers:    service.NewDossierService(timelines),
	})
	h.SetLogLevel(level)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Обработка сигналов для graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logrus.Infof("Received %s, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}

	// Закрываем соединение с БД
	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Server stopped gracefully")
}
