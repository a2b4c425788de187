package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/marlonmr/banco-mr/internal/config"
	"github.com/marlonmr/banco-mr/internal/handler"
	"github.com/marlonmr/banco-mr/internal/integrations/cbr"
	"github.com/marlonmr/banco-mr/internal/middleware"
	"github.com/marlonmr/banco-mr/internal/repository"
	"github.com/marlonmr/banco-mr/internal/service"
	"github.com/marlonmr/banco-mr/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	sender := email.NewSender(cfg, logger)
	svc := service.NewService(repo, sender, logger, cfg)
	cbrClient := cbr.NewClient(cfg, logger)
	h := handler.NewHandler(svc, cbrClient, logger)
	auth := middleware.NewAuth(cfg, logger)

	// Payment reminder scheduler
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReminderCron, svc.SendPaymentReminders); err != nil {
		logger.Fatalf("Failed to schedule payment reminders: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(auth),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
