package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/batch"
	"outreach-engine-go/internal/config"
	"outreach-engine-go/internal/database"
	"outreach-engine-go/internal/dedupe"
	"outreach-engine-go/internal/delivery"
	"outreach-engine-go/internal/generator"
	"outreach-engine-go/internal/handlers"
	"outreach-engine-go/internal/lifecycle"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/progress"
	"outreach-engine-go/internal/quota"
	"outreach-engine-go/internal/replyprobe"
	"outreach-engine-go/internal/repository"
	"outreach-engine-go/internal/scheduler"
	"outreach-engine-go/internal/server"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Outreach Engine")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := database.InitDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.SeedLimitRules(dbConn, cfg.Quota.LimitRules()); err != nil {
		return fmt.Errorf("failed to seed limit rules: %w", err)
	}

	repo := repository.New(dbConn)
	m := metrics.NewMetrics()

	governor := quota.New(repo, cfg.Quota.LowQuotaWarning)
	gen := generator.NewTemplateGenerator()
	lc := lifecycle.New(repo, repo, gen,
		cfg.Campaign.FollowupIntervalDays, cfg.Campaign.LastchanceIntervalDays)
	dd := dedupe.New(repo)

	var deliverer delivery.Deliverer
	if cfg.Gmail.Enabled {
		deliverer, err = delivery.NewGmailSender(&cfg.Gmail)
		if err != nil {
			return fmt.Errorf("failed to create Gmail sender: %w", err)
		}
		logrus.Info("Using Gmail API for delivery")
	} else {
		deliverer = delivery.NewLogSender()
		logrus.Warn("Gmail delivery disabled, sends are logged only")
	}

	engine := batch.New(repo, repo, governor, lc, dd, gen, deliverer,
		progress.NewLogSink(), m, cfg.Campaign.PausePollInterval)

	var probe replyprobe.Probe
	if cfg.IMAP.Enabled {
		probe, err = replyprobe.NewIMAPProbe(&cfg.IMAP)
		if err != nil {
			return fmt.Errorf("failed to create reply probe: %w", err)
		}
	} else {
		logrus.Info("Reply probe disabled, replies will not stop follow-ups")
	}

	sched := scheduler.NewScheduler(&cfg.Scheduler, repo, governor, lc, probe, m)

	h := handlers.NewHandlers(dbConn, repo, engine, governor, sched, m)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	engine.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if probe != nil {
		if err := probe.Close(); err != nil {
			logrus.Errorf("Failed to close reply probe: %v", err)
		}
	}
	if err := deliverer.Close(); err != nil {
		logrus.Errorf("Failed to close deliverer: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
