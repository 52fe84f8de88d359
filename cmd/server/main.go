package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/stationd/internal/api"
	"github.com/dgallion1/stationd/internal/config"
	"github.com/dgallion1/stationd/internal/export"
	"github.com/dgallion1/stationd/internal/scheduler"
	"github.com/dgallion1/stationd/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(cfg.DBPath, log)
	if err != nil {
		log.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	exporter := export.New(log, cfg.ExportWorkers)

	// Background publishing. With no webhook configured the scheduler
	// still runs and marks due posts failed rather than leaving them
	// pending forever.
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		var pub scheduler.Publisher
		if cfg.PublishURL != "" {
			pub = scheduler.NewWebhookPublisher(cfg.PublishURL, cfg.PublishToken)
		}
		sched = scheduler.New(st, pub, log, cfg.SchedulerInterval, cfg.SchedulerStartupDelay)
		sched.Start(ctx)
	}

	srv := api.NewServer(st, exporter, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		st.Close()
	}()

	log.Info("starting stationd", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
