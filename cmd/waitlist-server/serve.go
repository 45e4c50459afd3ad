package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmater/waitlist/internal/expiry"
	"github.com/tmater/waitlist/internal/identity"
	"github.com/tmater/waitlist/internal/metrics"
	"github.com/tmater/waitlist/internal/notify"
	"github.com/tmater/waitlist/internal/scheduler"
	"github.com/tmater/waitlist/internal/server"
	"github.com/tmater/waitlist/internal/sheets"
	"github.com/tmater/waitlist/internal/store"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the in-process scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.WithField("listen_addr", cfg.ListenAddr).Info("waitlist-server starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("database migrated")
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	m := metrics.New()
	cleaner := expiry.New(db, log, m)
	relay := notify.NewRelay(cfg.Notify.URL, cfg.Notify.Token)

	sched, err := scheduler.New(log,
		scheduler.Job{Name: "cleanup", Spec: cfg.Schedule.Cleanup, Run: func(ctx context.Context) error {
			_, err := cleaner.Run(ctx)
			return err
		}},
		scheduler.Job{Name: "match-alerts", Spec: cfg.Schedule.MatchAlerts, Run: func(ctx context.Context) error {
			_, err := relay.Trigger(ctx, "scheduler")
			m.RecordRelay(outcome(err))
			return err
		}},
	)
	if err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	h := server.New(server.Deps{
		Store:    db,
		Identity: identity.New(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey),
		Cleaner:  cleaner,
		Relay:    relay,
		Sheets:   sheets.NewClient(cfg.Sheets.BaseURL),
		Config:   cfg,
		Log:      log,
		Metrics:  m,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
