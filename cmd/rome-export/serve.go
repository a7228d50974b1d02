package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"jobmate/rome-service/internal/httpapi"
	"jobmate/rome-service/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and the refresh scheduler when a database is set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return fmt.Errorf("startup: %w", err)
		}
		defer a.Close()

		// ── Scheduler ───────────────────────────────────────────────────────
		switch {
		case a.archive == nil:
			log.Println("[rome-service] No database — refresh scheduler disabled")
		case a.cfg.RefreshIntervalHours == 0:
			log.Println("[rome-service] REFRESH_INTERVAL_HOURS=0 — refresh scheduler disabled")
		default:
			sched := scheduler.New(a.archive, a.svc, a.cfg.RefreshIntervalHours)
			if err := sched.Start(ctx); err != nil {
				return fmt.Errorf("scheduler: %w", err)
			}
			defer sched.Stop()
		}

		// ── HTTP server ─────────────────────────────────────────────────────
		mux := http.NewServeMux()
		mux.HandleFunc("/health", healthHandler)

		h := httpapi.NewHandler(a.svc)
		h.RegisterRoutes(mux)

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%s", a.cfg.Port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute, // batches run sequentially upstream
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("[rome-service] v%s listening on :%s", version, a.cfg.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		// ── Graceful shutdown ───────────────────────────────────────────────
		select {
		case err := <-errCh:
			return fmt.Errorf("HTTP server error: %w", err)
		case <-ctx.Done():
		}

		log.Println("[rome-service] Shutting down…")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[rome-service] Shutdown error: %v", err)
		}
		log.Println("[rome-service] Stopped.")
		return nil
	},
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "rome-service",
		"version": version,
	})
}
