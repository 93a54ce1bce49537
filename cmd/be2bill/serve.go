package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wakala/be2bill/internal/api"
	"github.com/wakala/be2bill/internal/repository"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive gateway notifications and serve the read API",
	Long: `Serve the gateway's server-to-server notification endpoint and a small
read API over stored notifications and batch runs.

Endpoints:
  POST|GET /notifications           gateway notification (HASH checked)
  GET      /api/v1/notifications    stored notifications
  GET      /api/v1/batch/runs/{id}  one batch run and its lines
  GET      /metrics                 Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "listen address (overrides listen.address)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := a.client()
	if err != nil {
		return err
	}

	a.logger.Info("initializing database", zap.String("path", a.cfg.Database.Path))
	db, err := repository.InitDB(a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer db.Close()

	router := api.NewRouter(
		client,
		repository.NewNotificationRepo(db),
		repository.NewLedgerRepo(db),
		a.logger.Named("api"),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.Handle("/", router)

	addr := a.cfg.Listen.Address
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
