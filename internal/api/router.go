package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/repository"
)

// HashChecker verifies the HASH of inbound gateway parameters.
// *directlink.Client satisfies it.
type HashChecker interface {
	CheckHash(params domain.Params) bool
}

// NotificationStore is satisfied by *repository.NotificationRepo.
type NotificationStore interface {
	Insert(ctx context.Context, n *domain.StoredNotification) error
	List(ctx context.Context, f repository.NotificationFilter) ([]domain.StoredNotification, error)
}

// LedgerReader is satisfied by *repository.LedgerRepo.
type LedgerReader interface {
	GetRun(ctx context.Context, id string) (*domain.BatchRun, error)
	ListLines(ctx context.Context, runID string) ([]domain.BatchLine, error)
}

// NewRouter creates the Chi router with the gateway notification endpoint
// and the read API mounted.
func NewRouter(
	checker HashChecker,
	notifications NotificationStore,
	ledger LedgerReader,
	logger *zap.Logger,
) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		checker:       checker,
		notifications: notifications,
		ledger:        ledger,
		logger:        logger,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The gateway calls back with either verb.
	r.Post("/notifications", h.ReceiveNotification)
	r.Get("/notifications", h.ReceiveNotification)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Get("/notifications", h.ListNotifications)
		r.Get("/batch/runs/{id}", h.GetBatchRun)
	})

	return r
}
