package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wakala/be2bill/internal/domain"
	"github.com/wakala/be2bill/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	checker       HashChecker
	notifications NotificationStore
	ledger        LedgerReader
	logger        *zap.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// --- ReceiveNotification ---

// ReceiveNotification handles a server-to-server notification. The gateway
// expects the literal body "OK" once the notification is accepted.
func (h *Handlers) ReceiveNotification(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	params := domain.ParseForm(r.Form)
	if !h.checker.CheckHash(params) {
		h.logger.Warn("notification rejected",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("transactionid", r.Form.Get(domain.KeyTransactionID)),
		)
		h.writeError(w, http.StatusForbidden, "invalid hash")
		return
	}

	flat := make(map[string]string, len(r.Form))
	for k := range r.Form {
		flat[k] = r.Form.Get(k)
	}
	n := &domain.StoredNotification{
		OperationType: r.Form.Get(domain.KeyOperationType),
		TransactionID: r.Form.Get(domain.KeyTransactionID),
		OrderID:       r.Form.Get(domain.KeyOrderID),
		ExecCode:      r.Form.Get(domain.ResultExecCode),
		Message:       r.Form.Get(domain.ResultMessage),
		Amount:        r.Form.Get(domain.KeyAmount),
		Params:        flat,
		ReceivedAt:    time.Now(),
	}
	if err := h.notifications.Insert(r.Context(), n); err != nil {
		h.logger.Error("store notification", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "store notification")
		return
	}

	h.logger.Info("notification received",
		zap.Int64("id", n.ID),
		zap.String("operationtype", n.OperationType),
		zap.String("transactionid", n.TransactionID),
		zap.String("execcode", n.ExecCode),
	)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// --- ListNotifications ---

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.NotificationFilter{
		TransactionID: q.Get("transaction_id"),
		OrderID:       q.Get("order_id"),
		Limit:         parseIntDefault(q.Get("limit"), 50),
		Offset:        parseIntDefault(q.Get("offset"), 0),
	}

	list, err := h.notifications.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.StoredNotification{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"count":         len(list),
		"limit":         filter.Limit,
		"offset":        filter.Offset,
	})
}

// --- GetBatchRun ---

func (h *Handlers) GetBatchRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.ledger.GetRun(r.Context(), id)
	if errors.Is(err, repository.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "batch run not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lines, err := h.ledger.ListLines(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	succeeded := 0
	for _, l := range lines {
		if l.ExecCode == domain.ExecCodeSuccess {
			succeeded++
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"run":       run,
		"lines":     lines,
		"total":     len(lines),
		"succeeded": succeeded,
	})
}
