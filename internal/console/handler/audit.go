package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/audit"
)

// AuditReader queries the persisted trail for admin review.
type AuditReader interface {
	FetchEvents(ctx context.Context, userID, action string) ([]audit.Event, error)
}

type AuditHandler struct {
	reader AuditReader
	logger *zap.Logger
}

func NewAuditHandler(reader AuditReader, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{reader: reader, logger: logger.Named("audit")}
}

// GetEvents lists recent trail entries, optionally narrowed by
// ?user_id= and ?action=.
func (h *AuditHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.reader.FetchEvents(r.Context(), q.Get("user_id"), q.Get("action"))
	if err != nil {
		h.logger.Error("audit fetch failed", zap.Error(err))
		http.Error(w, "Failed to fetch audit events", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, events)
}
