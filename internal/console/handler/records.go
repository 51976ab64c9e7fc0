package handler

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/audit"
	"github.com/dmko-sec/secdash/internal/console/service"
	"github.com/dmko-sec/secdash/internal/infra/auth"
)

// RecordsHandler serves the four table views and the device CSV export.
type RecordsHandler struct {
	service *service.AnalyticsService
	trail   audit.Recorder
	logger  *zap.Logger
}

func NewRecordsHandler(s *service.AnalyticsService, trail audit.Recorder, logger *zap.Logger) *RecordsHandler {
	return &RecordsHandler{service: s, trail: trail, logger: logger.Named("records")}
}

func (h *RecordsHandler) Devices(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.QueryDevices(r.Context(), queryToRequest(r.URL.Query()))
	if err != nil {
		h.logger.Error("device query failed", zap.Error(err))
		http.Error(w, "Failed to query devices", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *RecordsHandler) Violations(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.QueryViolations(r.Context(), queryToRequest(r.URL.Query()))
	if err != nil {
		h.logger.Error("violation query failed", zap.Error(err))
		http.Error(w, "Failed to query violations", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *RecordsHandler) Incidents(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.QueryIncidents(r.Context(), queryToRequest(r.URL.Query()))
	if err != nil {
		h.logger.Error("incident query failed", zap.Error(err))
		http.Error(w, "Failed to query incidents", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *RecordsHandler) Wipes(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.QueryWipes(r.Context(), queryToRequest(r.URL.Query()))
	if err != nil {
		h.logger.Error("wipe query failed", zap.Error(err))
		http.Error(w, "Failed to query wipe events", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ExportDevices streams the filtered device table as a CSV download.
// The export honors the active filters and sort but ignores paging.
func (h *RecordsHandler) ExportDevices(w http.ResponseWriter, r *http.Request) {
	q := queryToRequest(r.URL.Query())

	filename := fmt.Sprintf("devices-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.service.ExportDevices(r.Context(), w, q.Filter, q.Sort); err != nil {
		// Headers are already out; all we can do is cut the stream.
		h.logger.Error("device export failed", zap.Error(err))
		return
	}

	h.trail.Record(audit.Event{
		UserID: auth.UserID(r.Context()),
		Action: audit.ActionExportCSV,
		Target: "device",
		Detail: filename,
		Status: "success",
	})
}
