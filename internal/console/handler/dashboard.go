package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/console/service"
)

type DashboardHandler struct {
	service *service.AnalyticsService
	logger  *zap.Logger
}

func NewDashboardHandler(s *service.AnalyticsService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, logger: logger.Named("dashboard")}
}

func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard build failed", zap.Error(err))
		http.Error(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetFleetMetrics recomputes the device KPI block under the caller's
// date range, so the headline numbers follow the table filters.
func (h *DashboardHandler) GetFleetMetrics(w http.ResponseWriter, r *http.Request) {
	q := queryToRequest(r.URL.Query())

	summary, err := h.service.FleetMetrics(r.Context(), q.Filter)
	if err != nil {
		h.logger.Error("fleet metrics failed", zap.Error(err))
		http.Error(w, "Failed to fetch metrics", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
