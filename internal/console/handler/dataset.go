package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/console/service"
	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/infra/auth"
)

type DatasetHandler struct {
	service  *service.DatasetService
	maxBytes int64
	logger   *zap.Logger
}

func NewDatasetHandler(s *service.DatasetService, maxUploadMB int64, logger *zap.Logger) *DatasetHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &DatasetHandler{
		service:  s,
		maxBytes: maxUploadMB << 20,
		logger:   logger.Named("datasets"),
	}
}

// Upload accepts a multipart form with a "file" part plus "tool" and
// "kind" fields.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	req := service.UploadRequest{
		Tool:     domain.SourceTool(r.FormValue("tool")),
		Kind:     domain.RecordKind(r.FormValue("kind")),
		Filename: header.Filename,
		UserID:   auth.UserID(r.Context()),
	}

	ds, err := h.service.Ingest(r.Context(), req, file)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnknownTool),
		errors.Is(err, service.ErrUnknownKind),
		errors.Is(err, service.ErrBadFormat),
		errors.Is(err, service.ErrEmptyDataset),
		errors.Is(err, service.ErrDatasetTooBig):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		h.logger.Error("dataset ingest failed", zap.Error(err))
		http.Error(w, "Failed to ingest dataset", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, ds)
}

func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("dataset list failed", zap.Error(err))
		http.Error(w, "Failed to list datasets", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, datasets)
}

func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		h.logger.Error("dataset delete failed", zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to delete dataset", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
