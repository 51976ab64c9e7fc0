package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/console/service"
	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/infra/auth"
)

type UserHandler struct {
	service *service.UserService
	logger  *zap.Logger
}

func NewUserHandler(s *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: s, logger: logger.Named("users")}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("user list failed", zap.Error(err))
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	u, err := h.service.Create(r.Context(), req, auth.UserID(r.Context()))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrWeakPassword):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrUserExists):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	default:
		h.logger.Error("user create failed", zap.Error(err))
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role   string          `json:"role"`
		Scopes map[string]bool `json:"scopes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.UpdateScopes(r.Context(), id, req.Role, req.Scopes, auth.UserID(r.Context())); err != nil {
		h.logger.Error("user update failed", zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		h.logger.Error("user delete failed", zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
