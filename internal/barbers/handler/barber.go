package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"barbook/internal/barbers/repository"
	apperrors "barbook/pkg/errors"
	httputil "barbook/pkg/http"
	"barbook/pkg/logger"
	"barbook/pkg/middleware"
	"barbook/pkg/model"
	"barbook/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type BarberHandler struct {
	repo repository.BarberRepository
	log  *logger.Logger
}

func NewBarberHandler(repo repository.BarberRepository, log *logger.Logger) *BarberHandler {
	return &BarberHandler{repo: repo, log: log}
}

func (h *BarberHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	barbers, err := h.repo.FindAll(r.Context())
	if err != nil {
		h.log.Error("Failed to list barbers", "error", err)
		h.writeError(w, apperrors.StoreUnavailable(err))
		return
	}

	if err := httputil.WriteSuccess(w, barbers); err != nil {
		h.log.Error("failed to write response", "handler", "List", "error", err)
	}
}

func (h *BarberHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	barber, err := h.repo.FindByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, mapRepoError(err, ps.ByName("id")))
		return
	}

	if err := httputil.WriteSuccess(w, barber); err != nil {
		h.log.Error("failed to write response", "handler", "GetByID", "error", err)
	}
}

func (h *BarberHandler) GetByUsername(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	barber, err := h.repo.FindByUsername(r.Context(), ps.ByName("username"))
	if err != nil {
		h.writeError(w, mapRepoError(err, ps.ByName("username")))
		return
	}

	if err := httputil.WriteSuccess(w, barber); err != nil {
		h.log.Error("failed to write response", "handler", "GetByUsername", "error", err)
	}
}

func (h *BarberHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var barber model.Barber
	if err := json.NewDecoder(r.Body).Decode(&barber); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	barber.Name = sanitizer.NormalizeName(barber.Name)
	if barber.Name == "" {
		h.writeError(w, apperrors.MissingField("name"))
		return
	}
	if barber.Username == "" {
		h.writeError(w, apperrors.MissingField("username"))
		return
	}

	if err := h.repo.Create(r.Context(), &barber); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			h.writeError(w, apperrors.New(apperrors.CodeValidation, "barber username already taken", http.StatusConflict))
			return
		}
		h.log.Error("Failed to create barber", "username", barber.Username, "error", err)
		h.writeError(w, apperrors.Internal("Failed to create barber", err))
		return
	}

	h.log.Info("Barber created", "id", barber.ID, "username", barber.Username)
	if err := httputil.WriteCreated(w, barber); err != nil {
		h.log.Error("failed to write response", "handler", "Create", "error", err)
	}
}

func (h *BarberHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BarberUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	barber, err := h.repo.Update(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, mapRepoError(err, ps.ByName("id")))
		return
	}

	h.log.Info("Barber updated", "id", barber.ID)
	if err := httputil.WriteSuccess(w, barber); err != nil {
		h.log.Error("failed to write response", "handler", "Update", "error", err)
	}
}

func (h *BarberHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.repo.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, mapRepoError(err, ps.ByName("id")))
		return
	}

	h.log.Info("Barber deleted", "id", ps.ByName("id"))
	httputil.WriteNoContent(w)
}

func (h *BarberHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "error", writeErr)
	}
}

func mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.BarberNotFound(id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid barber ID format")
	default:
		return apperrors.Internal("Barber lookup failed", err)
	}
}

func (h *BarberHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/barbers", h.List)
	router.GET("/api/v1/barbers/id/:id", h.GetByID)
	router.GET("/api/v1/barbers/username/:username", h.GetByUsername)
	router.POST("/api/v1/barbers", middleware.RequireRole(model.RoleAdmin, h.Create))
	router.PATCH("/api/v1/barbers/id/:id", middleware.RequireRole(model.RoleAdmin, h.Update))
	router.DELETE("/api/v1/barbers/id/:id", middleware.RequireRole(model.RoleAdmin, h.Delete))
}
