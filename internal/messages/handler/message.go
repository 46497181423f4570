package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"barbook/internal/messages/repository"
	apperrors "barbook/pkg/errors"
	httputil "barbook/pkg/http"
	"barbook/pkg/logger"
	"barbook/pkg/middleware"
	"barbook/pkg/model"
	"barbook/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type MessageHandler struct {
	repo repository.MessageRepository
	log  *logger.Logger
}

func NewMessageHandler(repo repository.MessageRepository, log *logger.Logger) *MessageHandler {
	return &MessageHandler{repo: repo, log: log}
}

type createMessageRequest struct {
	BarberID string `json:"barber_id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	message := &model.Message{
		BarberID: sanitizer.TrimAndNormalize(req.BarberID),
		Subject:  sanitizer.TrimAndNormalize(req.Subject),
		Body:     sanitizer.TrimAndNormalize(req.Body),
	}
	for _, field := range []struct{ name, value string }{
		{"barber_id", message.BarberID},
		{"subject", message.Subject},
		{"body", message.Body},
	} {
		if field.value == "" {
			h.writeError(w, apperrors.MissingField(field.name))
			return
		}
	}

	if err := h.repo.Create(r.Context(), message); err != nil {
		h.log.Error("Failed to create message", "error", err)
		h.writeError(w, apperrors.StoreUnavailable(err))
		return
	}

	if err := httputil.WriteCreated(w, message); err != nil {
		h.log.Error("failed to write response", "handler", "Create", "error", err)
	}
}

func (h *MessageHandler) ListByBarber(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	messages, err := h.repo.FindByBarber(r.Context(), ps.ByName("barber_id"), limit, int(offset))
	if err != nil {
		h.log.Error("Failed to list messages", "error", err)
		h.writeError(w, apperrors.StoreUnavailable(err))
		return
	}

	if err := httputil.WriteSuccess(w, messages); err != nil {
		h.log.Error("failed to write response", "handler", "ListByBarber", "error", err)
	}
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	message, err := h.repo.MarkRead(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, mapRepoError(err, ps.ByName("id")))
		return
	}

	if err := httputil.WriteSuccess(w, message); err != nil {
		h.log.Error("failed to write response", "handler", "MarkRead", "error", err)
	}
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.repo.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, mapRepoError(err, ps.ByName("id")))
		return
	}

	httputil.WriteNoContent(w)
}

func (h *MessageHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "error", writeErr)
	}
}

func mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("Message", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid message ID format")
	default:
		return apperrors.StoreUnavailable(err)
	}
}

func (h *MessageHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/messages", h.Create)
	router.GET("/api/v1/messages/barber/:barber_id", middleware.RequireRole(model.RoleBarber, h.ListByBarber))
	router.PATCH("/api/v1/messages/id/:id/read", middleware.RequireRole(model.RoleBarber, h.MarkRead))
	router.DELETE("/api/v1/messages/id/:id", middleware.RequireRole(model.RoleAdmin, h.Delete))
}
