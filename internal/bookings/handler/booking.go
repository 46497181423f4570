package handler

import (
	"encoding/json"
	"net/http"

	"barbook/internal/bookings/service"
	apperrors "barbook/pkg/errors"
	httputil "barbook/pkg/http"
	"barbook/pkg/logger"
	"barbook/pkg/middleware"
	"barbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(bookingService service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{service: bookingService, log: log}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write response", "handler", "GetByID", "error", err)
	}
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	bookings, err := h.service.GetAll(r.Context(), limit, int(offset))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write response", "handler", "List", "error", err)
	}
}

// ListByBarber serves a barber's bookings, optionally narrowed to one
// day via the date query parameter.
func (h *BookingHandler) ListByBarber(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	barberID := ps.ByName("barber_id")
	date := r.URL.Query().Get("date")

	var bookings []*model.Booking
	var err error
	if date != "" {
		bookings, err = h.service.GetByBarberAndDate(r.Context(), barberID, date)
	} else {
		var limit int
		var offset int64
		limit, offset, err = httputil.ExtractLimitOffset(r)
		if err != nil {
			h.writeError(w, apperrors.InvalidInput(err.Error()))
			return
		}
		bookings, err = h.service.GetByBarber(r.Context(), barberID, limit, int(offset))
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write response", "handler", "ListByBarber", "error", err)
	}
}

func (h *BookingHandler) ListByPhone(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}

	bookings, err := h.service.GetByPhone(r.Context(), ps.ByName("phone"), limit, int(offset))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write response", "handler", "ListByPhone", "error", err)
	}
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}
	if req.Status == "" {
		h.writeError(w, apperrors.MissingField("status"))
		return
	}

	// Clients may cancel their own bookings; every other transition is a
	// staff action.
	if req.Status != model.StatusCancelled {
		identity, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			h.writeError(w, apperrors.Unauthorized("Authentication required"))
			return
		}
		if identity.Role != model.RoleBarber && identity.Role != model.RoleAdmin {
			h.writeError(w, apperrors.Forbidden("Insufficient permissions"))
			return
		}
	}

	booking, err := h.service.Transition(r.Context(), ps.ByName("id"), req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write response", "handler", "Transition", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", middleware.RequireRole(model.RoleAdmin, h.List))
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/barber/:barber_id", h.ListByBarber)
	router.GET("/api/v1/bookings/phone/:phone", h.ListByPhone)
	router.PATCH("/api/v1/bookings/id/:id/status", h.Transition)
	router.DELETE("/api/v1/bookings/id/:id", middleware.RequireRole(model.RoleAdmin, h.Delete))
}
