package availability

import (
	"net/http"

	httputil "barbook/pkg/http"
	"barbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type blockedSlotsResponse struct {
	BarberID     string   `json:"barber_id"`
	Date         string   `json:"date"`
	BlockedTimes []string `json:"blocked_times"`
}

func (h *Handler) BlockedSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	barberID := query.Get("barber_id")
	date := query.Get("date")

	times, err := h.service.BlockedSlots(r.Context(), barberID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "error", writeErr)
		}
		return
	}

	response := blockedSlotsResponse{
		BarberID:     barberID,
		Date:         date,
		BlockedTimes: times,
	}
	if err := httputil.WriteSuccess(w, response); err != nil {
		h.log.Error("failed to write response", "handler", "BlockedSlots", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.BlockedSlots)
}
