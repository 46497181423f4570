package identity

import (
	"net/http"

	httputil "barbook/pkg/http"
	"barbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Handler exposes the unified account lookup.
type Handler struct {
	resolver Resolver
	log      *logger.Logger
}

func NewHandler(resolver Resolver, log *logger.Logger) *Handler {
	return &Handler{resolver: resolver, log: log}
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	account, err := h.resolver.LookupAccount(r.Context(), ps.ByName("username"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, account); err != nil {
		h.log.Error("failed to write response", "handler", "GetAccount", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/accounts/:username", h.GetAccount)
}
