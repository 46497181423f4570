package app

import (
	"context"
	"net/http"
	"time"

	httputil "barbook/pkg/http"
	"barbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthHandler serves liveness and readiness probes. Liveness only proves
// the process is up; readiness also pings the document store.
type HealthHandler struct {
	mongo *mongo.Client
	log   *logger.Logger
}

func NewHealthHandler(mongoClient *mongo.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{mongo: mongoClient, log: log}
}

func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeProbe(w, http.StatusOK, "ok")
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.log.Error("Readiness check failed", "error", err)
		writeProbe(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}

	writeProbe(w, http.StatusOK, "ok")
}

func writeProbe(w http.ResponseWriter, status int, message string) {
	_ = httputil.WriteJSON(w, status, map[string]string{"status": message})
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Live)
	router.GET("/ready", h.Ready)
}
