package handler

import (
	"net/http"

	"github.com/Lutefd/currency-data/internal/commons"
	"github.com/Lutefd/currency-data/internal/service"
)

type HealthHandler struct {
	healthService service.HealthServiceInterface
}

func NewHealthHandler(healthService service.HealthServiceInterface) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// HealthCheck reports whether the database answers a ping.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.healthService == nil || !h.healthService.Healthy(r.Context()) {
		commons.RespondWithError(w, http.StatusInternalServerError, "MongoDB connection is down")
		return
	}
	commons.RespondWithJSON(w, http.StatusOK, "MongoDB connection is healthy")
}

// HandlerReadiness only reports that the process is serving requests.
func HandlerReadiness(w http.ResponseWriter, r *http.Request) {
	commons.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
