package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/crmsync/internal/middleware"
	"github.com/atinyakov/crmsync/internal/service"
	"go.uber.org/zap"
)

// MaintenanceService defines the sweep and health operations.
type MaintenanceService interface {
	IsAlive(ctx context.Context) bool
	Resync(ctx context.Context) (service.ResyncReport, error)
	Reverify(ctx context.Context) (service.ReverifyReport, error)
}

// MaintenanceHandler serves health and on-demand sweeps.
type MaintenanceHandler struct {
	MaintenanceService MaintenanceService
	Log                *zap.Logger
}

// Health handles GET /api/health. It answers 200 when the CRM accepts the
// current session and 503 otherwise.
func (h *MaintenanceHandler) Health(w http.ResponseWriter, r *http.Request) {
	alive := h.MaintenanceService.IsAlive(r.Context())
	status := http.StatusOK
	if !alive {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{"alive": alive})
}

// Resync handles POST /api/resync.
func (h *MaintenanceHandler) Resync(w http.ResponseWriter, r *http.Request) {
	h.logTrigger(r, "resync")
	report, err := h.MaintenanceService.Resync(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Reverify handles POST /api/reverify.
func (h *MaintenanceHandler) Reverify(w http.ResponseWriter, r *http.Request) {
	h.logTrigger(r, "reverify")
	report, err := h.MaintenanceService.Reverify(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *MaintenanceHandler) logTrigger(r *http.Request, sweep string) {
	if h.Log == nil {
		return
	}
	h.Log.Info("manual sweep triggered",
		zap.String("sweep", sweep),
		zap.String("operator", middleware.OperatorFromContext(r.Context())),
	)
}
