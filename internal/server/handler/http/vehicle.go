package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/service"
	"github.com/go-chi/chi/v5"
)

// VehicleService defines the vehicle operations exposed to operators.
type VehicleService interface {
	SyncVehicleByID(ctx context.Context, id string) (service.VehicleSyncResult, error)
	UpdateVehicleByID(ctx context.Context, id string) (*crm.FieldError, error)
	VerifyVehicleByID(ctx context.Context, id string) (bool, error)
	DeleteVehicleByID(ctx context.Context, id string) error
}

// VehicleHandler handles vehicle sync requests.
type VehicleHandler struct {
	VehicleService VehicleService
}

// Sync handles POST /api/vehicles/{id}/sync.
func (h *VehicleHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.VehicleService.SyncVehicleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Update handles PATCH /api/vehicles/{id}/sync. A CRM validation rejection
// is answered with 422 and the rejection as the body.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	fe, err := h.VehicleService.UpdateVehicleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if fe != nil {
		writeFieldError(w, fe)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify handles POST /api/vehicles/{id}/verify.
func (h *VehicleHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ok, err := h.VehicleService.VerifyVehicleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": ok})
}

// DeleteRemote handles DELETE /api/vehicles/{id}/remote.
func (h *VehicleHandler) DeleteRemote(w http.ResponseWriter, r *http.Request) {
	if err := h.VehicleService.DeleteVehicleByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
