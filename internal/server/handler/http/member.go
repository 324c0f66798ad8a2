package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/go-chi/chi/v5"
)

// MemberService defines the member operations exposed to operators.
type MemberService interface {
	SyncMemberByID(ctx context.Context, id string) (string, error)
	UpdateMemberByID(ctx context.Context, id string) (crm.Result, error)
	DeleteMemberByID(ctx context.Context, id string) error
}

// MemberHandler handles member sync requests.
type MemberHandler struct {
	MemberService MemberService
}

// Sync handles POST /api/members/{id}/sync: creates the member in the CRM
// and responds with its remote id.
func (h *MemberHandler) Sync(w http.ResponseWriter, r *http.Request) {
	remoteID, err := h.MemberService.SyncMemberByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"remoteId": remoteID})
}

// Update handles PATCH /api/members/{id}/sync: responds with the remote id,
// or 422 with the CRM's field error.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	res, err := h.MemberService.UpdateMemberByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if res.FieldError != nil {
		writeFieldError(w, res.FieldError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"remoteId": res.RemoteID})
}

// DeleteRemote handles DELETE /api/members/{id}/remote.
func (h *MemberHandler) DeleteRemote(w http.ResponseWriter, r *http.Request) {
	if err := h.MemberService.DeleteMemberByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
