package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/repository"
	"github.com/atinyakov/crmsync/internal/service"
	goerrors "github.com/goliatone/go-errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error to the operator-facing HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, crm.ErrNotSynced), errors.Is(err, service.ErrOwnerNotSynced):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		switch rich.Category {
		case goerrors.CategoryValidation:
			return http.StatusUnprocessableEntity
		case goerrors.CategoryAuth, goerrors.CategoryExternal:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// writeFieldError answers a CRM validation rejection with 422 and the
// rejection itself as the body.
func writeFieldError(w http.ResponseWriter, fe *crm.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, fe)
}
