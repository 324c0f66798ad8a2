// Package http provides the operator HTTP API of the CRM sync service.
package http

import (
	"net/http"

	"github.com/atinyakov/crmsync/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// healthPath is reachable without a client certificate.
const healthPath = "/api/health"

// NewRouter constructs the operator API.
//
// Routes:
//
//	GET    /api/health               → maintenance.Health (public)
//	POST   /api/members/{id}/sync    → members.Sync
//	PATCH  /api/members/{id}/sync    → members.Update
//	DELETE /api/members/{id}/remote  → members.DeleteRemote
//	POST   /api/vehicles/{id}/sync   → vehicles.Sync
//	PATCH  /api/vehicles/{id}/sync   → vehicles.Update
//	POST   /api/vehicles/{id}/verify → vehicles.Verify
//	DELETE /api/vehicles/{id}/remote → vehicles.DeleteRemote
//	POST   /api/resync               → maintenance.Resync
//	POST   /api/reverify             → maintenance.Reverify
//
// Middleware chain (applied in order):
//  1. RequestID
//  2. AllowContentType("application/json") for requests with a body
//  3. WithRequestLogging(logger)
//  4. CertAuth, except for the health endpoint
func NewRouter(
	members *MemberHandler,
	vehicles *VehicleHandler,
	maintenance *MaintenanceHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.CertAuth(healthPath))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", maintenance.Health)

		r.Route("/members/{id}", func(r chi.Router) {
			r.Post("/sync", members.Sync)
			r.Patch("/sync", members.Update)
			r.Delete("/remote", members.DeleteRemote)
		})

		r.Route("/vehicles/{id}", func(r chi.Router) {
			r.Post("/sync", vehicles.Sync)
			r.Patch("/sync", vehicles.Update)
			r.Post("/verify", vehicles.Verify)
			r.Delete("/remote", vehicles.DeleteRemote)
		})

		r.Post("/resync", maintenance.Resync)
		r.Post("/reverify", maintenance.Reverify)
	})

	return r
}
