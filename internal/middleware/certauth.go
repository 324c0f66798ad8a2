// Package middleware provides HTTP middlewares for operator authentication
// and request logging.
package middleware

import (
	"context"
	"net/http"
	"slices"
)

type ctxKey string

const operatorKey ctxKey = "operator"

// CertAuth returns a middleware that enforces mutual TLS authentication.
//
// Requests to any of publicPaths pass through without a certificate, so
// probes can reach the health endpoint. Every other request must present a
// client certificate; its Common Name is stored in the request context as the
// operator name.
func CertAuth(publicPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(publicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
				http.Error(w, "no client certificate provided", http.StatusUnauthorized)
				return
			}
			cert := r.TLS.PeerCertificates[0]
			ctx := context.WithValue(r.Context(), operatorKey, cert.Subject.CommonName)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorFromContext returns the operator name (client certificate Common
// Name) stored by CertAuth, or an empty string.
func OperatorFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(operatorKey).(string); ok {
		return s
	}
	return ""
}
