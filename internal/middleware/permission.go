package middleware

import (
	"net/http"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/apperr"
)

// Require guards a route with a "resource:action" permission.
func Require(resource string, action access.Action) func(http.Handler) http.Handler {
	required := access.New(resource, action)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				WriteError(w, r, apperr.Unauthorized("authentication required"))
				return
			}
			subject := access.Subject{Role: claims.Role, Permissions: claims.Permissions}
			if !access.Allowed(subject, required) {
				WriteError(w, r, apperr.Forbidden("missing permission "+string(required)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
