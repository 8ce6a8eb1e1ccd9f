package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
)

// RequireCapability checks the caller's role against a capability. It must
// run after AuthRequired.
func RequireCapability(c user.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Unauthorized")
				return
			}

			if !user.HasPermission(id.Role, c) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", c, id.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
