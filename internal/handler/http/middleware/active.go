package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
)

// ActiveEmployee re-checks the caller against the employee table. Tokens
// stay valid until expiry, so a deactivation or role change takes effect
// here first: inactive accounts are refused and the stored role replaces
// the one in the token.
func ActiveEmployee(users user.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Unauthorized")
				return
			}

			u, err := users.GetByID(r.Context(), id.UserID)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					response.HandleError(w, auth.ErrInvalidToken)
					return
				}
				slog.Error("failed to load employee", "user_id", id.UserID, "error", err)
				response.InternalServerError(w, "An unexpected error occurred")
				return
			}
			if !u.IsActive {
				response.HandleError(w, user.ErrInactiveUser)
				return
			}

			if u.Role != id.Role {
				slog.Debug("role changed since token was issued", "user_id", u.ID, "token_role", id.Role, "role", u.Role)
				id.Role = u.Role
			}
			id.EmployeeCode = u.EmployeeCode
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
