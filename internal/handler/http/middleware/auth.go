package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type identityKey struct{}

// Identity is the caller as described by a verified access token.
type Identity struct {
	UserID       string
	EmployeeCode string
	Role         user.Role
}

// AuthRequired admits requests carrying a verified, unrevoked access token
// and stores the caller's Identity in the request context. It must run after
// jwtauth.Verifier.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != jwt.TokenTypeAccess {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			if jwtService.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			userID, _ := claims["user_id"].(string)
			role, _ := claims["role"].(string)
			code, _ := claims["employee_code"].(string)
			if userID == "" || !user.Role(role).IsValid() {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: userID, EmployeeCode: code, Role: user.Role(role)})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
