package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
)

const WebhookSecretHeader = "X-Chat-Webhook-Secret"

// WebhookSecret admits requests from the chat transport, identified by a
// shared secret header. An empty secret disables the endpoint.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(WebhookSecretHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				response.Unauthorized(w, "Invalid webhook secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
