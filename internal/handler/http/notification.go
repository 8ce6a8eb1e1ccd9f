package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/jwt"
	"github.com/goccy/go-json"
)

const defaultKeepalive = 30 * time.Second

// NotificationHandler streams bot push messages (leave decisions, new
// requests awaiting approval, payslips) to connected clients.
type NotificationHandler interface {
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
	keepalive    time.Duration
}

func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
		keepalive:    defaultKeepalive,
	}
}

// GetSSEToken issues a short-lived stream token for the caller
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, notification.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// Stream holds an SSE connection open. EventSource cannot send headers, so
// the stream token arrives as a query parameter.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	userID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.notifService.Subscribe(r.Context(), userID)
	defer cleanup()

	if err := writeEvent(w, flusher, "connected", map[string]string{"status": "connected", "user_id": userID}); err != nil {
		return
	}

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, event.Event, event.Data); err != nil {
				return
			}

		case <-keepalive.C:
			if err := writeEvent(w, flusher, "ping", map[string]int64{"timestamp": time.Now().Unix()}); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}
