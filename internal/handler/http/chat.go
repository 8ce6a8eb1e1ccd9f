package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
)

type ChatHandler interface {
	// Turn receives one user message relayed by the chat transport.
	Turn(w http.ResponseWriter, r *http.Request)
	// Message is the same turn issued by an authenticated API client.
	Message(w http.ResponseWriter, r *http.Request)
}

type chatHandlerImpl struct {
	conversationService conversation.ConversationService
	limiter             *middleware.UserRateLimiter
}

func NewChatHandler(conversationService conversation.ConversationService, limiter *middleware.UserRateLimiter) ChatHandler {
	return &chatHandlerImpl{
		conversationService: conversationService,
		limiter:             limiter,
	}
}

type messageRequest struct {
	Text     string `json:"text,omitempty"`
	Postback string `json:"postback,omitempty"`
}

// Turn implements ChatHandler.
func (h *chatHandlerImpl) Turn(w http.ResponseWriter, r *http.Request) {
	var in conversation.Input
	if !decodeJSON(w, r, &in, "ChatTurn") {
		return
	}

	if validator.IsEmpty(in.UserID) {
		response.ValidationError(w, map[string]string{"user_id": "user_id is required"})
		return
	}

	if h.limiter != nil && !h.limiter.Allow(in.UserID) {
		middleware.WriteRateLimited(w, h.limiter.RetryAfter())
		return
	}

	h.handle(w, r, in)
}

// Message implements ChatHandler.
func (h *chatHandlerImpl) Message(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeJSON(w, r, &req, "ChatMessage") {
		return
	}

	h.handle(w, r, conversation.Input{UserID: userID, Text: req.Text, Postback: req.Postback})
}

func (h *chatHandlerImpl) handle(w http.ResponseWriter, r *http.Request, in conversation.Input) {
	reply, err := h.conversationService.HandleTurn(r.Context(), in)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, reply)
}
