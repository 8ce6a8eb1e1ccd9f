package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	ListTypes(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService}
}

// applicationID reads {id}, writing a 400 when it is not an application id.
func applicationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid leave request id", nil)
		return "", false
	}
	return id, true
}

// ListTypes implements LeaveHandler.
func (h *leaveHandlerImpl) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.leaveService.ListLeaveTypes(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, leave.NewLeaveTypeResponses(types))
}

// Submit implements LeaveHandler.
func (h *leaveHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req leave.SubmitLeaveRequest
	if !decodeJSON(w, r, &req, "SubmitLeave") {
		return
	}
	req.UserID = userID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.leaveService.SubmitLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted", result)
}

// ListMine implements LeaveHandler.
func (h *leaveHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit := getIntQueryParam(r, "limit", 0)
	apps, err := h.leaveService.ListMyApplications(r.Context(), userID, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, leave.NewApplicationResponses(apps), &response.Meta{Count: len(apps), Limit: limit})
}

// ListPending implements LeaveHandler.
func (h *leaveHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	approverID, ok := callerID(w, r)
	if !ok {
		return
	}
	limit := getIntQueryParam(r, "limit", 0)
	apps, err := h.leaveService.ListPending(r.Context(), approverID, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, leave.NewApplicationResponses(apps), &response.Meta{Count: len(apps), Limit: limit})
}

// Get implements LeaveHandler. Applicants see their own requests; approvers
// see any.
func (h *leaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	app, err := h.leaveService.GetApplication(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if app.UserID != caller.UserID && !user.HasPermission(caller.Role, user.CapLeaveApprove) {
		response.HandleError(w, leave.ErrLeaveRequestNotFound)
		return
	}

	response.Success(w, leave.NewApplicationResponse(app))
}

// Decide implements LeaveHandler.
func (h *leaveHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	approverID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	var req leave.DecideLeaveRequest
	if !decodeJSON(w, r, &req, "DecideLeave") {
		return
	}
	req.ApplicationID = id
	req.ApproverID = approverID

	app, err := h.leaveService.DecideLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request "+string(app.Status), leave.NewApplicationResponse(app))
}

// Cancel implements LeaveHandler.
func (h *leaveHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := applicationID(w, r)
	if !ok {
		return
	}

	if err := h.leaveService.CancelLeave(r.Context(), id, userID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled", nil)
}
