package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Clock(w http.ResponseWriter, r *http.Request)
	GetMySummary(w http.ResponseWriter, r *http.Request)
	GetUserSummary(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Clock implements AttendanceHandler.
func (h *attendanceHandlerImpl) Clock(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req attendance.ClockRequest
	if !decodeJSON(w, r, &req, "Clock") {
		return
	}
	req.UserID = userID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.RecordClockEvent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock event recorded", result)
}

// GetMySummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	h.summary(w, r, userID)
}

// GetUserSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetUserSummary(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, chi.URLParam(r, "userID"))
}

func (h *attendanceHandlerImpl) summary(w http.ResponseWriter, r *http.Request, userID string) {
	year, month, ok := periodParams(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.Summarize(r.Context(), userID, year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
