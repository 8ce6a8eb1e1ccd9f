package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Invalid or expired token")

	// User
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, user.ErrEmployeeCodeExists):
		Conflict(w, "Employee code already registered")
	case errors.Is(err, user.ErrPermissionDenied):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrInactiveUser):
		Forbidden(w, "Employee account is inactive")
	case errors.Is(err, user.ErrInvalidRole), errors.Is(err, user.ErrInvalidPasswordLength):
		BadRequest(w, err.Error(), nil)

	// Attendance
	case errors.Is(err, attendance.ErrInvalidAction), errors.Is(err, attendance.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Payroll
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
		Conflict(w, "Payroll record already paid")
	case errors.Is(err, payroll.ErrPayrollBusy):
		Conflict(w, "Payroll is being recalculated, please retry")

	// Salary
	case errors.Is(err, salary.ErrNegativeAmount),
		errors.Is(err, salary.ErrInvalidAllowanceList),
		errors.Is(err, salary.ErrInvalidEffectiveDate):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, salary.ErrSalaryStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, salary.ErrDeductionProfileNotFound):
		NotFound(w, "Deduction profile not found")

	// Leave
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrOverlappingLeave):
		Conflict(w, "Leave overlaps an existing application")
	case errors.Is(err, leave.ErrInsufficientQuota):
		BadRequest(w, "Insufficient leave quota", nil)
	case errors.Is(err, leave.ErrLeaveTypeInactive),
		errors.Is(err, leave.ErrInvalidLeaveDate),
		errors.Is(err, leave.ErrEndBeforeStart):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, leave.ErrSelfApproval), errors.Is(err, leave.ErrNotApplicationOwner):
		Forbidden(w, err.Error())

	// Conversation
	case errors.Is(err, conversation.ErrSessionBusy):
		Conflict(w, "Another message is being processed, please retry")
	case errors.Is(err, conversation.ErrEmptyInput):
		BadRequest(w, err.Error(), nil)

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
