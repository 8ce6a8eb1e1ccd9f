package leave

import (
	"regexp"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type SubmitLeaveRequest struct {
	UserID      string  `json:"-"`
	LeaveTypeID string  `json:"leave_type_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Reason      string  `json:"reason"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
}

func (r *SubmitLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{Field: "leave_type_id", Message: "leave_type_id is required"})
	}
	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}
	if okStart && okEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if validator.ExceedsLength(r.Reason, 500) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason must not exceed 500 characters"})
	}
	if (r.StartTime == nil) != (r.EndTime == nil) {
		errs = append(errs, validator.ValidationError{Field: "start_time", Message: "start_time and end_time must be given together"})
	}
	if r.StartTime != nil && r.EndTime != nil {
		if !clockRegex.MatchString(*r.StartTime) || !clockRegex.MatchString(*r.EndTime) {
			errs = append(errs, validator.ValidationError{Field: "start_time", Message: "times must be in HH:MM format"})
		} else if *r.EndTime <= *r.StartTime {
			errs = append(errs, validator.ValidationError{Field: "end_time", Message: "end_time must be after start_time"})
		}
		if okStart && okEnd && !start.Equal(end) {
			errs = append(errs, validator.ValidationError{Field: "start_time", Message: "times are only allowed for single-day leave"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SubmitLeaveResponse struct {
	ApplicationID string          `json:"application_id"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	Status        string          `json:"status"`
}

type DecideLeaveRequest struct {
	ApplicationID string  `json:"-"`
	ApproverID    string  `json:"-"`
	Approved      bool    `json:"approved"`
	RejectReason  *string `json:"reject_reason,omitempty"`
}

func (r *DecideLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ApplicationID) {
		errs = append(errs, validator.ValidationError{Field: "application_id", Message: "application_id must be a valid UUID"})
	}
	if validator.IsEmpty(r.ApproverID) {
		errs = append(errs, validator.ValidationError{Field: "approver_id", Message: "approver_id is required"})
	}
	if r.Approved && r.RejectReason != nil {
		errs = append(errs, validator.ValidationError{Field: "reject_reason", Message: "reject_reason is only allowed when rejecting"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ApplicationResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	UserName      *string         `json:"user_name,omitempty"`
	LeaveTypeID   string          `json:"leave_type_id"`
	LeaveTypeName *string         `json:"leave_type_name,omitempty"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	StartTime     *string         `json:"start_time,omitempty"`
	EndTime       *string         `json:"end_time,omitempty"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	Reason        string          `json:"reason"`
	Status        string          `json:"status"`
	ApprovedBy    *string         `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	RejectReason  *string         `json:"reject_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewApplicationResponse(a Application) ApplicationResponse {
	return ApplicationResponse{
		ID:            a.ID,
		UserID:        a.UserID,
		UserName:      a.UserName,
		LeaveTypeID:   a.LeaveTypeID,
		LeaveTypeName: a.LeaveTypeName,
		StartDate:     a.StartDate.Format("2006-01-02"),
		EndDate:       a.EndDate.Format("2006-01-02"),
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		TotalHours:    a.TotalHours,
		Reason:        a.Reason,
		Status:        string(a.Status),
		ApprovedBy:    a.ApprovedBy,
		ApprovedAt:    a.ApprovedAt,
		RejectReason:  a.RejectReason,
		CreatedAt:     a.CreatedAt,
	}
}

type LeaveTypeResponse struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	IsPaid         bool   `json:"is_paid"`
	MaxDaysPerYear int    `json:"max_days_per_year"`
}

func NewLeaveTypeResponses(types []LeaveType) []LeaveTypeResponse {
	out := make([]LeaveTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, LeaveTypeResponse{
			ID:             t.ID,
			Code:           t.Code,
			Name:           t.Name,
			IsPaid:         t.IsPaid,
			MaxDaysPerYear: t.MaxDaysPerYear,
		})
	}
	return out
}

func NewApplicationResponses(apps []Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, NewApplicationResponse(a))
	}
	return out
}
