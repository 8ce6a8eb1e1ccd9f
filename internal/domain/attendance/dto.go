package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
)

type ClockRequest struct {
	UserID    string     `json:"-"`
	Action    string     `json:"action"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Location  *string    `json:"location,omitempty"`
}

func (r *ClockRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}
	if !Action(r.Action).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be 'clock_in' or 'clock_out'",
		})
	}
	if r.Location != nil && validator.ExceedsLength(*r.Location, 255) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "location must not exceed 255 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ClockResponse struct {
	RecordID  string    `json:"record_id"`
	Action    Action    `json:"action"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type MonthlySummaryResponse struct {
	UserID     string          `json:"user_id"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	LateCount  int             `json:"late_count"`
	EarlyCount int             `json:"early_count"`
	Summary    WorkHourSummary `json:"summary"`
}
