package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// RecordClockEvent appends one clock event and derives its status
	RecordClockEvent(ctx context.Context, req ClockRequest) (ClockResponse, error)

	// Summarize aggregates a user's work hours for one month
	Summarize(ctx context.Context, userID string, year, month int) (MonthlySummaryResponse, error)
}
