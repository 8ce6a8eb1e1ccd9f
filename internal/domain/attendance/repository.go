package attendance

import (
	"context"
	"time"
)

// AttendanceRepository is the append-only event log. There is no update or
// delete.
type AttendanceRepository interface {
	Create(ctx context.Context, event Event) (Event, error)

	// ListByUserBetween returns events with from <= date < to ordered by timestamp
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]Event, error)
}
