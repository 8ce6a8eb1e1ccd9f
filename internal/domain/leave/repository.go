package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	GetByID(ctx context.Context, id string) (LeaveType, error)
	ListActive(ctx context.Context) ([]LeaveType, error)
}

// ApplicationRepository - interface for leave_applications table
type ApplicationRepository interface {
	// LockUser serializes submissions of one user for the rest of the
	// surrounding transaction.
	LockUser(ctx context.Context, userID string) error

	Create(ctx context.Context, app Application) (Application, error)
	GetByID(ctx context.Context, id string) (Application, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Application, error)
	// ListPending lists pending applications oldest first, leaving out
	// those filed by excludeUserID.
	ListPending(ctx context.Context, excludeUserID string, limit int) ([]Application, error)

	// HasOverlap reports pending or approved applications intersecting
	// [start, end] by date whose clock window also intersects [startTime,
	// endTime). Nil clock values mean the full day.
	HasOverlap(ctx context.Context, userID string, start, end time.Time, startTime, endTime *string) (bool, error)

	// SumHours totals pending and approved hours of one type in a year.
	SumHours(ctx context.Context, userID, leaveTypeID string, year int) (decimal.Decimal, error)

	// Decide moves a pending application to status. It reports false when
	// the application was no longer pending.
	Decide(ctx context.Context, id string, status ApplicationStatus, approverID string, rejectReason *string, at time.Time) (bool, error)

	// Cancel moves the owner's pending application to cancelled.
	Cancel(ctx context.Context, id, userID string, at time.Time) (bool, error)
}
