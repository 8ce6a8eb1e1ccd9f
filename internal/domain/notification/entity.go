package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLeaveSubmitted    NotificationType = "leave_submitted"
	TypeLeaveApproved     NotificationType = "leave_approved"
	TypeLeaveRejected     NotificationType = "leave_rejected"
	TypePayrollCalculated NotificationType = "payroll_calculated"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case TypeLeaveSubmitted, TypeLeaveApproved, TypeLeaveRejected, TypePayrollCalculated:
		return true
	}
	return false
}

// Notification is an outbound bot message for one recipient. It is pushed to
// live subscribers only and never stored.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}
