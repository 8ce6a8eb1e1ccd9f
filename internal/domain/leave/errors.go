package leave

import "errors"

var (
	ErrLeaveTypeNotFound            = errors.New("leave type not found")
	ErrLeaveTypeInactive            = errors.New("leave type is not active")
	ErrLeaveRequestNotFound         = errors.New("leave request not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("leave request already processed")
	ErrInvalidLeaveDate             = errors.New("invalid leave date")
	ErrEndBeforeStart               = errors.New("end date must not be before start date")
	ErrOverlappingLeave             = errors.New("leave overlaps an existing application")
	ErrInsufficientQuota            = errors.New("insufficient leave quota")
	ErrSelfApproval                 = errors.New("cannot decide on your own leave request")
	ErrNotApplicationOwner          = errors.New("leave request belongs to another user")
)
