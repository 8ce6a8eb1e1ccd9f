package leave

import (
	"context"
)

type LeaveService interface {
	ListLeaveTypes(ctx context.Context) ([]LeaveType, error)
	SubmitLeave(ctx context.Context, req SubmitLeaveRequest) (SubmitLeaveResponse, error)
	DecideLeave(ctx context.Context, req DecideLeaveRequest) (Application, error)
	CancelLeave(ctx context.Context, applicationID, userID string) error
	GetApplication(ctx context.Context, id string) (Application, error)
	ListMyApplications(ctx context.Context, userID string, limit int) ([]Application, error)
	ListPending(ctx context.Context, approverID string, limit int) ([]Application, error)
}
