package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 5
	maxListLimit     = 50
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveTypeRepository
	leave.ApplicationRepository
	user.UserRepository
	notifier notification.Service
	now      func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	leaveTypeRepo leave.LeaveTypeRepository,
	applicationRepo leave.ApplicationRepository,
	userRepo user.UserRepository,
	notifier notification.Service,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:                    tx,
		LeaveTypeRepository:   leaveTypeRepo,
		ApplicationRepository: applicationRepo,
		UserRepository:        userRepo,
		notifier:              notifier,
		now:                   time.Now,
	}
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// ListLeaveTypes implements leave.LeaveService.
func (s *LeaveServiceImpl) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	types, err := s.LeaveTypeRepository.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	return types, nil
}

// SubmitLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) SubmitLeave(ctx context.Context, req leave.SubmitLeaveRequest) (leave.SubmitLeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.SubmitLeaveResponse{}, err
	}

	leaveType, err := s.LeaveTypeRepository.GetByID(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.SubmitLeaveResponse{}, err
	}
	if !leaveType.IsActive {
		return leave.SubmitLeaveResponse{}, leave.ErrLeaveTypeInactive
	}

	startDate, _ := time.Parse(dateLayout, req.StartDate)
	endDate, _ := time.Parse(dateLayout, req.EndDate)
	hours, err := HoursFor(startDate, endDate, req.StartTime, req.EndTime)
	if err != nil {
		return leave.SubmitLeaveResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.SubmitLeaveResponse{}, fmt.Errorf("failed to generate application id: %w", err)
	}

	var created leave.Application
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ApplicationRepository.LockUser(ctx, req.UserID); err != nil {
			return err
		}

		overlap, err := s.ApplicationRepository.HasOverlap(ctx, req.UserID, startDate, endDate, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if overlap {
			return leave.ErrOverlappingLeave
		}

		if leaveType.MaxDaysPerYear > 0 {
			used, err := s.ApplicationRepository.SumHours(ctx, req.UserID, leaveType.ID, startDate.Year())
			if err != nil {
				return err
			}
			quota := hoursPerDay.Mul(decimal.NewFromInt(int64(leaveType.MaxDaysPerYear)))
			if used.Add(hours).GreaterThan(quota) {
				return leave.ErrInsufficientQuota
			}
		}

		created, err = s.ApplicationRepository.Create(ctx, leave.Application{
			ID:          id.String(),
			UserID:      req.UserID,
			LeaveTypeID: leaveType.ID,
			StartDate:   startDate,
			EndDate:     endDate,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			TotalHours:  hours,
			Reason:      req.Reason,
			Status:      leave.StatusPending,
		})
		return err
	})
	if err != nil {
		return leave.SubmitLeaveResponse{}, err
	}

	slog.Info("leave application submitted",
		"application_id", created.ID,
		"user_id", created.UserID,
		"leave_type", leaveType.Code,
		"hours", created.TotalHours.String(),
	)
	s.notifyApprovers(ctx, created, leaveType)

	return leave.SubmitLeaveResponse{
		ApplicationID: created.ID,
		TotalHours:    created.TotalHours,
		Status:        string(created.Status),
	}, nil
}

// DecideLeave implements leave.LeaveService. Only one decision ever lands:
// the update is conditional on the application still being pending.
func (s *LeaveServiceImpl) DecideLeave(ctx context.Context, req leave.DecideLeaveRequest) (leave.Application, error) {
	if err := req.Validate(); err != nil {
		return leave.Application{}, err
	}

	approver, err := s.UserRepository.GetByID(ctx, req.ApproverID)
	if err != nil {
		return leave.Application{}, err
	}
	if !approver.Can(user.CapLeaveApprove) {
		return leave.Application{}, user.ErrPermissionDenied
	}

	app, err := s.ApplicationRepository.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return leave.Application{}, err
	}
	if app.UserID == approver.ID {
		return leave.Application{}, leave.ErrSelfApproval
	}
	if !app.IsPending() {
		return leave.Application{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	status := leave.StatusRejected
	if req.Approved {
		status = leave.StatusApproved
	}
	decided, err := s.ApplicationRepository.Decide(ctx, app.ID, status, approver.ID, req.RejectReason, s.now())
	if err != nil {
		return leave.Application{}, err
	}
	if !decided {
		return leave.Application{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	updated, err := s.ApplicationRepository.GetByID(ctx, app.ID)
	if err != nil {
		return leave.Application{}, err
	}

	slog.Info("leave application decided",
		"application_id", updated.ID,
		"status", updated.Status,
		"approver_id", approver.ID,
	)
	s.notifyApplicant(ctx, updated, approver)

	return updated, nil
}

// CancelLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) CancelLeave(ctx context.Context, applicationID, userID string) error {
	app, err := s.ApplicationRepository.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.UserID != userID {
		return leave.ErrNotApplicationOwner
	}
	if !app.IsPending() {
		return leave.ErrLeaveRequestAlreadyProcessed
	}

	cancelled, err := s.ApplicationRepository.Cancel(ctx, applicationID, userID, s.now())
	if err != nil {
		return err
	}
	if !cancelled {
		return leave.ErrLeaveRequestAlreadyProcessed
	}

	slog.Info("leave application cancelled", "application_id", applicationID, "user_id", userID)
	return nil
}

// GetApplication implements leave.LeaveService.
func (s *LeaveServiceImpl) GetApplication(ctx context.Context, id string) (leave.Application, error) {
	return s.ApplicationRepository.GetByID(ctx, id)
}

// ListMyApplications implements leave.LeaveService.
func (s *LeaveServiceImpl) ListMyApplications(ctx context.Context, userID string, limit int) ([]leave.Application, error) {
	return s.ApplicationRepository.ListByUser(ctx, userID, clampLimit(limit, defaultListLimit))
}

// ListPending implements leave.LeaveService. The approver's own
// applications are left out since they cannot decide them.
func (s *LeaveServiceImpl) ListPending(ctx context.Context, approverID string, limit int) ([]leave.Application, error) {
	return s.ApplicationRepository.ListPending(ctx, approverID, clampLimit(limit, 10))
}

func (s *LeaveServiceImpl) notifyApprovers(ctx context.Context, app leave.Application, leaveType leave.LeaveType) {
	if s.notifier == nil {
		return
	}

	approvers, err := s.UserRepository.ListByRoles(ctx, user.RolesWith(user.CapLeaveApprove))
	if err != nil {
		slog.Warn("failed to list approvers", "application_id", app.ID, "error", err)
		return
	}

	applicant := app.UserID
	if app.UserName != nil {
		applicant = *app.UserName
	}

	var reqs []notification.CreateNotificationRequest
	for _, a := range approvers {
		if a.ID == app.UserID {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			RecipientID: a.ID,
			SenderID:    &app.UserID,
			Type:        notification.TypeLeaveSubmitted,
			Title:       "新的請假申請",
			Message: fmt.Sprintf("%s 申請 %s %s ~ %s，共 %s 小時",
				applicant, leaveType.Name,
				app.StartDate.Format(dateLayout), app.EndDate.Format(dateLayout),
				app.TotalHours.String()),
			Data: map[string]any{"application_id": app.ID},
		})
	}
	if err := s.notifier.QueueBulkNotification(ctx, reqs); err != nil {
		slog.Error("failed to notify approvers", "application_id", app.ID, "error", err)
	}
}

func (s *LeaveServiceImpl) notifyApplicant(ctx context.Context, app leave.Application, approver user.User) {
	if s.notifier == nil {
		return
	}

	typ, title := notification.TypeLeaveApproved, "請假申請已核准"
	if app.Status == leave.StatusRejected {
		typ, title = notification.TypeLeaveRejected, "請假申請已駁回"
	}
	message := fmt.Sprintf("%s ~ %s 的請假申請由 %s 審核",
		app.StartDate.Format(dateLayout), app.EndDate.Format(dateLayout), approver.DisplayName())
	if app.RejectReason != nil && *app.RejectReason != "" {
		message += "，原因：" + *app.RejectReason
	}

	err := s.notifier.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: app.UserID,
		SenderID:    &approver.ID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        map[string]any{"application_id": app.ID},
	})
	if err != nil {
		slog.Warn("failed to queue leave decision notification", "application_id", app.ID, "error", err)
	}
}
