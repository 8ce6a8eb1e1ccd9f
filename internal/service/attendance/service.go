package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	policy attendance.Policy
	now    func() time.Time
}

// RecordClockEvent implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordClockEvent(ctx context.Context, req attendance.ClockRequest) (attendance.ClockResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.ClockResponse{}, err
	}

	ts := a.now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	action := attendance.Action(req.Action)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.ClockResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	event := attendance.Event{
		ID:        id.String(),
		UserID:    req.UserID,
		Date:      a.policy.LocalDate(ts),
		Action:    action,
		Timestamp: ts,
		Location:  req.Location,
		Status:    a.policy.StatusFor(action, ts),
	}

	created, err := a.AttendanceRepository.Create(ctx, event)
	if err != nil {
		return attendance.ClockResponse{}, fmt.Errorf("failed to record clock event: %w", err)
	}

	slog.Info("clock event recorded", "user_id", created.UserID, "action", created.Action, "status", created.Status)

	return attendance.ClockResponse{
		RecordID:  created.ID,
		Action:    created.Action,
		Status:    created.Status,
		Timestamp: created.Timestamp,
	}, nil
}

// Summarize implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Summarize(ctx context.Context, userID string, year, month int) (attendance.MonthlySummaryResponse, error) {
	if month < 1 || month > 12 || year < 2000 {
		return attendance.MonthlySummaryResponse{}, attendance.ErrInvalidPeriod
	}

	period := attendance.MonthPeriod(year, month, a.policy.Location)
	events, err := a.AttendanceRepository.ListByUserBetween(ctx, userID, period.Start, period.End)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, fmt.Errorf("failed to list attendance events: %w", err)
	}

	resp := attendance.MonthlySummaryResponse{
		UserID:  userID,
		Year:    year,
		Month:   month,
		Summary: Aggregate(events, a.policy.StandardHours),
	}
	for _, e := range events {
		switch e.Status {
		case attendance.StatusLate:
			resp.LateCount++
		case attendance.StatusEarly:
			resp.EarlyCount++
		}
	}
	return resp, nil
}

func NewAttendanceService(attendanceRepo attendance.AttendanceRepository, policy attendance.Policy) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		policy:               policy,
		now:                  time.Now,
	}
}
