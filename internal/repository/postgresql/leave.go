package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type leaveTypeRow struct {
	ID             string    `db:"id"`
	Code           string    `db:"code"`
	Name           string    `db:"name"`
	IsPaid         bool      `db:"is_paid"`
	MaxDaysPerYear int       `db:"max_days_per_year"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r leaveTypeRow) toEntity() leave.LeaveType {
	return leave.LeaveType{
		ID:             r.ID,
		Code:           r.Code,
		Name:           r.Name,
		IsPaid:         r.IsPaid,
		MaxDaysPerYear: r.MaxDaysPerYear,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
	}
}

const leaveTypeColumns = `id, code, name, is_paid, max_days_per_year, is_active, created_at`

type leaveTypeRepository struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepository{db: db}
}

func (r *leaveTypeRepository) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+leaveTypeColumns+` FROM leave_types WHERE id = $1`, id)
	if err != nil {
		return leave.LeaveType{}, fmt.Errorf("failed to get leave type: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[leaveTypeRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, fmt.Errorf("failed to get leave type: %w", err)
	}
	return row.toEntity(), nil
}

func (r *leaveTypeRepository) ListActive(ctx context.Context) ([]leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+leaveTypeColumns+` FROM leave_types WHERE is_active = TRUE ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[leaveTypeRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan leave types: %w", err)
	}

	types := make([]leave.LeaveType, 0, len(collected))
	for _, row := range collected {
		types = append(types, row.toEntity())
	}
	return types, nil
}

type applicationRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	LeaveTypeID   string          `db:"leave_type_id"`
	StartDate     time.Time       `db:"start_date"`
	EndDate       time.Time       `db:"end_date"`
	StartTime     *string         `db:"start_time"`
	EndTime       *string         `db:"end_time"`
	TotalHours    decimal.Decimal `db:"total_hours"`
	Reason        string          `db:"reason"`
	Status        string          `db:"status"`
	ApprovedBy    *string         `db:"approved_by"`
	ApprovedAt    *time.Time      `db:"approved_at"`
	RejectReason  *string         `db:"reject_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	LeaveTypeName *string         `db:"leave_type_name"`
	UserName      *string         `db:"user_name"`
}

func (r applicationRow) toEntity() leave.Application {
	return leave.Application{
		ID:            r.ID,
		UserID:        r.UserID,
		LeaveTypeID:   r.LeaveTypeID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TotalHours:    r.TotalHours,
		Reason:        r.Reason,
		Status:        leave.ApplicationStatus(r.Status),
		ApprovedBy:    r.ApprovedBy,
		ApprovedAt:    r.ApprovedAt,
		RejectReason:  r.RejectReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LeaveTypeName: r.LeaveTypeName,
		UserName:      r.UserName,
	}
}

const applicationSelect = `
	SELECT
		la.id, la.user_id, la.leave_type_id, la.start_date, la.end_date,
		to_char(la.start_time, 'HH24:MI') AS start_time,
		to_char(la.end_time, 'HH24:MI') AS end_time,
		la.total_hours, la.reason, la.status, la.approved_by, la.approved_at,
		la.reject_reason, la.created_at, la.updated_at,
		lt.name AS leave_type_name, e.name AS user_name
	FROM leave_applications la
	LEFT JOIN leave_types lt ON lt.id = la.leave_type_id
	LEFT JOIN employees e ON e.id = la.user_id
`

type applicationRepository struct {
	db *database.DB
}

func NewApplicationRepository(db *database.DB) leave.ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) LockUser(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "leave:"+userID); err != nil {
		return fmt.Errorf("failed to lock leave applications: %w", err)
	}
	return nil
}

func (r *applicationRepository) Create(ctx context.Context, app leave.Application) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_applications (
			id, user_id, leave_type_id, start_date, end_date, start_time, end_time,
			total_hours, reason, status
		) VALUES ($1, $2, $3, $4, $5, $6::time, $7::time, $8, $9, $10)
	`
	_, err := q.Exec(ctx, query,
		app.ID, app.UserID, app.LeaveTypeID, app.StartDate, app.EndDate, app.StartTime, app.EndTime,
		app.TotalHours, app.Reason, string(app.Status),
	)
	if err != nil {
		return leave.Application{}, fmt.Errorf("failed to create leave application: %w", err)
	}

	return r.GetByID(ctx, app.ID)
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, applicationSelect+` WHERE la.id = $1`, id)
	if err != nil {
		return leave.Application{}, fmt.Errorf("failed to get leave application: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[applicationRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Application{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Application{}, fmt.Errorf("failed to get leave application: %w", err)
	}
	return row.toEntity(), nil
}

func (r *applicationRepository) list(ctx context.Context, where string, args ...any) ([]leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, applicationSelect+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave applications: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[applicationRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan leave applications: %w", err)
	}

	apps := make([]leave.Application, 0, len(collected))
	for _, row := range collected {
		apps = append(apps, row.toEntity())
	}
	return apps, nil
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]leave.Application, error) {
	return r.list(ctx, ` WHERE la.user_id = $1 ORDER BY la.created_at DESC LIMIT $2`, userID, limit)
}

func (r *applicationRepository) ListPending(ctx context.Context, excludeUserID string, limit int) ([]leave.Application, error) {
	return r.list(ctx, ` WHERE la.status = 'pending' AND la.user_id <> $1 ORDER BY la.created_at ASC LIMIT $2`, excludeUserID, limit)
}

func (r *applicationRepository) HasOverlap(ctx context.Context, userID string, start, end time.Time, startTime, endTime *string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	// Clock windows only exist on single-day applications, so comparing
	// them after the date check is enough.
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_applications
			WHERE user_id = $1
				AND status IN ('pending', 'approved')
				AND start_date <= $3
				AND end_date >= $2
				AND COALESCE(start_time, '00:00'::time) < COALESCE($5::time, '24:00'::time)
				AND COALESCE(end_time, '24:00'::time) > COALESCE($4::time, '00:00'::time)
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, userID, start, end, startTime, endTime).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return exists, nil
}

func (r *applicationRepository) SumHours(ctx context.Context, userID, leaveTypeID string, year int) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(total_hours), 0)
		FROM leave_applications
		WHERE user_id = $1
			AND leave_type_id = $2
			AND status IN ('pending', 'approved')
			AND EXTRACT(YEAR FROM start_date) = $3
	`
	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, userID, leaveTypeID, year).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum leave hours: %w", err)
	}
	return total, nil
}

func (r *applicationRepository) Decide(ctx context.Context, id string, status leave.ApplicationStatus, approverID string, rejectReason *string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_applications
		SET status = $2, approved_by = $3, approved_at = $4, reject_reason = $5, updated_at = $4
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := q.Exec(ctx, query, id, string(status), approverID, at, rejectReason)
	if err != nil {
		return false, fmt.Errorf("failed to decide leave application: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *applicationRepository) Cancel(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_applications
		SET status = 'cancelled', updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`
	tag, err := q.Exec(ctx, query, id, userID, at)
	if err != nil {
		return false, fmt.Errorf("failed to cancel leave application: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
