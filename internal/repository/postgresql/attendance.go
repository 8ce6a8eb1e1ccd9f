package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceEventRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	EventDate time.Time `db:"event_date"`
	Action    string    `db:"action"`
	EventTime time.Time `db:"event_time"`
	Location  *string   `db:"location"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (r attendanceEventRow) toEntity() attendance.Event {
	return attendance.Event{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      r.EventDate,
		Action:    attendance.Action(r.Action),
		Timestamp: r.EventTime,
		Location:  r.Location,
		Status:    attendance.Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

const attendanceEventColumns = `id, user_id, event_date, action, event_time, location, status, created_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_events (id, user_id, event_date, action, event_time, location, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + attendanceEventColumns

	rows, err := q.Query(ctx, query,
		event.ID, event.UserID, event.Date, string(event.Action),
		event.Timestamp, event.Location, string(event.Status),
	)
	if err != nil {
		return attendance.Event{}, fmt.Errorf("failed to insert attendance event: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[attendanceEventRow])
	if err != nil {
		return attendance.Event{}, fmt.Errorf("failed to insert attendance event: %w", err)
	}
	return row.toEntity(), nil
}

func (r *attendanceRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]attendance.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceEventColumns + `
		FROM attendance_events
		WHERE user_id = $1 AND event_date >= $2 AND event_date < $3
		ORDER BY event_time, created_at
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance events: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[attendanceEventRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance events: %w", err)
	}

	events := make([]attendance.Event, 0, len(collected))
	for _, row := range collected {
		events = append(events, row.toEntity())
	}
	return events, nil
}
