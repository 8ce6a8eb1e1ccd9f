package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRecordRow struct {
	ID              string          `db:"id"`
	UserID          string          `db:"user_id"`
	PeriodYear      int             `db:"period_year"`
	PeriodMonth     int             `db:"period_month"`
	WorkDays        int             `db:"work_days"`
	TotalHours      decimal.Decimal `db:"total_hours"`
	RegularHours    decimal.Decimal `db:"regular_hours"`
	OvertimeHours   decimal.Decimal `db:"overtime_hours"`
	BaseSalary      decimal.Decimal `db:"base_salary"`
	OvertimePay     decimal.Decimal `db:"overtime_pay"`
	HolidayPay      decimal.Decimal `db:"holiday_pay"`
	NightShiftPay   decimal.Decimal `db:"night_shift_pay"`
	TotalAllowances decimal.Decimal `db:"total_allowances"`
	GrossSalary     decimal.Decimal `db:"gross_salary"`
	TotalDeductions decimal.Decimal `db:"total_deductions"`
	Status          string          `db:"status"`
	CalculatedAt    time.Time       `db:"calculated_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	UserName        *string         `db:"user_name"`
}

func (r payrollRecordRow) toEntity() payroll.PayrollRecord {
	return payroll.PayrollRecord{
		ID:              r.ID,
		UserID:          r.UserID,
		PeriodYear:      r.PeriodYear,
		PeriodMonth:     r.PeriodMonth,
		WorkDays:        r.WorkDays,
		TotalHours:      r.TotalHours,
		RegularHours:    r.RegularHours,
		OvertimeHours:   r.OvertimeHours,
		BaseSalary:      r.BaseSalary,
		OvertimePay:     r.OvertimePay,
		HolidayPay:      r.HolidayPay,
		NightShiftPay:   r.NightShiftPay,
		TotalAllowances: r.TotalAllowances,
		GrossSalary:     r.GrossSalary,
		TotalDeductions: r.TotalDeductions,
		Status:          payroll.PayrollStatus(r.Status),
		CalculatedAt:    r.CalculatedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		UserName:        r.UserName,
	}
}

// net_salary is a generated column and never written from here.
const payrollRecordColumns = `
	pr.id, pr.user_id, pr.period_year, pr.period_month, pr.work_days,
	pr.total_hours, pr.regular_hours, pr.overtime_hours, pr.base_salary,
	pr.overtime_pay, pr.holiday_pay, pr.night_shift_pay, pr.total_allowances,
	pr.gross_salary, pr.total_deductions, pr.status, pr.calculated_at,
	pr.created_at, pr.updated_at, e.name AS user_name`

type payrollDetailRow struct {
	ID              string          `db:"id"`
	PayrollRecordID string          `db:"payroll_record_id"`
	Category        string          `db:"category"`
	Name            string          `db:"name"`
	Amount          decimal.Decimal `db:"amount"`
	SortOrder       int             `db:"sort_order"`
}

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func (r *payrollRepository) LockPeriod(ctx context.Context, userID string, year, month int) error {
	q := GetQuerier(ctx, r.db)

	key := fmt.Sprintf("payroll:%s:%04d-%02d", userID, year, month)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock payroll period: %w", err)
	}
	return nil
}

func (r *payrollRepository) GetByPeriod(ctx context.Context, userID string, year, month int) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollRecordColumns + `
		FROM payroll_records pr
		LEFT JOIN employees e ON e.id = pr.user_id
		WHERE pr.user_id = $1 AND pr.period_year = $2 AND pr.period_month = $3
	`

	rows, err := q.Query(ctx, query, userID, year, month)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[payrollRecordRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return row.toEntity(), nil
}

func (r *payrollRepository) Upsert(ctx context.Context, rec payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_records (
			id, user_id, period_year, period_month, work_days,
			total_hours, regular_hours, overtime_hours, base_salary,
			overtime_pay, holiday_pay, night_shift_pay, total_allowances,
			gross_salary, total_deductions, status, calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id, period_year, period_month) DO UPDATE SET
			work_days = EXCLUDED.work_days,
			total_hours = EXCLUDED.total_hours,
			regular_hours = EXCLUDED.regular_hours,
			overtime_hours = EXCLUDED.overtime_hours,
			base_salary = EXCLUDED.base_salary,
			overtime_pay = EXCLUDED.overtime_pay,
			holiday_pay = EXCLUDED.holiday_pay,
			night_shift_pay = EXCLUDED.night_shift_pay,
			total_allowances = EXCLUDED.total_allowances,
			gross_salary = EXCLUDED.gross_salary,
			total_deductions = EXCLUDED.total_deductions,
			calculated_at = EXCLUDED.calculated_at,
			updated_at = NOW()
		RETURNING id
	`

	var id string
	err := q.QueryRow(ctx, query,
		rec.ID, rec.UserID, rec.PeriodYear, rec.PeriodMonth, rec.WorkDays,
		rec.TotalHours, rec.RegularHours, rec.OvertimeHours, rec.BaseSalary,
		rec.OvertimePay, rec.HolidayPay, rec.NightShiftPay, rec.TotalAllowances,
		rec.GrossSalary, rec.TotalDeductions, string(rec.Status), rec.CalculatedAt,
	).Scan(&id)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to upsert payroll record: %w", err)
	}

	return r.GetByPeriod(ctx, rec.UserID, rec.PeriodYear, rec.PeriodMonth)
}

func (r *payrollRepository) ReplaceDetails(ctx context.Context, recordID string, lines []payroll.PayrollDetailLine) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM payroll_details WHERE payroll_record_id = $1`, recordID); err != nil {
		return fmt.Errorf("failed to delete payroll details: %w", err)
	}

	query := `
		INSERT INTO payroll_details (id, payroll_record_id, category, name, amount, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, l := range lines {
		if _, err := q.Exec(ctx, query, l.ID, recordID, string(l.Category), l.Name, l.Amount, l.SortOrder); err != nil {
			return fmt.Errorf("failed to insert payroll detail %q: %w", l.Name, err)
		}
	}
	return nil
}

func (r *payrollRepository) ListDetails(ctx context.Context, recordID string) ([]payroll.PayrollDetailLine, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, payroll_record_id, category, name, amount, sort_order
		FROM payroll_details
		WHERE payroll_record_id = $1
		ORDER BY sort_order
	`

	rows, err := q.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll details: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[payrollDetailRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan payroll details: %w", err)
	}

	lines := make([]payroll.PayrollDetailLine, 0, len(collected))
	for _, row := range collected {
		lines = append(lines, payroll.PayrollDetailLine{
			ID:              row.ID,
			PayrollRecordID: row.PayrollRecordID,
			Category:        payroll.Category(row.Category),
			Name:            row.Name,
			Amount:          row.Amount,
			SortOrder:       row.SortOrder,
		})
	}
	return lines, nil
}

func (r *payrollRepository) listRecords(ctx context.Context, where string, args ...any) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollRecordColumns + `
		FROM payroll_records pr
		LEFT JOIN employees e ON e.id = pr.user_id
		WHERE ` + where

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[payrollRecordRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan payroll records: %w", err)
	}

	records := make([]payroll.PayrollRecord, 0, len(collected))
	for _, row := range collected {
		records = append(records, row.toEntity())
	}
	return records, nil
}

func (r *payrollRepository) ListByUser(ctx context.Context, userID string, limit int) ([]payroll.PayrollRecord, error) {
	return r.listRecords(ctx, `pr.user_id = $1 ORDER BY pr.period_year DESC, pr.period_month DESC LIMIT $2`, userID, limit)
}

func (r *payrollRepository) ListByPeriod(ctx context.Context, year, month int) ([]payroll.PayrollRecord, error) {
	return r.listRecords(ctx, `pr.period_year = $1 AND pr.period_month = $2 ORDER BY pr.user_id`, year, month)
}
