package payroll

import "context"

type PayrollService interface {
	// GetMonthlyPayroll recomputes, persists and returns the user's payslip
	// for the period.
	GetMonthlyPayroll(ctx context.Context, req PeriodRequest) (Payslip, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]PayrollRecord, error)
	MonthlyStats(ctx context.Context, year, month int) (Stats, error)
	CloseMonth(ctx context.Context, year, month int) (CloseResult, error)
}
