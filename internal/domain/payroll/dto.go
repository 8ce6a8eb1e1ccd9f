package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type PeriodRequest struct {
	UserID string
	Year   int
	Month  int
}

func (r *PeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "is required"})
	}
	if r.Year < 2000 || r.Year > 2100 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DetailLineResponse struct {
	Category Category        `json:"category"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

type PayslipResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	PeriodYear      int                  `json:"period_year"`
	PeriodMonth     int                  `json:"period_month"`
	WorkDays        int                  `json:"work_days"`
	TotalHours      decimal.Decimal      `json:"total_hours"`
	RegularHours    decimal.Decimal      `json:"regular_hours"`
	OvertimeHours   decimal.Decimal      `json:"overtime_hours"`
	BaseSalary      decimal.Decimal      `json:"base_salary"`
	OvertimePay     decimal.Decimal      `json:"overtime_pay"`
	HolidayPay      decimal.Decimal      `json:"holiday_pay"`
	NightShiftPay   decimal.Decimal      `json:"night_shift_pay"`
	TotalAllowances decimal.Decimal      `json:"total_allowances"`
	GrossSalary     decimal.Decimal      `json:"gross_salary"`
	TotalDeductions decimal.Decimal      `json:"total_deductions"`
	NetSalary       decimal.Decimal      `json:"net_salary"`
	Status          PayrollStatus        `json:"status"`
	CalculatedAt    time.Time            `json:"calculated_at"`
	Lines           []DetailLineResponse `json:"lines"`
}

func NewPayslipResponse(p Payslip) PayslipResponse {
	r := p.Record
	lines := make([]DetailLineResponse, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, DetailLineResponse{Category: l.Category, Name: l.Name, Amount: l.Amount})
	}
	return PayslipResponse{
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
		NetSalary:       r.NetSalary(),
		Status:          r.Status,
		CalculatedAt:    r.CalculatedAt,
		Lines:           lines,
	}
}

type StatsResponse struct {
	PeriodYear      int             `json:"period_year"`
	PeriodMonth     int             `json:"period_month"`
	Headcount       int             `json:"headcount"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

// CloseResult - outcome of a monthly close run
type CloseResult struct {
	PeriodYear  int      `json:"period_year"`
	PeriodMonth int      `json:"period_month"`
	Processed   int      `json:"processed"`
	Failed      []string `json:"failed,omitempty"`
}

func NewStatsResponse(s Stats) StatsResponse {
	return StatsResponse{
		PeriodYear:      s.PeriodYear,
		PeriodMonth:     s.PeriodMonth,
		Headcount:       s.Headcount,
		TotalGross:      s.TotalGross,
		TotalDeductions: s.TotalDeductions,
		TotalNet:        s.TotalNet,
	}
}

// HistoryItemResponse is one month in a user's payroll history.
type HistoryItemResponse struct {
	ID              string          `json:"id"`
	PeriodYear      int             `json:"period_year"`
	PeriodMonth     int             `json:"period_month"`
	GrossSalary     decimal.Decimal `json:"gross_salary"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetSalary       decimal.Decimal `json:"net_salary"`
	Status          PayrollStatus   `json:"status"`
	CalculatedAt    time.Time       `json:"calculated_at"`
}

func NewHistoryResponse(records []PayrollRecord) []HistoryItemResponse {
	items := make([]HistoryItemResponse, 0, len(records))
	for _, r := range records {
		items = append(items, HistoryItemResponse{
			ID:              r.ID,
			PeriodYear:      r.PeriodYear,
			PeriodMonth:     r.PeriodMonth,
			GrossSalary:     r.GrossSalary,
			TotalDeductions: r.TotalDeductions,
			NetSalary:       r.NetSalary(),
			Status:          r.Status,
			CalculatedAt:    r.CalculatedAt,
		})
	}
	return items
}
