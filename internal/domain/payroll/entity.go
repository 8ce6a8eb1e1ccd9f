package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft     PayrollStatus = "draft"
	PayrollStatusConfirmed PayrollStatus = "confirmed"
	PayrollStatusPaid      PayrollStatus = "paid"
)

// Category of a payslip detail line
type Category string

const (
	CategorySalary    Category = "salary"
	CategoryAllowance Category = "allowance"
	CategoryDeduction Category = "deduction"
	CategoryBonus     Category = "bonus"
)

// PayrollRecord - monthly payroll result, unique per (UserID, PeriodYear, PeriodMonth)
type PayrollRecord struct {
	ID              string
	UserID          string
	PeriodYear      int
	PeriodMonth     int
	WorkDays        int
	TotalHours      decimal.Decimal
	RegularHours    decimal.Decimal
	OvertimeHours   decimal.Decimal
	BaseSalary      decimal.Decimal
	OvertimePay     decimal.Decimal
	HolidayPay      decimal.Decimal
	NightShiftPay   decimal.Decimal
	TotalAllowances decimal.Decimal
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	Status          PayrollStatus
	CalculatedAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	UserName *string
}

// NetSalary is always derived; it is never stored independently.
func (r PayrollRecord) NetSalary() decimal.Decimal {
	return r.GrossSalary.Sub(r.TotalDeductions)
}

// SameFigures reports whether two records carry identical computed values.
func (r PayrollRecord) SameFigures(o PayrollRecord) bool {
	return r.WorkDays == o.WorkDays &&
		r.TotalHours.Equal(o.TotalHours) &&
		r.RegularHours.Equal(o.RegularHours) &&
		r.OvertimeHours.Equal(o.OvertimeHours) &&
		r.BaseSalary.Equal(o.BaseSalary) &&
		r.OvertimePay.Equal(o.OvertimePay) &&
		r.HolidayPay.Equal(o.HolidayPay) &&
		r.NightShiftPay.Equal(o.NightShiftPay) &&
		r.TotalAllowances.Equal(o.TotalAllowances) &&
		r.GrossSalary.Equal(o.GrossSalary) &&
		r.TotalDeductions.Equal(o.TotalDeductions)
}

// PayrollDetailLine - itemized payslip entry
type PayrollDetailLine struct {
	ID              string
	PayrollRecordID string
	Category        Category
	Name            string
	Amount          decimal.Decimal
	SortOrder       int
}

// SameLines compares two line sets ignoring ids.
func SameLines(a, b []PayrollDetailLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Category != b[i].Category || a[i].Name != b[i].Name || !a[i].Amount.Equal(b[i].Amount) {
			return false
		}
	}
	return true
}

// DeductionBreakdown - each line already rounded to a whole unit
type DeductionBreakdown struct {
	LaborInsurance        decimal.Decimal
	HealthInsurance       decimal.Decimal
	UnemploymentInsurance decimal.Decimal
	Pension               decimal.Decimal
	IncomeTax             decimal.Decimal
	UnionFee              decimal.Decimal
	LoanDeduction         decimal.Decimal
	OtherDeductions       decimal.Decimal
}

func (d DeductionBreakdown) Total() decimal.Decimal {
	return decimal.Sum(
		d.LaborInsurance,
		d.HealthInsurance,
		d.UnemploymentInsurance,
		d.Pension,
		d.IncomeTax,
		d.UnionFee,
		d.LoanDeduction,
		d.OtherDeductions,
	)
}

// Named lists the deduction lines in payslip order.
func (d DeductionBreakdown) Named() []NamedAmount {
	return []NamedAmount{
		{Name: "勞保費", Amount: d.LaborInsurance},
		{Name: "健保費", Amount: d.HealthInsurance},
		{Name: "就業保險", Amount: d.UnemploymentInsurance},
		{Name: "勞退自提", Amount: d.Pension},
		{Name: "所得稅", Amount: d.IncomeTax},
		{Name: "工會費", Amount: d.UnionFee},
		{Name: "借支扣款", Amount: d.LoanDeduction},
		{Name: "其他扣款", Amount: d.OtherDeductions},
	}
}

type NamedAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Rates - statutory defaults used when a deduction profile has no override
type Rates struct {
	LaborRate         decimal.Decimal
	LaborShare        decimal.Decimal
	HealthRate        decimal.Decimal
	HealthShare       decimal.Decimal
	UnemploymentRate  decimal.Decimal
	UnemploymentShare decimal.Decimal
	PensionRate       decimal.Decimal
	PensionShare      decimal.Decimal
	TaxThreshold      decimal.Decimal
	TaxRate           decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		LaborRate:         decimal.RequireFromString("0.105"),
		LaborShare:        decimal.RequireFromString("0.2"),
		HealthRate:        decimal.RequireFromString("0.0517"),
		HealthShare:       decimal.RequireFromString("0.3"),
		UnemploymentRate:  decimal.RequireFromString("0.01"),
		UnemploymentShare: decimal.RequireFromString("0.2"),
		PensionRate:       decimal.RequireFromString("0.06"),
		PensionShare:      decimal.NewFromInt(1),
		TaxThreshold:      decimal.NewFromInt(40000),
		TaxRate:           decimal.RequireFromString("0.05"),
	}
}

// Payslip - record plus its detail lines
type Payslip struct {
	Record PayrollRecord
	Lines  []PayrollDetailLine
}

// Stats - monthly aggregate across users
type Stats struct {
	PeriodYear      int
	PeriodMonth     int
	Headcount       int
	TotalGross      decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNet        decimal.Decimal
}
