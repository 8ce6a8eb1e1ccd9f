package payroll

import (
	"strconv"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inputs is everything one payroll computation depends on.
type Inputs struct {
	UserID    string
	Year      int
	Month     int
	Structure salary.SalaryStructure
	Profile   salary.DeductionProfile
	Hours     attendance.WorkHourSummary
}

// Assemble computes the record and its detail lines. It is pure: the same
// inputs always produce the same figures and lines. IDs are left empty.
func Assemble(in Inputs, rates payroll.Rates) (payroll.PayrollRecord, []payroll.PayrollDetailLine) {
	s := in.Structure

	base := s.BaseSalary
	if s.IsHourly() {
		base = in.Hours.RegularHours.Mul(s.HourlyRate)
	}
	base = base.Round(0)
	overtimePay := in.Hours.OvertimeHours.Mul(s.HourlyRate).Mul(s.OvertimeRate).Round(0)
	holidayPay := decimal.Zero
	nightShiftPay := decimal.Zero
	allowances := s.Allowances.Total()

	gross := decimal.Sum(base, overtimePay, holidayPay, nightShiftPay, allowances)
	deductions := CalculateDeductions(gross, in.Profile, rates)

	record := payroll.PayrollRecord{
		UserID:          in.UserID,
		PeriodYear:      in.Year,
		PeriodMonth:     in.Month,
		WorkDays:        in.Hours.WorkDays,
		TotalHours:      in.Hours.TotalHours,
		RegularHours:    in.Hours.RegularHours,
		OvertimeHours:   in.Hours.OvertimeHours,
		BaseSalary:      base,
		OvertimePay:     overtimePay,
		HolidayPay:      holidayPay,
		NightShiftPay:   nightShiftPay,
		TotalAllowances: allowances,
		GrossSalary:     gross,
		TotalDeductions: deductions.Total(),
		Status:          payroll.PayrollStatusDraft,
	}

	var lines []payroll.PayrollDetailLine
	add := func(category payroll.Category, name string, amount decimal.Decimal) {
		lines = append(lines, payroll.PayrollDetailLine{
			Category:  category,
			Name:      name,
			Amount:    amount,
			SortOrder: len(lines) + 1,
		})
	}

	add(payroll.CategorySalary, "基本薪資", base)
	if overtimePay.IsPositive() {
		add(payroll.CategorySalary, "加班費", overtimePay)
	}
	for _, a := range s.Allowances.Named() {
		if a.Amount.IsPositive() {
			add(payroll.CategoryAllowance, a.Name, a.Amount)
		}
	}
	for _, d := range deductions.Named() {
		if d.Amount.IsPositive() {
			add(payroll.CategoryDeduction, d.Name, d.Amount)
		}
	}

	return record, lines
}

// lineNamespace scopes detail line ids derived from record id and position.
var lineNamespace = uuid.MustParse("6f1c2b7e-3d4a-5b6c-8d9e-0a1b2c3d4e5f")

// bindLines attaches lines to a record with ids that only depend on the
// record id and line position.
func bindLines(recordID string, lines []payroll.PayrollDetailLine) []payroll.PayrollDetailLine {
	bound := make([]payroll.PayrollDetailLine, len(lines))
	for i, l := range lines {
		l.PayrollRecordID = recordID
		l.ID = uuid.NewSHA1(lineNamespace, []byte(recordID+":"+strconv.Itoa(l.SortOrder))).String()
		bound[i] = l
	}
	return bound
}
