package salary

import (
	"strings"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type SetSalaryRequest struct {
	UserID        string           `json:"-"`
	BaseSalary    decimal.Decimal  `json:"base_salary"`
	HourlyRate    decimal.Decimal  `json:"hourly_rate"`
	OvertimeRate  *decimal.Decimal `json:"overtime_rate,omitempty"`
	HolidayRate   *decimal.Decimal `json:"holiday_rate,omitempty"`
	Allowances    Allowances       `json:"allowances"`
	EffectiveDate *string          `json:"effective_date,omitempty"` // YYYY-MM-DD, defaults to today
	CreatedBy     string           `json:"-"`
}

func (r *SetSalaryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	if r.BaseSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be non-negative"})
	}
	if r.HourlyRate.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "hourly_rate", Message: "must be non-negative"})
	}
	if r.OvertimeRate != nil && !r.OvertimeRate.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "overtime_rate", Message: "must be positive"})
	}
	if r.HolidayRate != nil && !r.HolidayRate.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "holiday_rate", Message: "must be positive"})
	}
	for _, a := range r.Allowances.Named() {
		if a.Amount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: "allowances", Message: "allowances must be non-negative"})
			break
		}
	}
	if r.EffectiveDate != nil {
		if _, ok := validator.IsValidDate(*r.EffectiveDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "effective_date", Message: "effective_date must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SetDeductionProfileRequest struct {
	UserID                string           `json:"-"`
	LaborInsurance        *decimal.Decimal `json:"labor_insurance,omitempty"`
	HealthInsurance       *decimal.Decimal `json:"health_insurance,omitempty"`
	UnemploymentInsurance *decimal.Decimal `json:"unemployment_insurance,omitempty"`
	IncomeTax             *decimal.Decimal `json:"income_tax,omitempty"`
	Pension               *decimal.Decimal `json:"pension,omitempty"`
	UnionFee              decimal.Decimal  `json:"union_fee"`
	LoanDeduction         decimal.Decimal  `json:"loan_deduction"`
	OtherDeductions       decimal.Decimal  `json:"other_deductions"`
	EffectiveDate         *string          `json:"effective_date,omitempty"`
}

func (r *SetDeductionProfileRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	optional := map[string]*decimal.Decimal{
		"labor_insurance":        r.LaborInsurance,
		"health_insurance":       r.HealthInsurance,
		"unemployment_insurance": r.UnemploymentInsurance,
		"income_tax":             r.IncomeTax,
		"pension":                r.Pension,
	}
	for field, v := range optional {
		if v != nil && v.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
		}
	}
	if r.UnionFee.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "union_fee", Message: "must be non-negative"})
	}
	if r.LoanDeduction.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "loan_deduction", Message: "must be non-negative"})
	}
	if r.OtherDeductions.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "other_deductions", Message: "must be non-negative"})
	}
	if r.EffectiveDate != nil {
		if _, ok := validator.IsValidDate(*r.EffectiveDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "effective_date", Message: "effective_date must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseAmount parses a non-negative amount typed by a user. Thousands
// separators are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// ParseAllowances reads "position,transport,meal,housing[,skill[,other]]".
// Full-width commas are accepted.
func ParseAllowances(s string) (Allowances, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "，", ",")
	parts := strings.Split(s, ",")
	if len(parts) < 4 || len(parts) > 6 {
		return Allowances{}, ErrInvalidAllowanceList
	}

	values := make([]decimal.Decimal, 6)
	for i := range values {
		values[i] = decimal.Zero
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		d, err := decimal.NewFromString(p)
		if err != nil {
			return Allowances{}, ErrInvalidAllowanceList
		}
		if d.IsNegative() {
			return Allowances{}, ErrNegativeAmount
		}
		values[i] = d
	}

	return Allowances{
		Position:  values[0],
		Transport: values[1],
		Meal:      values[2],
		Housing:   values[3],
		Skill:     values[4],
		Other:     values[5],
	}, nil
}

type SalaryStructureResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	OvertimeRate  decimal.Decimal `json:"overtime_rate"`
	HolidayRate   decimal.Decimal `json:"holiday_rate"`
	Allowances    Allowances      `json:"allowances"`
	EffectiveDate string          `json:"effective_date"`
	Status        Status          `json:"status"`
}

func NewSalaryStructureResponse(s SalaryStructure) SalaryStructureResponse {
	return SalaryStructureResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		BaseSalary:    s.BaseSalary,
		HourlyRate:    s.HourlyRate,
		OvertimeRate:  s.OvertimeRate,
		HolidayRate:   s.HolidayRate,
		Allowances:    s.Allowances,
		EffectiveDate: s.EffectiveDate.Format("2006-01-02"),
		Status:        s.Status,
	}
}

type DeductionProfileResponse struct {
	ID                    string           `json:"id"`
	UserID                string           `json:"user_id"`
	LaborInsurance        *decimal.Decimal `json:"labor_insurance"`
	HealthInsurance       *decimal.Decimal `json:"health_insurance"`
	UnemploymentInsurance *decimal.Decimal `json:"unemployment_insurance"`
	IncomeTax             *decimal.Decimal `json:"income_tax"`
	Pension               *decimal.Decimal `json:"pension"`
	UnionFee              decimal.Decimal  `json:"union_fee"`
	LoanDeduction         decimal.Decimal  `json:"loan_deduction"`
	OtherDeductions       decimal.Decimal  `json:"other_deductions"`
	EffectiveDate         string           `json:"effective_date"`
}

func NewDeductionProfileResponse(p DeductionProfile) DeductionProfileResponse {
	return DeductionProfileResponse{
		ID:                    p.ID,
		UserID:                p.UserID,
		LaborInsurance:        p.LaborInsurance,
		HealthInsurance:       p.HealthInsurance,
		UnemploymentInsurance: p.UnemploymentInsurance,
		IncomeTax:             p.IncomeTax,
		Pension:               p.Pension,
		UnionFee:              p.UnionFee,
		LoanDeduction:         p.LoanDeduction,
		OtherDeductions:       p.OtherDeductions,
		EffectiveDate:         p.EffectiveDate.Format("2006-01-02"),
	}
}
