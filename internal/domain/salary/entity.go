package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var (
	// MinimumHourlyWage is the statutory hourly rate billed when no
	// structure exists.
	MinimumHourlyWage   = decimal.NewFromInt(183)
	DefaultOvertimeRate = decimal.RequireFromString("1.33")
	DefaultHolidayRate  = decimal.NewFromInt(2)
)

type Allowances struct {
	Position  decimal.Decimal `json:"position"`
	Transport decimal.Decimal `json:"transport"`
	Meal      decimal.Decimal `json:"meal"`
	Housing   decimal.Decimal `json:"housing"`
	Skill     decimal.Decimal `json:"skill"`
	Other     decimal.Decimal `json:"other"`
}

func (a Allowances) Total() decimal.Decimal {
	return decimal.Sum(a.Position, a.Transport, a.Meal, a.Housing, a.Skill, a.Other)
}

// Named lists each allowance with its display name, in a fixed order.
func (a Allowances) Named() []NamedAmount {
	return []NamedAmount{
		{Name: "職務加給", Amount: a.Position},
		{Name: "交通津貼", Amount: a.Transport},
		{Name: "伙食津貼", Amount: a.Meal},
		{Name: "住房津貼", Amount: a.Housing},
		{Name: "技能津貼", Amount: a.Skill},
		{Name: "其他津貼", Amount: a.Other},
	}
}

type NamedAmount struct {
	Name   string
	Amount decimal.Decimal
}

// SalaryStructure is one effective-dated version. A new setting inserts a
// new version instead of updating an old one.
type SalaryStructure struct {
	ID            string
	UserID        string
	BaseSalary    decimal.Decimal
	HourlyRate    decimal.Decimal
	OvertimeRate  decimal.Decimal
	HolidayRate   decimal.Decimal
	Allowances    Allowances
	EffectiveDate time.Time
	EndDate       *time.Time
	Status        Status
	CreatedBy     *string
	CreatedAt     time.Time
}

// IsHourly reports whether pay is billed from worked hours.
func (s SalaryStructure) IsHourly() bool {
	return !s.BaseSalary.IsPositive()
}

// DefaultStructure is used when a user has no applicable version.
func DefaultStructure(userID string) SalaryStructure {
	return SalaryStructure{
		UserID:       userID,
		BaseSalary:   decimal.Zero,
		HourlyRate:   MinimumHourlyWage,
		OvertimeRate: DefaultOvertimeRate,
		HolidayRate:  DefaultHolidayRate,
		Status:       StatusActive,
	}
}

// DeductionProfile carries per-user deduction overrides. For the insurance,
// pension and income tax fields a nil or zero value means the computed
// default applies. UnionFee, LoanDeduction and OtherDeductions are taken
// as-is.
type DeductionProfile struct {
	ID                    string
	UserID                string
	LaborInsurance        *decimal.Decimal
	HealthInsurance       *decimal.Decimal
	UnemploymentInsurance *decimal.Decimal
	IncomeTax             *decimal.Decimal
	Pension               *decimal.Decimal
	UnionFee              decimal.Decimal
	LoanDeduction         decimal.Decimal
	OtherDeductions       decimal.Decimal
	EffectiveDate         time.Time
	Status                Status
	CreatedAt             time.Time
}

func DefaultDeductionProfile(userID string) DeductionProfile {
	return DeductionProfile{UserID: userID, Status: StatusActive}
}

// Versioned is implemented by effective-dated configuration records.
type Versioned interface {
	Effective() time.Time
	Ended() *time.Time
	IsActive() bool
	Created() time.Time
}

func (s SalaryStructure) Effective() time.Time { return s.EffectiveDate }
func (s SalaryStructure) Ended() *time.Time { return s.EndDate }
func (s SalaryStructure) IsActive() bool { return s.Status == StatusActive }
func (s SalaryStructure) Created() time.Time { return s.CreatedAt }

func (d DeductionProfile) Effective() time.Time { return d.EffectiveDate }
func (d DeductionProfile) Ended() *time.Time { return nil }
func (d DeductionProfile) IsActive() bool { return d.Status == StatusActive }
func (d DeductionProfile) Created() time.Time { return d.CreatedAt }
