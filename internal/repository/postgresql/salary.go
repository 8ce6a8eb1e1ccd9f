package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type salaryStructureRow struct {
	ID                 string          `db:"id"`
	UserID             string          `db:"user_id"`
	BaseSalary         decimal.Decimal `db:"base_salary"`
	HourlyRate         decimal.Decimal `db:"hourly_rate"`
	OvertimeRate       decimal.Decimal `db:"overtime_rate"`
	HolidayRate        decimal.Decimal `db:"holiday_rate"`
	PositionAllowance  decimal.Decimal `db:"position_allowance"`
	TransportAllowance decimal.Decimal `db:"transport_allowance"`
	MealAllowance      decimal.Decimal `db:"meal_allowance"`
	HousingAllowance   decimal.Decimal `db:"housing_allowance"`
	SkillAllowance     decimal.Decimal `db:"skill_allowance"`
	OtherAllowance     decimal.Decimal `db:"other_allowance"`
	EffectiveDate      time.Time       `db:"effective_date"`
	EndDate            *time.Time      `db:"end_date"`
	Status             string          `db:"status"`
	CreatedBy          *string         `db:"created_by"`
	CreatedAt          time.Time       `db:"created_at"`
}

func (r salaryStructureRow) toEntity() salary.SalaryStructure {
	return salary.SalaryStructure{
		ID:           r.ID,
		UserID:       r.UserID,
		BaseSalary:   r.BaseSalary,
		HourlyRate:   r.HourlyRate,
		OvertimeRate: r.OvertimeRate,
		HolidayRate:  r.HolidayRate,
		Allowances: salary.Allowances{
			Position:  r.PositionAllowance,
			Transport: r.TransportAllowance,
			Meal:      r.MealAllowance,
			Housing:   r.HousingAllowance,
			Skill:     r.SkillAllowance,
			Other:     r.OtherAllowance,
		},
		EffectiveDate: r.EffectiveDate,
		EndDate:       r.EndDate,
		Status:        salary.Status(r.Status),
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}

const salaryStructureColumns = `
	id, user_id, base_salary, hourly_rate, overtime_rate, holiday_rate,
	position_allowance, transport_allowance, meal_allowance, housing_allowance,
	skill_allowance, other_allowance, effective_date, end_date, status, created_by, created_at`

type deductionProfileRow struct {
	ID                    string              `db:"id"`
	UserID                string              `db:"user_id"`
	LaborInsurance        decimal.NullDecimal `db:"labor_insurance"`
	HealthInsurance       decimal.NullDecimal `db:"health_insurance"`
	UnemploymentInsurance decimal.NullDecimal `db:"unemployment_insurance"`
	IncomeTax             decimal.NullDecimal `db:"income_tax"`
	Pension               decimal.NullDecimal `db:"pension"`
	UnionFee              decimal.Decimal     `db:"union_fee"`
	LoanDeduction         decimal.Decimal     `db:"loan_deduction"`
	OtherDeductions       decimal.Decimal     `db:"other_deductions"`
	EffectiveDate         time.Time           `db:"effective_date"`
	Status                string              `db:"status"`
	CreatedAt             time.Time           `db:"created_at"`
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}

func toNull(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*p)
}

func (r deductionProfileRow) toEntity() salary.DeductionProfile {
	return salary.DeductionProfile{
		ID:                    r.ID,
		UserID:                r.UserID,
		LaborInsurance:        fromNull(r.LaborInsurance),
		HealthInsurance:       fromNull(r.HealthInsurance),
		UnemploymentInsurance: fromNull(r.UnemploymentInsurance),
		IncomeTax:             fromNull(r.IncomeTax),
		Pension:               fromNull(r.Pension),
		UnionFee:              r.UnionFee,
		LoanDeduction:         r.LoanDeduction,
		OtherDeductions:       r.OtherDeductions,
		EffectiveDate:         r.EffectiveDate,
		Status:                salary.Status(r.Status),
		CreatedAt:             r.CreatedAt,
	}
}

const deductionProfileColumns = `
	id, user_id, labor_insurance, health_insurance, unemployment_insurance,
	income_tax, pension, union_fee, loan_deduction, other_deductions,
	effective_date, status, created_at`

type salaryRepository struct {
	db *database.DB
}

func NewSalaryRepository(db *database.DB) salary.SalaryRepository {
	return &salaryRepository{db: db}
}

func (r *salaryRepository) CreateStructure(ctx context.Context, s salary.SalaryStructure) (salary.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_structures (
			id, user_id, base_salary, hourly_rate, overtime_rate, holiday_rate,
			position_allowance, transport_allowance, meal_allowance, housing_allowance,
			skill_allowance, other_allowance, effective_date, end_date, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + salaryStructureColumns

	rows, err := q.Query(ctx, query,
		s.ID, s.UserID, s.BaseSalary, s.HourlyRate, s.OvertimeRate, s.HolidayRate,
		s.Allowances.Position, s.Allowances.Transport, s.Allowances.Meal, s.Allowances.Housing,
		s.Allowances.Skill, s.Allowances.Other, s.EffectiveDate, s.EndDate, string(s.Status), s.CreatedBy,
	)
	if err != nil {
		return salary.SalaryStructure{}, fmt.Errorf("failed to insert salary structure: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[salaryStructureRow])
	if err != nil {
		return salary.SalaryStructure{}, fmt.Errorf("failed to insert salary structure: %w", err)
	}
	return row.toEntity(), nil
}

func (r *salaryRepository) ListStructures(ctx context.Context, userID string) ([]salary.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+salaryStructureColumns+` FROM salary_structures WHERE user_id = $1 ORDER BY effective_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[salaryStructureRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan salary structures: %w", err)
	}

	result := make([]salary.SalaryStructure, 0, len(collected))
	for _, row := range collected {
		result = append(result, row.toEntity())
	}
	return result, nil
}

func (r *salaryRepository) CreateDeductionProfile(ctx context.Context, d salary.DeductionProfile) (salary.DeductionProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO deduction_profiles (
			id, user_id, labor_insurance, health_insurance, unemployment_insurance,
			income_tax, pension, union_fee, loan_deduction, other_deductions,
			effective_date, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + deductionProfileColumns

	rows, err := q.Query(ctx, query,
		d.ID, d.UserID, toNull(d.LaborInsurance), toNull(d.HealthInsurance), toNull(d.UnemploymentInsurance),
		toNull(d.IncomeTax), toNull(d.Pension), d.UnionFee, d.LoanDeduction, d.OtherDeductions,
		d.EffectiveDate, string(d.Status),
	)
	if err != nil {
		return salary.DeductionProfile{}, fmt.Errorf("failed to insert deduction profile: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[deductionProfileRow])
	if err != nil {
		return salary.DeductionProfile{}, fmt.Errorf("failed to insert deduction profile: %w", err)
	}
	return row.toEntity(), nil
}

func (r *salaryRepository) ListDeductionProfiles(ctx context.Context, userID string) ([]salary.DeductionProfile, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+deductionProfileColumns+` FROM deduction_profiles WHERE user_id = $1 ORDER BY effective_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deduction profiles: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[deductionProfileRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan deduction profiles: %w", err)
	}

	result := make([]salary.DeductionProfile, 0, len(collected))
	for _, row := range collected {
		result = append(result, row.toEntity())
	}
	return result, nil
}
