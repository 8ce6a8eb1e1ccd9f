package salary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/google/uuid"
)

type SalaryServiceImpl struct {
	salary.SalaryRepository
	user.UserRepository
	loc *time.Location
	now func() time.Time
}

// ResolveSalary implements salary.SalaryService.
func (s *SalaryServiceImpl) ResolveSalary(ctx context.Context, userID string, asOf time.Time) (salary.SalaryStructure, error) {
	versions, err := s.SalaryRepository.ListStructures(ctx, userID)
	if err != nil {
		return salary.SalaryStructure{}, fmt.Errorf("failed to list salary structures: %w", err)
	}

	resolved, ok := Latest(versions, asOf)
	if !ok {
		slog.Debug("no salary structure in effect, using default", "user_id", userID, "as_of", asOf.Format("2006-01-02"))
		return salary.DefaultStructure(userID), nil
	}
	return resolved, nil
}

// ResolveDeduction implements salary.SalaryService.
func (s *SalaryServiceImpl) ResolveDeduction(ctx context.Context, userID string, asOf time.Time) (salary.DeductionProfile, error) {
	versions, err := s.SalaryRepository.ListDeductionProfiles(ctx, userID)
	if err != nil {
		return salary.DeductionProfile{}, fmt.Errorf("failed to list deduction profiles: %w", err)
	}

	resolved, ok := Latest(versions, asOf)
	if !ok {
		return salary.DefaultDeductionProfile(userID), nil
	}
	return resolved, nil
}

func (s *SalaryServiceImpl) effectiveDate(raw *string) time.Time {
	if raw != nil {
		if d, ok := parseDate(*raw, s.loc); ok {
			return d
		}
	}
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// SetSalary implements salary.SalaryService. Existing versions are never
// modified; the new structure supersedes them from its effective date.
func (s *SalaryServiceImpl) SetSalary(ctx context.Context, req salary.SetSalaryRequest) (salary.SalaryStructure, error) {
	if err := req.Validate(); err != nil {
		return salary.SalaryStructure{}, err
	}

	if _, err := s.UserRepository.GetByID(ctx, req.UserID); err != nil {
		return salary.SalaryStructure{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return salary.SalaryStructure{}, fmt.Errorf("failed to generate salary structure id: %w", err)
	}

	structure := salary.SalaryStructure{
		ID:            id.String(),
		UserID:        req.UserID,
		BaseSalary:    req.BaseSalary,
		HourlyRate:    req.HourlyRate,
		OvertimeRate:  salary.DefaultOvertimeRate,
		HolidayRate:   salary.DefaultHolidayRate,
		Allowances:    req.Allowances,
		EffectiveDate: s.effectiveDate(req.EffectiveDate),
		Status:        salary.StatusActive,
	}
	if req.OvertimeRate != nil {
		structure.OvertimeRate = *req.OvertimeRate
	}
	if req.HolidayRate != nil {
		structure.HolidayRate = *req.HolidayRate
	}
	if req.CreatedBy != "" {
		createdBy := req.CreatedBy
		structure.CreatedBy = &createdBy
	}

	created, err := s.SalaryRepository.CreateStructure(ctx, structure)
	if err != nil {
		return salary.SalaryStructure{}, fmt.Errorf("failed to create salary structure: %w", err)
	}

	slog.Info("salary structure created",
		"user_id", created.UserID,
		"effective_date", created.EffectiveDate.Format("2006-01-02"),
		"created_by", req.CreatedBy,
	)
	return created, nil
}

// SetDeductionProfile implements salary.SalaryService.
func (s *SalaryServiceImpl) SetDeductionProfile(ctx context.Context, req salary.SetDeductionProfileRequest) (salary.DeductionProfile, error) {
	if err := req.Validate(); err != nil {
		return salary.DeductionProfile{}, err
	}

	if _, err := s.UserRepository.GetByID(ctx, req.UserID); err != nil {
		return salary.DeductionProfile{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return salary.DeductionProfile{}, fmt.Errorf("failed to generate deduction profile id: %w", err)
	}

	profile := salary.DeductionProfile{
		ID:                    id.String(),
		UserID:                req.UserID,
		LaborInsurance:        req.LaborInsurance,
		HealthInsurance:       req.HealthInsurance,
		UnemploymentInsurance: req.UnemploymentInsurance,
		IncomeTax:             req.IncomeTax,
		Pension:               req.Pension,
		UnionFee:              req.UnionFee,
		LoanDeduction:         req.LoanDeduction,
		OtherDeductions:       req.OtherDeductions,
		EffectiveDate:         s.effectiveDate(req.EffectiveDate),
		Status:                salary.StatusActive,
	}

	created, err := s.SalaryRepository.CreateDeductionProfile(ctx, profile)
	if err != nil {
		return salary.DeductionProfile{}, fmt.Errorf("failed to create deduction profile: %w", err)
	}
	return created, nil
}

func NewSalaryService(salaryRepo salary.SalaryRepository, userRepo user.UserRepository, loc *time.Location) salary.SalaryService {
	if loc == nil {
		loc = time.UTC
	}
	return &SalaryServiceImpl{
		SalaryRepository: salaryRepo,
		UserRepository:   userRepo,
		loc:              loc,
		now:              time.Now,
	}
}
