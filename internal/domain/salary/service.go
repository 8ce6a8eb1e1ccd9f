package salary

import (
	"context"
	"time"
)

type SalaryService interface {
	// ResolveSalary returns the authoritative structure as of asOf, or the
	// default structure when none applies.
	ResolveSalary(ctx context.Context, userID string, asOf time.Time) (SalaryStructure, error)
	ResolveDeduction(ctx context.Context, userID string, asOf time.Time) (DeductionProfile, error)
	SetSalary(ctx context.Context, req SetSalaryRequest) (SalaryStructure, error)
	SetDeductionProfile(ctx context.Context, req SetDeductionProfileRequest) (DeductionProfile, error)
}
