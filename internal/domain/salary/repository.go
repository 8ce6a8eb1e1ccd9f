package salary

import (
	"context"
)

type SalaryRepository interface {
	CreateStructure(ctx context.Context, s SalaryStructure) (SalaryStructure, error)
	ListStructures(ctx context.Context, userID string) ([]SalaryStructure, error)
	CreateDeductionProfile(ctx context.Context, d DeductionProfile) (DeductionProfile, error)
	ListDeductionProfiles(ctx context.Context, userID string) ([]DeductionProfile, error)
}
