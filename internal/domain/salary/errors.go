package salary

import "errors"

var (
	ErrSalaryStructureNotFound  = errors.New("salary structure not found")
	ErrDeductionProfileNotFound = errors.New("deduction profile not found")
	ErrNegativeAmount           = errors.New("amount must not be negative")
	ErrInvalidAllowanceList     = errors.New("allowances must list position, transport, meal and housing")
	ErrInvalidEffectiveDate     = errors.New("invalid effective date")
)
