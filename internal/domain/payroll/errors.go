package payroll

import "errors"

var (
	ErrPayrollRecordNotFound    = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyPaid = errors.New("payroll record already paid, cannot modify")
	ErrInvalidPeriod            = errors.New("invalid payroll period")
	ErrPayrollBusy              = errors.New("payroll for this period is being recalculated")
)
