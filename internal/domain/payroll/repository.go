package payroll

import "context"

// PayrollRepository defines data access methods for payroll records and
// their detail lines.
type PayrollRepository interface {
	// LockPeriod serializes writers of one (user, year, month) key for the
	// rest of the surrounding transaction.
	LockPeriod(ctx context.Context, userID string, year, month int) error

	GetByPeriod(ctx context.Context, userID string, year, month int) (PayrollRecord, error)

	// Upsert inserts or replaces the record keyed by (user, year, month) and
	// returns it with its persistent ID. Status of an existing row is kept.
	Upsert(ctx context.Context, record PayrollRecord) (PayrollRecord, error)

	// ReplaceDetails deletes every line of the record and inserts lines.
	ReplaceDetails(ctx context.Context, recordID string, lines []PayrollDetailLine) error
	ListDetails(ctx context.Context, recordID string) ([]PayrollDetailLine, error)

	ListByUser(ctx context.Context, userID string, limit int) ([]PayrollRecord, error)
	ListByPeriod(ctx context.Context, year, month int) ([]PayrollRecord, error)
}
