package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionClockIn  Action = "clock_in"
	ActionClockOut Action = "clock_out"
)

func (a Action) IsValid() bool {
	return a == ActionClockIn || a == ActionClockOut
}

type Status string

const (
	StatusNormal Status = "normal"
	StatusLate   Status = "late"
	StatusEarly  Status = "early"
)

// Event is one append-only clock action. Date is the local calendar date
// the event belongs to.
type Event struct {
	ID        string
	UserID    string
	Date      time.Time
	Action    Action
	Timestamp time.Time
	Location  *string
	Status    Status
	CreatedAt time.Time
}

// DayHours is the worked time of a single date, unrounded.
type DayHours struct {
	Hours    decimal.Decimal `json:"hours"`
	Regular  decimal.Decimal `json:"regular"`
	Overtime decimal.Decimal `json:"overtime"`
}

// WorkHourSummary is derived from events on every request and never stored.
type WorkHourSummary struct {
	WorkDays      int                 `json:"work_days"`
	TotalHours    decimal.Decimal     `json:"total_hours"`
	RegularHours  decimal.Decimal     `json:"regular_hours"`
	OvertimeHours decimal.Decimal     `json:"overtime_hours"`
	Daily         map[string]DayHours `json:"daily"`
}

// Policy holds the working-day thresholds used to derive event status.
type Policy struct {
	Location      *time.Location
	WorkStart     time.Duration // offset from local midnight
	WorkEnd       time.Duration
	LateGrace     time.Duration
	StandardHours decimal.Decimal
}

func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		Location:      loc,
		WorkStart:     9 * time.Hour,
		WorkEnd:       18 * time.Hour,
		LateGrace:     15 * time.Minute,
		StandardHours: decimal.NewFromInt(8),
	}
}

// StatusFor derives the status of an action taken at ts.
func (p Policy) StatusFor(action Action, ts time.Time) Status {
	local := ts.In(p.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.Location)
	offset := local.Sub(midnight)

	switch action {
	case ActionClockIn:
		if offset > p.WorkStart+p.LateGrace {
			return StatusLate
		}
	case ActionClockOut:
		if offset < p.WorkEnd {
			return StatusEarly
		}
	}
	return StatusNormal
}

// LocalDate truncates ts to its calendar date in the policy location.
func (p Policy) LocalDate(ts time.Time) time.Time {
	local := ts.In(p.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.Location)
}

// Period is the half-open range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func MonthPeriod(year, month int, loc *time.Location) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// LastDay is the final calendar date inside the period.
func (p Period) LastDay() time.Time {
	return p.End.AddDate(0, 0, -1)
}
