package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LeaveType entity
type LeaveType struct {
	ID             string
	Code           string
	Name           string
	IsPaid         bool
	MaxDaysPerYear int
	IsActive       bool
	CreatedAt      time.Time
}

// ApplicationStatus enum
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusCancelled ApplicationStatus = "cancelled"
)

// Application is created pending and leaves that state exactly once.
type Application struct {
	ID           string
	UserID       string
	LeaveTypeID  string
	StartDate    time.Time
	EndDate      time.Time
	StartTime    *string // HH:MM, half-day only
	EndTime      *string
	TotalHours   decimal.Decimal
	Reason       string
	Status       ApplicationStatus
	ApprovedBy   *string
	ApprovedAt   *time.Time
	RejectReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined fields
	LeaveTypeName *string
	UserName      *string
}

func (a Application) IsPending() bool {
	return a.Status == StatusPending
}

// HalfDay selects one of the two fixed half-day windows.
type HalfDay string

const (
	HalfDayNone      HalfDay = ""
	HalfDayMorning   HalfDay = "morning"
	HalfDayAfternoon HalfDay = "afternoon"
)

// Window is a half-open clock range [Start, End) measured from midnight.
type Window struct {
	Start time.Duration
	End   time.Duration
}

var (
	MorningWindow   = Window{Start: 9 * time.Hour, End: 13 * time.Hour}
	AfternoonWindow = Window{Start: 13 * time.Hour, End: 17 * time.Hour}
)

// FullDayWindow covers a whole date and overlaps every other window.
var FullDayWindow = Window{Start: 0, End: 24 * time.Hour}

// ClockWindow turns an application's optional HH:MM pair into a window.
// Without both clock values the leave takes the full day.
func ClockWindow(startTime, endTime *string) Window {
	if startTime == nil || endTime == nil {
		return FullDayWindow
	}
	from, err1 := time.Parse("15:04", *startTime)
	to, err2 := time.Parse("15:04", *endTime)
	if err1 != nil || err2 != nil {
		return FullDayWindow
	}
	return Window{
		Start: time.Duration(from.Hour())*time.Hour + time.Duration(from.Minute())*time.Minute,
		End:   time.Duration(to.Hour())*time.Hour + time.Duration(to.Minute())*time.Minute,
	}
}

func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

func (w Window) Hours() decimal.Decimal {
	return decimal.NewFromFloat((w.End - w.Start).Hours())
}

func (w Window) StartClock() string { return formatClock(w.Start) }

func (w Window) EndClock() string { return formatClock(w.End) }

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func (h HalfDay) Window() (Window, bool) {
	switch h {
	case HalfDayMorning:
		return MorningWindow, true
	case HalfDayAfternoon:
		return AfternoonWindow, true
	}
	return Window{}, false
}

// Span is a parsed leave date range.
type Span struct {
	StartDate  time.Time
	EndDate    time.Time
	HalfDay    HalfDay
	TotalHours decimal.Decimal
}

// Days counts calendar dates covered by the span, inclusive.
func (s Span) Days() int {
	return int(s.EndDate.Sub(s.StartDate).Hours()/24) + 1
}

// Times returns the clock window of a half-day span.
func (s Span) Times() (start, end *string) {
	w, ok := s.HalfDay.Window()
	if !ok {
		return nil, nil
	}
	st, en := w.StartClock(), w.EndClock()
	return &st, &en
}
