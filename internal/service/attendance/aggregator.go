package attendance

import (
	"sort"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

const dateKeyLayout = "2006-01-02"

var secondsPerHour = decimal.NewFromInt(3600)

// Aggregate pairs each clock_in with the next clock_out on the same date and
// splits every day into regular and overtime hours. A repeated clock_in
// replaces the open one; a clock_out with nothing open is ignored. Daily
// values stay unrounded, the summary totals are rounded to 2 places.
func Aggregate(events []attendance.Event, standardHours decimal.Decimal) attendance.WorkHourSummary {
	byDate := make(map[string][]attendance.Event)
	for _, e := range events {
		key := e.Date.Format(dateKeyLayout)
		byDate[key] = append(byDate[key], e)
	}

	daily := make(map[string]attendance.DayHours)
	for date, dayEvents := range byDate {
		sort.SliceStable(dayEvents, func(i, j int) bool {
			return dayEvents[i].Timestamp.Before(dayEvents[j].Timestamp)
		})

		var (
			open   *attendance.Event
			hours  decimal.Decimal
			paired bool
		)
		for i := range dayEvents {
			e := &dayEvents[i]
			switch e.Action {
			case attendance.ActionClockIn:
				open = e
			case attendance.ActionClockOut:
				if open == nil {
					continue
				}
				seconds := decimal.NewFromFloat(e.Timestamp.Sub(open.Timestamp).Seconds())
				hours = hours.Add(seconds.Div(secondsPerHour))
				paired = true
				open = nil
			}
		}
		if !paired {
			continue
		}

		day := attendance.DayHours{Hours: hours, Regular: hours, Overtime: decimal.Zero}
		if hours.GreaterThan(standardHours) {
			day.Regular = standardHours
			day.Overtime = hours.Sub(standardHours)
		}
		daily[date] = day
	}

	summary := attendance.WorkHourSummary{
		WorkDays:      len(daily),
		TotalHours:    decimal.Zero,
		RegularHours:  decimal.Zero,
		OvertimeHours: decimal.Zero,
		Daily:         daily,
	}
	for _, d := range daily {
		summary.TotalHours = summary.TotalHours.Add(d.Hours)
		summary.RegularHours = summary.RegularHours.Add(d.Regular)
		summary.OvertimeHours = summary.OvertimeHours.Add(d.Overtime)
	}
	summary.TotalHours = summary.TotalHours.Round(2)
	summary.RegularHours = summary.RegularHours.Round(2)
	summary.OvertimeHours = summary.OvertimeHours.Round(2)

	return summary
}
