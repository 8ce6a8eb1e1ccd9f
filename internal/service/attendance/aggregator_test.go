package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 7, day, hour, minute, 0, 0, taipei)
}

func ev(action attendance.Action, ts time.Time) attendance.Event {
	return attendance.Event{
		Date:      time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, taipei),
		Action:    action,
		Timestamp: ts,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregate_SinglePair(t *testing.T) {
	events := []attendance.Event{
		ev(attendance.ActionClockIn, at(1, 9, 0)),
		ev(attendance.ActionClockOut, at(1, 17, 30)),
	}

	s := Aggregate(events, dec("8"))

	assert.Equal(t, 1, s.WorkDays)
	assert.True(t, s.TotalHours.Equal(dec("8.5")), s.TotalHours.String())
	assert.True(t, s.RegularHours.Equal(dec("8")))
	assert.True(t, s.OvertimeHours.Equal(dec("0.5")))
}

func TestAggregate_TrailingClockInContributesNothing(t *testing.T) {
	events := []attendance.Event{
		ev(attendance.ActionClockIn, at(2, 9, 0)),
		ev(attendance.ActionClockOut, at(2, 12, 0)),
		ev(attendance.ActionClockIn, at(2, 13, 0)),
		ev(attendance.ActionClockIn, at(3, 9, 0)),
	}

	s := Aggregate(events, dec("8"))

	assert.Equal(t, 1, s.WorkDays)
	assert.True(t, s.TotalHours.Equal(dec("3")))
	_, ok := s.Daily["2024-07-03"]
	assert.False(t, ok)
}

func TestAggregate_OrphanClockOutIgnored(t *testing.T) {
	events := []attendance.Event{
		ev(attendance.ActionClockOut, at(4, 8, 0)),
		ev(attendance.ActionClockIn, at(4, 9, 0)),
		ev(attendance.ActionClockOut, at(4, 10, 0)),
	}

	s := Aggregate(events, dec("8"))

	assert.True(t, s.TotalHours.Equal(dec("1")))
}

func TestAggregate_UnorderedInputIsSortedPerDay(t *testing.T) {
	events := []attendance.Event{
		ev(attendance.ActionClockOut, at(5, 18, 0)),
		ev(attendance.ActionClockIn, at(5, 9, 0)),
	}

	s := Aggregate(events, dec("8"))

	assert.True(t, s.TotalHours.Equal(dec("9")))
	assert.True(t, s.OvertimeHours.Equal(dec("1")))
}

func TestAggregate_DaySplitHolds(t *testing.T) {
	events := []attendance.Event{
		ev(attendance.ActionClockIn, at(8, 8, 0)),
		ev(attendance.ActionClockOut, at(8, 19, 20)),
		ev(attendance.ActionClockIn, at(9, 9, 0)),
		ev(attendance.ActionClockOut, at(9, 15, 10)),
		ev(attendance.ActionClockIn, at(10, 9, 0)),
		ev(attendance.ActionClockOut, at(10, 12, 0)),
		ev(attendance.ActionClockIn, at(10, 13, 0)),
		ev(attendance.ActionClockOut, at(10, 20, 0)),
	}
	standard := dec("8")

	s := Aggregate(events, standard)

	assert.Equal(t, 3, s.WorkDays)
	for date, d := range s.Daily {
		assert.True(t, d.Regular.Add(d.Overtime).Equal(d.Hours), date)
		expected := decimal.Max(decimal.Zero, d.Hours.Sub(standard))
		assert.True(t, d.Overtime.Equal(expected), date)
	}
	assert.True(t, s.Daily["2024-07-10"].Hours.Equal(dec("10")))
}

func TestAggregate_RoundsOnlyAtSummary(t *testing.T) {
	// three days of 20 minutes each: 1/3h per day, exactly 1h in total
	var events []attendance.Event
	for day := 11; day <= 13; day++ {
		events = append(events,
			ev(attendance.ActionClockIn, at(day, 9, 0)),
			ev(attendance.ActionClockOut, at(day, 9, 20)),
		)
	}

	s := Aggregate(events, dec("8"))

	assert.True(t, s.TotalHours.Equal(dec("1")), s.TotalHours.String())
	assert.False(t, s.Daily["2024-07-11"].Hours.Equal(dec("0.33")))
}

func TestAggregate_NoEvents(t *testing.T) {
	s := Aggregate(nil, dec("8"))

	assert.Equal(t, 0, s.WorkDays)
	assert.True(t, s.TotalHours.IsZero())
	assert.Empty(t, s.Daily)
}
