package leave

import (
	"regexp"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	// inputLayout also accepts months and days written without a leading zero.
	inputLayout = "2006-1-2"
)

var (
	hoursPerDay = decimal.NewFromInt(8)

	rangeSeparators = strings.NewReplacer("～", "~", "〜", "~", "－", "-")
	wordSeparator   = regexp.MustCompile(`(?i)\s+(to|至|到)\s+`)

	halfDayMarkers = []struct {
		marker string
		half   leave.HalfDay
	}{
		{"上午", leave.HalfDayMorning},
		{"morning", leave.HalfDayMorning},
		{"am", leave.HalfDayMorning},
		{"下午", leave.HalfDayAfternoon},
		{"afternoon", leave.HalfDayAfternoon},
		{"pm", leave.HalfDayAfternoon},
	}
)

// ParseSpan reads "YYYY-MM-DD", "YYYY-MM-DD~YYYY-MM-DD" ("to" also separates
// a range) or a single date followed by a half-day marker. Month and day may
// omit the leading zero. Every malformed input yields
// leave.ErrInvalidLeaveDate or leave.ErrEndBeforeStart.
func ParseSpan(text string) (leave.Span, error) {
	text = rangeSeparators.Replace(validator.NormalizeDigits(text))
	text = strings.TrimSpace(wordSeparator.ReplaceAllString(text, "~"))
	if text == "" {
		return leave.Span{}, leave.ErrInvalidLeaveDate
	}

	half := leave.HalfDayNone
	lower := strings.ToLower(text)
	for _, m := range halfDayMarkers {
		if strings.HasSuffix(lower, m.marker) {
			half = m.half
			text = text[:len(text)-len(m.marker)]
			break
		}
	}
	text = strings.Join(strings.Fields(text), "")

	startRaw, endRaw, isRange := strings.Cut(text, "~")
	start, err := time.Parse(inputLayout, strings.TrimSpace(startRaw))
	if err != nil {
		return leave.Span{}, leave.ErrInvalidLeaveDate
	}
	end := start
	if isRange {
		if half != leave.HalfDayNone {
			return leave.Span{}, leave.ErrInvalidLeaveDate
		}
		end, err = time.Parse(inputLayout, strings.TrimSpace(endRaw))
		if err != nil {
			return leave.Span{}, leave.ErrInvalidLeaveDate
		}
		if end.Before(start) {
			return leave.Span{}, leave.ErrEndBeforeStart
		}
	}

	span := leave.Span{StartDate: start, EndDate: end, HalfDay: half}
	if w, ok := half.Window(); ok {
		span.TotalHours = w.Hours()
	} else {
		span.TotalHours = hoursPerDay.Mul(decimal.NewFromInt(int64(span.Days())))
	}
	return span, nil
}

// HoursFor computes the duration of an application. With a clock range the
// leave is a single day measured from start to end; otherwise every
// calendar day counts as 8 hours.
func HoursFor(start, end time.Time, startTime, endTime *string) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, leave.ErrEndBeforeStart
	}
	if startTime == nil || endTime == nil {
		days := int64(end.Sub(start).Hours()/24) + 1
		return hoursPerDay.Mul(decimal.NewFromInt(days)), nil
	}

	from, err := time.Parse("15:04", *startTime)
	if err != nil {
		return decimal.Zero, leave.ErrInvalidLeaveDate
	}
	to, err := time.Parse("15:04", *endTime)
	if err != nil || !to.After(from) {
		return decimal.Zero, leave.ErrInvalidLeaveDate
	}
	minutes := decimal.NewFromFloat(to.Sub(from).Minutes())
	return minutes.Div(decimal.NewFromInt(60)).Round(2), nil
}
