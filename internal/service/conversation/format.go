package conversation

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2006-01-02"

var (
	menuButton   = say("🏠 主選單", "你好")
	cancelButton = say("❌ 取消", "取消")
)

func say(label, text string) conversation.QuickReply {
	return conversation.QuickReply{Label: label, Text: text}
}

func postback(label, data string) conversation.QuickReply {
	return conversation.QuickReply{Label: label, Postback: data}
}

// textReply builds a reply whose state is filled in when the outcome is applied.
func textReply(text string, quick ...conversation.QuickReply) conversation.Reply {
	return conversation.Reply{Messages: []string{text}, QuickReplies: quick}
}

func stateReply(state conversation.State, text string, quick ...conversation.QuickReply) conversation.Reply {
	r := textReply(text, quick...)
	r.State = state
	return r
}

// formatMoney renders a whole-unit amount with thousands separators.
func formatMoney(d decimal.Decimal) string {
	p := message.NewPrinter(language.TraditionalChinese)
	return p.Sprintf("$%d", d.Round(0).IntPart())
}

func formatHours(d decimal.Decimal) string {
	return d.Round(2).String()
}

func numbered(options []conversation.Option) string {
	var b strings.Builder
	for i, o := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, o.Label)
	}
	return b.String()
}

func deref(p *string, fallback string) string {
	if p == nil || *p == "" {
		return fallback
	}
	return *p
}

// spanText renders the dates of an application, adding the clock window of
// a half-day leave.
func spanText(start, end string, startTime, endTime *string) string {
	text := start
	if end != "" && end != start {
		text += " ~ " + end
	}
	if startTime != nil && endTime != nil {
		text += fmt.Sprintf(" (%s-%s)", *startTime, *endTime)
	}
	return text
}

func applicationSpan(a leave.Application) string {
	return spanText(a.StartDate.Format(dateLayout), a.EndDate.Format(dateLayout), a.StartTime, a.EndTime)
}

func applicationStatusLabel(s leave.ApplicationStatus) string {
	switch s {
	case leave.StatusPending:
		return "⏳ 待審核"
	case leave.StatusApproved:
		return "✅ 已核准"
	case leave.StatusRejected:
		return "❌ 已駁回"
	case leave.StatusCancelled:
		return "🚫 已取消"
	}
	return string(s)
}
