package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
	leavesvc "github.com/cmlabs-hris/hris-chatbot-go/internal/service/leave"
	"github.com/shopspring/decimal"
)

const (
	leaveTypePostbackPrefix = "leave_type_"
	reselectDates           = "重新選擇"
	maxReasonLength         = 500

	dateFormatHelp = "格式範例：\n• 單日：2024-07-15\n• 多日：2024-07-15~2024-07-17\n• 半天：2024-07-15 上午 或 2024-07-15 下午"
)

func (s *ConversationServiceImpl) startLeave(ctx context.Context, u user.User) outcome {
	types, err := s.leaveService.ListLeaveTypes(ctx)
	if err != nil {
		return fatal(fmt.Errorf("failed to list leave types: %w", err))
	}
	if len(types) == 0 {
		return reprompt(textReply("❌ 目前沒有可用的請假類型", menuButton))
	}

	options := make([]conversation.Option, 0, len(types))
	quick := make([]conversation.QuickReply, 0, len(types)+1)
	var b strings.Builder
	b.WriteString("📝 請假申請\n\n請選擇請假類型：\n\n")
	for i, t := range types {
		options = append(options, conversation.Option{ID: t.ID, Label: t.Name})
		quick = append(quick, postback(t.Name, leaveTypePostbackPrefix+t.ID))

		paid := "⭕無薪假"
		if t.IsPaid {
			paid = "💰有薪假"
		}
		fmt.Fprintf(&b, "%d. %s (%s，每年%d天)\n", i+1, t.Name, paid, t.MaxDaysPerYear)
	}
	b.WriteString("\n請回覆數字或點選按鈕，輸入「取消」結束申請")
	quick = append(quick, cancelButton)

	return advance(conversation.NewLeaveSession(u.ID, options, s.now()), textReply(b.String(), quick...))
}

func (s *ConversationServiceImpl) selectLeaveType(sess conversation.Session, text string) outcome {
	options := sess.Leave.TypeOptions
	i, ok := validator.ParseIndex(text, len(options))
	if !ok {
		return reprompt(textReply(fmt.Sprintf("❌ 選擇無效，請輸入 1-%d 之間的數字", len(options)), cancelButton))
	}
	return s.chooseLeaveType(sess, options[i])
}

func (s *ConversationServiceImpl) chooseLeaveType(sess conversation.Session, opt conversation.Option) outcome {
	next := sess.Clone()
	next.State = conversation.StateLeaveDateInput
	next.Leave.LeaveTypeID = opt.ID
	next.Leave.LeaveTypeName = opt.Label
	return advance(next, s.datePrompt(fmt.Sprintf("✅ 已選擇：%s\n\n📅 請輸入請假日期：", opt.Label)))
}

func (s *ConversationServiceImpl) datePrompt(header string) conversation.Reply {
	today := s.now().In(s.loc)
	return textReply(header+"\n\n"+dateFormatHelp+"\n\n請輸入日期或「取消」結束申請",
		say("📅 今天", today.Format(dateLayout)),
		say("📅 明天", today.AddDate(0, 0, 1).Format(dateLayout)),
		say("📅 後天", today.AddDate(0, 0, 2).Format(dateLayout)),
		cancelButton,
	)
}

func (s *ConversationServiceImpl) enterLeaveDates(sess conversation.Session, text string) outcome {
	span, err := leavesvc.ParseSpan(text)
	if err != nil {
		header := "❌ 日期格式錯誤"
		if errors.Is(err, leave.ErrEndBeforeStart) {
			header = "❌ 結束日期不能早於開始日期"
		}
		return reprompt(s.datePrompt(header))
	}

	next := sess.Clone()
	next.State = conversation.StateLeaveReasonInput
	d := next.Leave
	d.StartDate = span.StartDate.Format(dateLayout)
	d.EndDate = span.EndDate.Format(dateLayout)
	d.StartTime, d.EndTime = span.Times()
	d.TotalHours = span.TotalHours

	summary := fmt.Sprintf("📋 請假資訊確認\n\n請假類型：%s\n請假日期：%s\n請假時數：%s小時\n\n📝 請輸入請假原因：",
		d.LeaveTypeName, spanText(d.StartDate, d.EndDate, d.StartTime, d.EndTime), formatHours(d.TotalHours))
	return advance(next, textReply(summary,
		say("🏥 身體不適", "身體不適需要休息"),
		say("👨‍👩‍👧 家庭事務", "處理家庭事務"),
		say("🏖️ 個人休假", "個人休假安排"),
		say("🔄 重新選擇日期", reselectDates),
	))
}

func (s *ConversationServiceImpl) submitLeave(ctx context.Context, u user.User, sess conversation.Session, text string) outcome {
	if text == reselectDates {
		next := sess.Clone()
		next.State = conversation.StateLeaveDateInput
		d := next.Leave
		d.StartDate, d.EndDate = "", ""
		d.StartTime, d.EndTime = nil, nil
		d.TotalHours = decimal.Zero
		return advance(next, s.datePrompt(fmt.Sprintf("✅ 已選擇：%s\n\n📅 請重新輸入請假日期：", d.LeaveTypeName)))
	}
	if validator.ExceedsLength(text, maxReasonLength) {
		return reprompt(textReply("❌ 請假原因過長，請精簡後重新輸入", cancelButton))
	}

	d := sess.Leave
	res, err := s.leaveService.SubmitLeave(ctx, leave.SubmitLeaveRequest{
		UserID:      u.ID,
		LeaveTypeID: d.LeaveTypeID,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Reason:      text,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
	})
	if err != nil {
		if msg, ok := leaveRejection(err); ok {
			return complete(textReply("❌ 請假申請失敗："+msg, say("🔄 重新申請", "請假申請"), menuButton))
		}
		slog.Error("failed to submit leave from chat", "user_id", u.ID, "error", err)
		return reprompt(textReply("❌ 請假申請暫時無法送出，請稍後再輸入一次原因，或輸入「取消」結束", cancelButton))
	}

	summary := fmt.Sprintf("✅ 請假申請已提交成功！\n\n申請編號：#%s\n請假類型：%s\n請假時間：%s\n請假時數：%s小時\n申請原因：%s\n\n狀態：⏳ 待主管審核",
		res.ApplicationID, d.LeaveTypeName, spanText(d.StartDate, d.EndDate, d.StartTime, d.EndTime), formatHours(res.TotalHours), text)
	return complete(textReply(summary,
		say("📄 查看請假記錄", "請假查詢"),
		say("📝 再申請一個", "請假申請"),
		menuButton,
	))
}

// leaveRejection maps business rule failures to the message shown to the
// applicant. Anything else is treated as a transient failure.
func leaveRejection(err error) (string, bool) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, leave.ErrOverlappingLeave):
		return "此期間已有請假申請", true
	case errors.Is(err, leave.ErrInsufficientQuota):
		return "本年度此假別額度不足", true
	case errors.Is(err, leave.ErrLeaveTypeNotFound), errors.Is(err, leave.ErrLeaveTypeInactive):
		return "此假別已停用", true
	case errors.Is(err, leave.ErrInvalidLeaveDate), errors.Is(err, leave.ErrEndBeforeStart), errors.As(err, &verrs):
		return "申請資料不正確", true
	}
	return "", false
}
