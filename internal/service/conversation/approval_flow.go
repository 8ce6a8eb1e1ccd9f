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
)

const (
	approvePostbackPrefix = "approve_leave_"
	maxPendingShown       = 10
	alreadyProcessed      = "⚠️ 此申請已被處理，無需重複審核"
)

var (
	approveTokens = []string{"同意", "核准", "同意請假", "approve", "yes"}
	rejectTokens  = []string{"拒絕", "駁回", "拒絕請假", "reject", "no"}
)

func approvePostback(applicationID string, approved bool) string {
	decision := "no"
	if approved {
		decision = "yes"
	}
	return approvePostbackPrefix + applicationID + "_" + decision
}

// parseApprovePostback reads "approve_leave_<id>_yes|no".
func parseApprovePostback(data string) (applicationID string, approved bool, ok bool) {
	rest := strings.TrimPrefix(data, approvePostbackPrefix)
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", false, false
	}
	applicationID, decision := rest[:i], rest[i+1:]
	if !validator.IsValidUUID(applicationID) {
		return "", false, false
	}
	switch decision {
	case "yes":
		return applicationID, true, true
	case "no":
		return applicationID, false, true
	}
	return "", false, false
}

func (s *ConversationServiceImpl) startApproval(ctx context.Context, u user.User) outcome {
	pending, err := s.leaveService.ListPending(ctx, u.ID, maxPendingShown)
	if err != nil {
		return fatal(fmt.Errorf("failed to list pending leave: %w", err))
	}

	options := make([]conversation.Option, 0, len(pending))
	for _, a := range pending {
		options = append(options, conversation.Option{ID: a.ID, Label: applicationLabel(a)})
	}
	if len(options) == 0 {
		return reprompt(textReply("📋 目前沒有待審核的請假申請", menuButton))
	}

	text := "📋 待審核請假申請：\n\n" + numbered(options) + "\n請回覆數字選擇要審核的申請，例如：1\n或輸入「取消」結束審核"
	return advance(conversation.NewApprovalSession(u.ID, options, s.now()), textReply(text, cancelButton))
}

func applicationLabel(a leave.Application) string {
	return fmt.Sprintf("%s - %s\n   %s (%s小時)",
		deref(a.UserName, "未知員工"), deref(a.LeaveTypeName, "請假"), applicationSpan(a), formatHours(a.TotalHours))
}

func applicationDetail(a leave.Application) string {
	return fmt.Sprintf("📋 請假申請詳情\n\n申請人：%s\n請假類型：%s\n請假時間：%s\n請假時數：%s小時\n申請原因：%s",
		deref(a.UserName, "未知員工"), deref(a.LeaveTypeName, "請假"), applicationSpan(a), formatHours(a.TotalHours), a.Reason)
}

func decisionPrompt(applicationID, summary string) conversation.Reply {
	return textReply(summary+"\n\n請選擇審核結果：\n• 同意 - 核准請假\n• 拒絕 - 駁回申請\n• 取消 - 結束審核",
		postback("✅ 同意", approvePostback(applicationID, true)),
		postback("❌ 拒絕", approvePostback(applicationID, false)),
		cancelButton,
	)
}

// pendingApplication loads an application that is still open for a decision.
// When it is not, the returned outcome ends the wizard.
func (s *ConversationServiceImpl) pendingApplication(ctx context.Context, id string) (leave.Application, *outcome) {
	app, err := s.leaveService.GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, leave.ErrLeaveRequestNotFound) {
			out := complete(textReply("❌ 找不到此請假申請", menuButton))
			return leave.Application{}, &out
		}
		out := fatal(fmt.Errorf("failed to load leave application: %w", err))
		return leave.Application{}, &out
	}
	if !app.IsPending() {
		out := complete(textReply(alreadyProcessed, say("📋 繼續審核", "請假審核"), menuButton))
		return leave.Application{}, &out
	}
	return app, nil
}

func (s *ConversationServiceImpl) selectApplication(ctx context.Context, u user.User, sess conversation.Session, text string) outcome {
	if !u.Can(user.CapLeaveApprove) {
		return complete(textReply(permissionDenied, menuButton))
	}

	options := sess.Approval.Options
	i, ok := validator.ParseIndex(text, len(options))
	if !ok {
		return reprompt(textReply(fmt.Sprintf("❌ 選擇無效，請輸入 1-%d 之間的數字", len(options)), cancelButton))
	}

	app, done := s.pendingApplication(ctx, options[i].ID)
	if done != nil {
		return *done
	}

	next := sess.Clone()
	next.State = conversation.StateLeaveApprovalDecision
	next.Approval.ApplicationID = app.ID
	next.Approval.Summary = applicationDetail(app)
	return advance(next, decisionPrompt(app.ID, next.Approval.Summary))
}

func (s *ConversationServiceImpl) decideApplication(ctx context.Context, u user.User, sess conversation.Session, text string) outcome {
	if !u.Can(user.CapLeaveApprove) {
		return complete(textReply(permissionDenied, menuButton))
	}

	d := sess.Approval
	key := strings.ToLower(text)
	switch {
	case validator.IsInSlice(key, approveTokens):
		return s.decide(ctx, u, d.ApplicationID, true, nil)
	case validator.IsInSlice(key, rejectTokens):
		return s.askRejectReason(u.ID, d, d.ApplicationID)
	}
	return reprompt(decisionPrompt(d.ApplicationID, d.Summary))
}

func (s *ConversationServiceImpl) askRejectReason(userID string, current *conversation.ApprovalDraft, applicationID string) outcome {
	draft := conversation.ApprovalDraft{ApplicationID: applicationID}
	if current != nil {
		draft.Options = append([]conversation.Option(nil), current.Options...)
		draft.Summary = current.Summary
	}
	now := s.now()
	next := conversation.Session{
		UserID:    userID,
		State:     conversation.StateLeaveApprovalRejectReason,
		Approval:  &draft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return advance(next, textReply("📝 請輸入拒絕原因：",
		say("⏰ 時間衝突", "該時段已有其他員工請假"),
		say("🏢 業務需要", "業務繁忙需要人力支援"),
		say("📋 資料不足", "請假資料不完整"),
		cancelButton,
	))
}

func (s *ConversationServiceImpl) rejectApplication(ctx context.Context, u user.User, sess conversation.Session, text string) outcome {
	if !u.Can(user.CapLeaveApprove) {
		return complete(textReply(permissionDenied, menuButton))
	}
	if validator.ExceedsLength(text, maxReasonLength) {
		return reprompt(textReply("❌ 拒絕原因過長，請精簡後重新輸入", cancelButton))
	}
	reason := text
	return s.decide(ctx, u, sess.Approval.ApplicationID, false, &reason)
}

func (s *ConversationServiceImpl) decide(ctx context.Context, u user.User, applicationID string, approved bool, reason *string) outcome {
	app, err := s.leaveService.DecideLeave(ctx, leave.DecideLeaveRequest{
		ApplicationID: applicationID,
		ApproverID:    u.ID,
		Approved:      approved,
		RejectReason:  reason,
	})
	if err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
			return complete(textReply(alreadyProcessed, say("📋 繼續審核", "請假審核"), menuButton))
		case errors.Is(err, leave.ErrLeaveRequestNotFound), errors.As(err, &verrs):
			return complete(textReply("❌ 找不到此請假申請", menuButton))
		case errors.Is(err, leave.ErrSelfApproval):
			return complete(textReply("❌ 不能審核自己的請假申請", menuButton))
		case errors.Is(err, user.ErrPermissionDenied):
			return complete(textReply(permissionDenied, menuButton))
		}
		slog.Error("failed to decide leave from chat", "user_id", u.ID, "application_id", applicationID, "error", err)
		return reprompt(textReply("❌ 審核暫時無法完成，請稍後再試", cancelButton))
	}

	var text string
	if approved {
		text = fmt.Sprintf("✅ 請假申請已核准\n\n%s\n\n系統將自動通知申請人", applicationLabel(app))
	} else {
		text = fmt.Sprintf("❌ 請假申請已駁回\n\n%s\n駁回原因：%s\n\n系統將自動通知申請人", applicationLabel(app), deref(reason, "未提供"))
	}
	return complete(textReply(text, say("📋 繼續審核", "請假審核"), menuButton))
}

func (s *ConversationServiceImpl) handlePostback(ctx context.Context, u user.User, sess conversation.Session, active bool, data string) outcome {
	switch {
	case strings.HasPrefix(data, leaveTypePostbackPrefix):
		if !active || sess.State != conversation.StateLeaveTypeSelection || sess.Leave == nil {
			return reprompt(textReply("⚠️ 此選項已失效，請重新輸入「請假申請」", menuButton))
		}
		id := strings.TrimPrefix(data, leaveTypePostbackPrefix)
		for _, opt := range sess.Leave.TypeOptions {
			if opt.ID == id {
				return s.chooseLeaveType(sess, opt)
			}
		}
		return reprompt(textReply("❌ 選擇的請假類型無效", cancelButton))

	case strings.HasPrefix(data, approvePostbackPrefix):
		applicationID, approved, ok := parseApprovePostback(data)
		if !ok {
			break
		}
		if !u.Can(user.CapLeaveApprove) {
			return reprompt(textReply(permissionDenied, menuButton))
		}
		var current *conversation.ApprovalDraft
		if active {
			if sess.State.Wizard() != conversation.WizardApproval {
				return reprompt(textReply("⚠️ 請先完成目前的操作，或輸入「取消」結束", cancelButton))
			}
			current = sess.Approval
		}
		if approved {
			return s.decide(ctx, u, applicationID, true, nil)
		}
		if _, done := s.pendingApplication(ctx, applicationID); done != nil {
			return *done
		}
		return s.askRejectReason(u.ID, current, applicationID)
	}
	return reprompt(textReply("❌ 未知的操作", menuButton))
}
