package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
)

var cancelTokens = []string{"取消", "結束", "退出", "cancel", "quit", "exit"}

const (
	genericFailure   = "❌ 系統暫時無法處理，請稍後再試"
	busyMessage      = "⏳ 上一則訊息還在處理中，請稍候再試"
	cancelledMessage = "✅ 已取消當前操作\n\n輸入「你好」查看主選單"
)

type outcomeKind int

const (
	// outcomeReprompt answers without touching the session.
	outcomeReprompt outcomeKind = iota
	// outcomeAdvance stores next as the user's session.
	outcomeAdvance
	// outcomeComplete ends the wizard after its side effect.
	outcomeComplete
	// outcomeFatal drops the session and answers with a generic failure.
	outcomeFatal
)

type outcome struct {
	kind  outcomeKind
	next  conversation.Session
	reply conversation.Reply
	err   error
}

func reprompt(reply conversation.Reply) outcome {
	return outcome{kind: outcomeReprompt, reply: reply}
}

func advance(next conversation.Session, reply conversation.Reply) outcome {
	return outcome{kind: outcomeAdvance, next: next, reply: reply}
}

func complete(reply conversation.Reply) outcome {
	return outcome{kind: outcomeComplete, reply: reply}
}

func fatal(err error) outcome {
	return outcome{kind: outcomeFatal, err: err}
}

type ConversationServiceImpl struct {
	store             conversation.SessionStore
	users             user.UserRepository
	attendanceService attendance.AttendanceService
	payrollService    payroll.PayrollService
	leaveService      leave.LeaveService
	salaryService     salary.SalaryService
	commands          []command
	loc               *time.Location
	now               func() time.Time
}

func NewConversationService(
	store conversation.SessionStore,
	userRepo user.UserRepository,
	attendanceService attendance.AttendanceService,
	payrollService payroll.PayrollService,
	leaveService leave.LeaveService,
	salaryService salary.SalaryService,
	loc *time.Location,
) conversation.ConversationService {
	if loc == nil {
		loc = time.UTC
	}
	s := &ConversationServiceImpl{
		store:             store,
		users:             userRepo,
		attendanceService: attendanceService,
		payrollService:    payrollService,
		leaveService:      leaveService,
		salaryService:     salaryService,
		loc:               loc,
		now:               time.Now,
	}
	s.commands = s.buildCommands()
	return s
}

// HandleTurn implements conversation.ConversationService.
func (s *ConversationServiceImpl) HandleTurn(ctx context.Context, in conversation.Input) (conversation.Reply, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.Postback = strings.TrimSpace(in.Postback)
	if in.Text == "" && in.Postback == "" {
		return conversation.Reply{}, conversation.ErrEmptyInput
	}

	u, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return stateReply(conversation.StateNormal, "👋 尚未找到您的員工資料，請聯繫人資建立帳號"), nil
		}
		return conversation.Reply{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.IsActive {
		return stateReply(conversation.StateNormal, "❌ 您的帳號已停用，如有疑問請聯繫人資"), nil
	}

	reply, err := s.turn(ctx, u, in)
	if errors.Is(err, conversation.ErrSessionBusy) {
		slog.Debug("session busy, retrying turn", "user_id", u.ID)
		reply, err = s.turn(ctx, u, in)
	}
	if errors.Is(err, conversation.ErrSessionBusy) {
		slog.Warn("session still busy, dropping turn", "user_id", u.ID)
		return conversation.Reply{Messages: []string{busyMessage}}, nil
	}
	return reply, err
}

// turn runs one read-modify-write cycle while holding the user's lock.
func (s *ConversationServiceImpl) turn(ctx context.Context, u user.User, in conversation.Input) (conversation.Reply, error) {
	unlock, err := s.store.Lock(ctx, u.ID)
	if err != nil {
		return conversation.Reply{}, err
	}
	defer unlock()

	sess, active, err := s.store.Get(ctx, u.ID)
	if err != nil {
		return conversation.Reply{}, fmt.Errorf("failed to load session: %w", err)
	}

	if !in.IsPostback() && isCancel(in.Text) {
		return s.cancel(ctx, u.ID, sess, active)
	}

	var out outcome
	switch {
	case in.IsPostback():
		out = s.handlePostback(ctx, u, sess, active, in.Postback)
	case active:
		out = s.handleStep(ctx, u, sess, in.Text)
	default:
		out = s.handleCommand(ctx, u, in.Text)
	}
	return s.apply(ctx, u.ID, sess, active, out), nil
}

func isCancel(text string) bool {
	for _, t := range cancelTokens {
		if strings.EqualFold(text, t) {
			return true
		}
	}
	return false
}

func (s *ConversationServiceImpl) cancel(ctx context.Context, userID string, sess conversation.Session, active bool) (conversation.Reply, error) {
	if active {
		if err := s.store.Delete(ctx, userID); err != nil {
			return conversation.Reply{}, fmt.Errorf("failed to cancel session: %w", err)
		}
		slog.Debug("conversation cancelled", "user_id", userID, "state", sess.State)
	}
	return stateReply(conversation.StateNormal, cancelledMessage, menuButton), nil
}

func (s *ConversationServiceImpl) handleStep(ctx context.Context, u user.User, sess conversation.Session, text string) outcome {
	if err := sess.Validate(); err != nil {
		return fatal(fmt.Errorf("stored session is inconsistent: %w", err))
	}

	switch sess.State {
	case conversation.StateLeaveTypeSelection:
		return s.selectLeaveType(sess, text)
	case conversation.StateLeaveDateInput:
		return s.enterLeaveDates(sess, text)
	case conversation.StateLeaveReasonInput:
		return s.submitLeave(ctx, u, sess, text)
	case conversation.StateAdminEmployeeSelection:
		return s.selectEmployee(u, sess, text)
	case conversation.StateSalarySetting:
		return s.salaryStep(ctx, u, sess, text)
	case conversation.StateLeaveApprovalSelection:
		return s.selectApplication(ctx, u, sess, text)
	case conversation.StateLeaveApprovalDecision:
		return s.decideApplication(ctx, u, sess, text)
	case conversation.StateLeaveApprovalRejectReason:
		return s.rejectApplication(ctx, u, sess, text)
	}
	return fatal(fmt.Errorf("unknown conversation state %q", sess.State))
}

// apply commits the outcome of a step to the store and fills in the state
// the user ends up in.
func (s *ConversationServiceImpl) apply(ctx context.Context, userID string, current conversation.Session, active bool, out outcome) conversation.Reply {
	from := conversation.StateNormal
	if active {
		from = current.State
	}

	switch out.kind {
	case outcomeAdvance:
		next := out.next
		next.UserID = userID
		next.UpdatedAt = s.now()
		if next.CreatedAt.IsZero() {
			next.CreatedAt = next.UpdatedAt
		}
		if err := s.store.Save(ctx, next); err != nil {
			slog.Error("failed to save session", "user_id", userID, "state", next.State, "error", err)
			return stateReply(from, genericFailure)
		}
		slog.Debug("conversation advanced", "user_id", userID, "from", from, "to", next.State)
		out.reply.State = next.State
		return out.reply

	case outcomeComplete:
		if active {
			if err := s.store.Delete(ctx, userID); err != nil {
				slog.Error("failed to clear session", "user_id", userID, "state", from, "error", err)
			}
		}
		slog.Debug("conversation completed", "user_id", userID, "from", from)
		out.reply.State = conversation.StateNormal
		return out.reply

	case outcomeFatal:
		slog.Error("conversation step failed", "user_id", userID, "state", from, "error", out.err)
		if active {
			if err := s.store.Delete(ctx, userID); err != nil {
				slog.Error("failed to clear session", "user_id", userID, "error", err)
			}
		}
		return stateReply(conversation.StateNormal, genericFailure, menuButton)
	}

	out.reply.State = from
	return out.reply
}
