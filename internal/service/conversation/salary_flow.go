package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
)

var confirmTokens = []string{"確認", "confirm"}

func (s *ConversationServiceImpl) startSalarySetup(ctx context.Context, u user.User) outcome {
	employees, err := s.users.ListActive(ctx)
	if err != nil {
		return fatal(fmt.Errorf("failed to list employees: %w", err))
	}
	if len(employees) == 0 {
		return reprompt(textReply("❌ 目前沒有員工資料", menuButton))
	}

	options := make([]conversation.Option, 0, len(employees))
	for _, e := range employees {
		options = append(options, conversation.Option{
			ID:    e.ID,
			Label: fmt.Sprintf("%s (%s)", e.DisplayName(), e.EmployeeCode),
		})
	}

	text := "💼 請選擇要設定薪資的員工：\n\n" + numbered(options) + "\n請回覆數字選擇，例如：1\n或輸入「取消」結束操作"
	return advance(conversation.NewSalarySession(u.ID, options, s.now()), textReply(text, cancelButton))
}

func (s *ConversationServiceImpl) selectEmployee(u user.User, sess conversation.Session, text string) outcome {
	if !u.Can(user.CapSalaryManage) {
		return complete(textReply(permissionDenied, menuButton))
	}

	options := sess.Salary.EmployeeOptions
	i, ok := validator.ParseIndex(text, len(options))
	if !ok {
		return reprompt(textReply(fmt.Sprintf("❌ 選擇無效，請輸入 1-%d 之間的數字", len(options)), cancelButton))
	}

	next := sess.Clone()
	next.State = conversation.StateSalarySetting
	d := next.Salary
	d.Step = conversation.SalaryStepBaseSalary
	d.TargetUserID = options[i].ID
	d.TargetName = options[i].Label

	prompt := fmt.Sprintf("💰 設定 %s 的薪資\n\n步驟 1/4：基本薪資\n請輸入基本月薪（元），若為時薪制請輸入 0：\n\n範例：30000 或 0\n\n請輸入金額或「取消」結束設定", d.TargetName)
	return advance(next, textReply(prompt, cancelButton))
}

func (s *ConversationServiceImpl) salaryStep(ctx context.Context, u user.User, sess conversation.Session, text string) outcome {
	if !u.Can(user.CapSalaryManage) {
		return complete(textReply(permissionDenied, menuButton))
	}

	next := sess.Clone()
	d := next.Salary
	switch d.Step {
	case conversation.SalaryStepBaseSalary:
		amount, err := salary.ParseAmount(text)
		if err != nil {
			return reprompt(textReply("❌ 請輸入正確的數字格式", cancelButton))
		}
		d.BaseSalary = &amount
		d.Step = conversation.SalaryStepHourlyRate
		return advance(next, textReply("步驟 2/4：時薪設定\n請輸入時薪（元）：\n\n範例：183\n\n請輸入時薪或「取消」結束設定", cancelButton))

	case conversation.SalaryStepHourlyRate:
		rate, err := salary.ParseAmount(text)
		if err != nil {
			return reprompt(textReply("❌ 請輸入正確的數字格式", cancelButton))
		}
		if d.BaseSalary != nil && !d.BaseSalary.IsPositive() && !rate.IsPositive() {
			return reprompt(textReply("❌ 時薪制員工的時薪必須大於 0", cancelButton))
		}
		d.HourlyRate = &rate
		d.Step = conversation.SalaryStepAllowances
		return advance(next, textReply("步驟 3/4：津貼設定\n請輸入各項津貼（元），用逗號分隔：\n\n格式：職務加給,交通津貼,伙食津貼,住房津貼[,技能津貼,其他津貼]\n範例：5000,2000,3000,0\n\n請輸入津貼或「取消」結束設定", cancelButton))

	case conversation.SalaryStepAllowances:
		allowances, err := salary.ParseAllowances(text)
		if err != nil {
			return reprompt(textReply("❌ 請輸入至少4個津貼金額，用逗號分隔", cancelButton))
		}
		d.Allowances = &allowances
		d.Step = conversation.SalaryStepConfirm
		return advance(next, textReply(salarySummary(*d), say("✅ 確認", "確認"), cancelButton))

	case conversation.SalaryStepConfirm:
		if !validator.IsInSlice(strings.ToLower(text), confirmTokens) {
			return reprompt(textReply("❌ 請回覆「確認」或「取消」", say("✅ 確認", "確認"), cancelButton))
		}
		return s.saveSalary(ctx, u, *sess.Salary)
	}
	return fatal(fmt.Errorf("unknown salary step %q", d.Step))
}

func salarySummary(d conversation.SalaryDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 步驟 4/4：薪資設定確認\n\n員工：%s\n\n💰 薪資結構：\n", d.TargetName)
	fmt.Fprintf(&b, "基本月薪：%s\n時薪：%s\n\n🎁 津貼項目：\n", formatMoney(*d.BaseSalary), formatMoney(*d.HourlyRate))
	for _, a := range d.Allowances.Named() {
		fmt.Fprintf(&b, "%s：%s\n", a.Name, formatMoney(a.Amount))
	}
	b.WriteString("\n請確認設定並回覆：\n• 確認 - 儲存設定\n• 取消 - 放棄設定")
	return b.String()
}

func (s *ConversationServiceImpl) saveSalary(ctx context.Context, u user.User, d conversation.SalaryDraft) outcome {
	if d.BaseSalary == nil || d.HourlyRate == nil || d.Allowances == nil {
		return fatal(conversation.ErrDraftMissing)
	}

	st, err := s.salaryService.SetSalary(ctx, salary.SetSalaryRequest{
		UserID:     d.TargetUserID,
		BaseSalary: *d.BaseSalary,
		HourlyRate: *d.HourlyRate,
		Allowances: *d.Allowances,
		CreatedBy:  u.ID,
	})
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, salary.ErrNegativeAmount) || errors.As(err, &verrs) {
			return complete(textReply("❌ 薪資設定失敗：資料不正確，請重新開始", say("💼 設定薪資", "設定薪資"), menuButton))
		}
		slog.Error("failed to save salary from chat", "user_id", u.ID, "target_user_id", d.TargetUserID, "error", err)
		return reprompt(textReply("❌ 薪資設定暫時無法儲存，請稍後再回覆「確認」，或輸入「取消」放棄設定", say("✅ 確認", "確認"), cancelButton))
	}

	slog.Info("salary structure set from chat", "user_id", d.TargetUserID, "by", u.ID, "structure_id", st.ID)
	text := fmt.Sprintf("✅ 薪資設定完成！\n\n%s 的薪資結構已更新\n生效日期：%s\n\n員工可透過「薪資單」查看最新薪資資訊",
		d.TargetName, st.EffectiveDate.Format(dateLayout))
	return complete(textReply(text, say("💼 繼續設定", "設定薪資"), menuButton))
}
