package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
)

const (
	historyLimit     = 6
	leaveQueryLimit  = 5
	permissionDenied = "❌ 您沒有權限執行此操作"
	unknownCommand   = "🤔 不太明白您的意思\n\n輸入「功能」查看可用指令"
)

// command is a keyword understood while no wizard is running. Commands with
// a label show up in the help menu.
type command struct {
	words    []string
	label    string
	required user.Capability
	run      func(ctx context.Context, u user.User) outcome
}

func (s *ConversationServiceImpl) buildCommands() []command {
	return []command{
		{words: []string{"上班", "打卡"}, label: "🕘 上班打卡", required: user.CapSelfAttendance, run: s.clockIn},
		{words: []string{"下班"}, label: "🏁 下班打卡", required: user.CapSelfAttendance, run: s.clockOut},
		{words: []string{"考勤查詢", "考勤"}, label: "📊 考勤查詢", required: user.CapSelfAttendance, run: s.attendanceSummary},
		{words: []string{"薪資單", "薪水單"}, label: "💰 薪資單", required: user.CapSelfPayroll, run: s.payslip},
		{words: []string{"薪資歷史"}, label: "📋 薪資歷史", required: user.CapSelfPayroll, run: s.payrollHistory},
		{words: []string{"請假申請", "請假"}, label: "📝 請假申請", required: user.CapLeaveApply, run: s.startLeave},
		{words: []string{"請假查詢"}, label: "📄 請假查詢", required: user.CapLeaveApply, run: s.leaveQuery},
		{words: []string{"請假審核"}, label: "✅ 請假審核", required: user.CapLeaveApprove, run: s.startApproval},
		{words: []string{"設定薪資"}, label: "💼 設定薪資", required: user.CapSalaryManage, run: s.startSalarySetup},
		{words: []string{"薪資統計"}, label: "📈 薪資統計", required: user.CapPayrollViewAll, run: s.payrollStats},
		{words: []string{"員工管理"}, label: "👥 員工管理", required: user.CapEmployeeViewAll, run: s.employeeList},
		{words: []string{"說明", "功能", "幫助", "help"}, run: s.help},
		{words: []string{"你好", "hi", "hello"}, run: s.greeting},
	}
}

func (s *ConversationServiceImpl) handleCommand(ctx context.Context, u user.User, text string) outcome {
	key := strings.ToLower(text)
	for _, c := range s.commands {
		if !validator.IsInSlice(key, c.words) {
			continue
		}
		if c.required != 0 && !u.Can(c.required) {
			return reprompt(textReply(permissionDenied, menuButton))
		}
		return c.run(ctx, u)
	}
	return reprompt(textReply(unknownCommand, say("📖 功能說明", "功能"), menuButton))
}

// menu lists the labelled commands the user may run.
func (s *ConversationServiceImpl) menu(u user.User) []command {
	var items []command
	for _, c := range s.commands {
		if c.label != "" && (c.required == 0 || u.Can(c.required)) {
			items = append(items, c)
		}
	}
	return items
}

func (s *ConversationServiceImpl) greeting(_ context.Context, u user.User) outcome {
	text := fmt.Sprintf("👋 %s 您好！\n\n我是人資小幫手，可以協助您打卡、查詢薪資與申請請假。\n輸入「功能」查看完整指令，任何時候輸入「取消」可結束目前操作。", u.DisplayName())

	var quick []conversation.QuickReply
	for _, c := range s.menu(u) {
		quick = append(quick, say(c.label, c.words[0]))
	}
	return reprompt(textReply(text, quick...))
}

func (s *ConversationServiceImpl) help(_ context.Context, u user.User) outcome {
	var b strings.Builder
	b.WriteString("📖 可用指令\n\n")
	for _, c := range s.menu(u) {
		fmt.Fprintf(&b, "%s：輸入「%s」\n", c.label, c.words[0])
	}
	b.WriteString("\n進行中的操作可隨時輸入「取消」結束")
	return reprompt(textReply(b.String(), menuButton))
}

func (s *ConversationServiceImpl) clockIn(ctx context.Context, u user.User) outcome {
	return s.clock(ctx, u, attendance.ActionClockIn)
}

func (s *ConversationServiceImpl) clockOut(ctx context.Context, u user.User) outcome {
	return s.clock(ctx, u, attendance.ActionClockOut)
}

func (s *ConversationServiceImpl) clock(ctx context.Context, u user.User, action attendance.Action) outcome {
	res, err := s.attendanceService.RecordClockEvent(ctx, attendance.ClockRequest{UserID: u.ID, Action: string(action)})
	if err != nil {
		return fatal(fmt.Errorf("failed to record %s: %w", action, err))
	}

	title, closing := "上班打卡成功！", "祝您工作順利！ 💪"
	if action == attendance.ActionClockOut {
		title, closing = "下班打卡成功！", "辛苦了！明天見 👋"
	}
	emoji := "✅"
	if res.Status != attendance.StatusNormal {
		emoji = "⚠️"
	}

	text := fmt.Sprintf("%s %s\n\n📅 %s\n📍 %s\n\n%s",
		emoji, title, res.Timestamp.In(s.loc).Format("01/02 15:04"), clockStatusLabel(res.Status), closing)
	return reprompt(textReply(text,
		say("📊 查看考勤", "考勤查詢"),
		say("💰 查看薪資", "薪資單"),
		say("📝 申請請假", "請假申請"),
		menuButton,
	))
}

func clockStatusLabel(s attendance.Status) string {
	switch s {
	case attendance.StatusLate:
		return "遲到"
	case attendance.StatusEarly:
		return "早退"
	}
	return "準時"
}

func (s *ConversationServiceImpl) attendanceSummary(ctx context.Context, u user.User) outcome {
	now := s.now().In(s.loc)
	res, err := s.attendanceService.Summarize(ctx, u.ID, now.Year(), int(now.Month()))
	if err != nil {
		return fatal(fmt.Errorf("failed to summarize attendance: %w", err))
	}

	sum := res.Summary
	text := fmt.Sprintf("📊 %d月考勤統計\n\n🗓️ 出勤天數: %d天\n⏱️ 總工時: %s小時\n🕘 正常工時: %s小時\n🌙 加班工時: %s小時\n⏰ 遲到: %d次\n🏃 早退: %d次",
		now.Month(), sum.WorkDays,
		formatHours(sum.TotalHours), formatHours(sum.RegularHours), formatHours(sum.OvertimeHours),
		res.LateCount, res.EarlyCount)
	return reprompt(textReply(text,
		say("💰 查看薪資單", "薪資單"),
		say("📋 薪資歷史", "薪資歷史"),
		say("📝 申請請假", "請假申請"),
		menuButton,
	))
}

func (s *ConversationServiceImpl) payslip(ctx context.Context, u user.User) outcome {
	now := s.now().In(s.loc)
	slip, err := s.payrollService.GetMonthlyPayroll(ctx, payroll.PeriodRequest{
		UserID: u.ID,
		Year:   now.Year(),
		Month:  int(now.Month()),
	})
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollBusy) {
			return reprompt(textReply("⏳ 薪資正在計算中，請稍後再試", menuButton))
		}
		return fatal(fmt.Errorf("failed to get payslip: %w", err))
	}
	return reprompt(textReply(payslipText(slip),
		say("📋 薪資歷史", "薪資歷史"),
		say("📊 考勤統計", "考勤查詢"),
		menuButton,
	))
}

func payslipText(slip payroll.Payslip) string {
	r := slip.Record
	var b strings.Builder
	fmt.Fprintf(&b, "💰 %d年%d月 薪資單\n", r.PeriodYear, r.PeriodMonth)
	b.WriteString(strings.Repeat("─", 16) + "\n")
	fmt.Fprintf(&b, "工作天數：%d天\n", r.WorkDays)
	fmt.Fprintf(&b, "總工時：%s小時（加班 %s小時）\n\n", formatHours(r.TotalHours), formatHours(r.OvertimeHours))

	b.WriteString("【應發項目】\n")
	for _, l := range slip.Lines {
		if l.Category != payroll.CategoryDeduction {
			fmt.Fprintf(&b, "%s：%s\n", l.Name, formatMoney(l.Amount))
		}
	}
	fmt.Fprintf(&b, "應發合計：%s\n\n", formatMoney(r.GrossSalary))

	b.WriteString("【扣除項目】\n")
	deductions := 0
	for _, l := range slip.Lines {
		if l.Category == payroll.CategoryDeduction {
			fmt.Fprintf(&b, "%s：%s\n", l.Name, formatMoney(l.Amount))
			deductions++
		}
	}
	if deductions == 0 {
		b.WriteString("無\n")
	}
	fmt.Fprintf(&b, "扣除合計：%s\n\n", formatMoney(r.TotalDeductions))
	fmt.Fprintf(&b, "💵 實發金額：%s", formatMoney(r.NetSalary()))
	return b.String()
}

func (s *ConversationServiceImpl) payrollHistory(ctx context.Context, u user.User) outcome {
	records, err := s.payrollService.ListHistory(ctx, u.ID, historyLimit)
	if err != nil {
		return fatal(fmt.Errorf("failed to list payroll history: %w", err))
	}
	if len(records) == 0 {
		return reprompt(textReply("📋 目前沒有薪資記錄", say("💰 查看本月薪資", "薪資單"), menuButton))
	}

	var b strings.Builder
	b.WriteString("📋 薪資歷史記錄\n" + strings.Repeat("─", 16) + "\n")
	for _, r := range records {
		emoji := "📝"
		if r.Status == payroll.PayrollStatusPaid {
			emoji = "💰"
		}
		fmt.Fprintf(&b, "%s %d年%d月\n   實領: %s\n   總額: %s\n\n",
			emoji, r.PeriodYear, r.PeriodMonth, formatMoney(r.NetSalary()), formatMoney(r.GrossSalary))
	}
	return reprompt(textReply(strings.TrimRight(b.String(), "\n"),
		say("💰 查看本月薪資", "薪資單"),
		say("📊 考勤統計", "考勤查詢"),
		menuButton,
	))
}

func (s *ConversationServiceImpl) leaveQuery(ctx context.Context, u user.User) outcome {
	apps, err := s.leaveService.ListMyApplications(ctx, u.ID, leaveQueryLimit)
	if err != nil {
		return fatal(fmt.Errorf("failed to list leave applications: %w", err))
	}
	if len(apps) == 0 {
		return reprompt(textReply("📄 目前沒有請假記錄", say("📝 申請請假", "請假申請"), menuButton))
	}

	var b strings.Builder
	b.WriteString("📄 最近的請假記錄\n\n")
	for _, a := range apps {
		fmt.Fprintf(&b, "%s %s\n   %s (%s小時)\n", applicationStatusLabel(a.Status), deref(a.LeaveTypeName, "請假"), applicationSpan(a), formatHours(a.TotalHours))
		if a.RejectReason != nil {
			fmt.Fprintf(&b, "   駁回原因：%s\n", *a.RejectReason)
		}
		b.WriteString("\n")
	}
	return reprompt(textReply(strings.TrimRight(b.String(), "\n"), say("📝 申請請假", "請假申請"), menuButton))
}

func (s *ConversationServiceImpl) payrollStats(ctx context.Context, _ user.User) outcome {
	now := s.now().In(s.loc)
	stats, err := s.payrollService.MonthlyStats(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return fatal(fmt.Errorf("failed to load payroll stats: %w", err))
	}
	if stats.Headcount == 0 {
		return reprompt(textReply(fmt.Sprintf("📊 %d月尚無薪資記錄", now.Month()), menuButton))
	}

	text := fmt.Sprintf("📊 %d月薪資統計\n\n👥 計薪人數: %d人\n💰 薪資總額: %s\n🧾 扣除總額: %s\n💵 實發總額: %s",
		now.Month(), stats.Headcount, formatMoney(stats.TotalGross), formatMoney(stats.TotalDeductions), formatMoney(stats.TotalNet))
	return reprompt(textReply(text,
		say("👥 員工管理", "員工管理"),
		say("💼 設定薪資", "設定薪資"),
		say("✅ 請假審核", "請假審核"),
		menuButton,
	))
}

func (s *ConversationServiceImpl) employeeList(ctx context.Context, _ user.User) outcome {
	employees, err := s.users.ListActive(ctx)
	if err != nil {
		return fatal(fmt.Errorf("failed to list employees: %w", err))
	}
	if len(employees) == 0 {
		return reprompt(textReply("❌ 目前沒有員工資料", menuButton))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 員工清單（%d人）\n\n", len(employees))
	for i, e := range employees {
		fmt.Fprintf(&b, "%d. %s (%s) - %s - %s\n", i+1, e.DisplayName(), e.EmployeeCode, deref(e.Department, "未設定部門"), e.Role)
	}
	return reprompt(textReply(strings.TrimRight(b.String(), "\n"), say("💼 設定薪資", "設定薪資"), menuButton))
}
