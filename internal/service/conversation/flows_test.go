package conversation

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveWizard_HalfDay(t *testing.T) {
	f := newFixture(t)
	id := employeeUser.ID

	reply := f.say(id, "請假申請")
	assert.Equal(t, conversation.StateLeaveTypeSelection, reply.State)
	assert.Contains(t, reply.Messages[0], "1. 特休假")
	require.NotEmpty(t, reply.QuickReplies)
	assert.Equal(t, "leave_type_type-annual", reply.QuickReplies[0].Postback)

	reply = f.say(id, "１")
	assert.Equal(t, conversation.StateLeaveDateInput, reply.State)
	assert.Contains(t, reply.Messages[0], "已選擇：特休假")

	reply = f.say(id, "2024-07-15 上午")
	assert.Equal(t, conversation.StateLeaveReasonInput, reply.State)
	assert.Contains(t, reply.Messages[0], "2024-07-15 (09:00-13:00)")
	assert.Contains(t, reply.Messages[0], "4小時")

	reply = f.say(id, "身體不適需要休息")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Contains(t, reply.Messages[0], "請假申請已提交成功")

	require.Len(t, f.leave.submitted, 1)
	req := f.leave.submitted[0]
	assert.Equal(t, id, req.UserID)
	assert.Equal(t, "type-annual", req.LeaveTypeID)
	assert.Equal(t, "2024-07-15", req.StartDate)
	assert.Equal(t, "2024-07-15", req.EndDate)
	require.NotNil(t, req.StartTime)
	assert.Equal(t, "09:00", *req.StartTime)
	assert.Equal(t, "13:00", *req.EndTime)
	assert.Equal(t, "身體不適需要休息", req.Reason)

	_, ok := f.session(id)
	assert.False(t, ok)
}

func TestLeaveWizard_PostbackAndReselectDates(t *testing.T) {
	f := newFixture(t)
	id := employeeUser.ID

	f.say(id, "請假申請")
	reply := f.press(id, "leave_type_type-personal")
	assert.Equal(t, conversation.StateLeaveDateInput, reply.State)

	reply = f.say(id, "2024-07-15 ～ 2024-07-17")
	assert.Equal(t, conversation.StateLeaveReasonInput, reply.State)
	assert.Contains(t, reply.Messages[0], "24小時")

	reply = f.say(id, "重新選擇")
	assert.Equal(t, conversation.StateLeaveDateInput, reply.State)
	sess, ok := f.session(id)
	require.True(t, ok)
	assert.Equal(t, "type-personal", sess.Leave.LeaveTypeID)
	assert.Empty(t, sess.Leave.StartDate)
	assert.True(t, sess.Leave.TotalHours.IsZero())

	f.say(id, "2024-07-18")
	f.say(id, "處理家庭事務")
	require.Len(t, f.leave.submitted, 1)
	assert.Equal(t, "2024-07-18", f.leave.submitted[0].StartDate)
	assert.Nil(t, f.leave.submitted[0].StartTime)
}

func TestLeaveWizard_UnpaddedDateAndLongChineseReason(t *testing.T) {
	f := newFixture(t)
	id := employeeUser.ID

	f.say(id, "請假申請")
	f.press(id, "leave_type_type-personal")

	reply := f.say(id, "2024-7-5")
	assert.Equal(t, conversation.StateLeaveReasonInput, reply.State)

	reason := strings.Repeat("家", 300)
	reply = f.say(id, reason)
	assert.Equal(t, conversation.StateNormal, reply.State)

	require.Len(t, f.leave.submitted, 1)
	assert.Equal(t, "2024-07-05", f.leave.submitted[0].StartDate)
	assert.Equal(t, reason, f.leave.submitted[0].Reason)
}

func TestLeaveWizard_ReasonTooLongReprompts(t *testing.T) {
	f := newFixture(t)
	id := employeeUser.ID

	f.say(id, "請假申請")
	f.press(id, "leave_type_type-personal")
	f.say(id, "2024-07-15")

	reply := f.say(id, strings.Repeat("家", 501))
	assert.Equal(t, conversation.StateLeaveReasonInput, reply.State)
	assert.Empty(t, f.leave.submitted)
}

func TestLeaveWizard_StalePostback(t *testing.T) {
	f := newFixture(t)
	reply := f.press(employeeUser.ID, "leave_type_type-annual")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Contains(t, reply.Messages[0], "已失效")

	f.say(employeeUser.ID, "請假申請")
	reply = f.press(employeeUser.ID, "leave_type_unknown")
	assert.Equal(t, conversation.StateLeaveTypeSelection, reply.State)
}

func TestLeaveWizard_BadDatesReprompt(t *testing.T) {
	f := newFixture(t)
	id := employeeUser.ID
	f.say(id, "請假申請")
	f.say(id, "1")

	for _, text := range []string{"明天", "2024-02-30", "2024-07-15~2024-07-17 上午", "2024-07-17~2024-07-15"} {
		reply := f.say(id, text)
		assert.Equal(t, conversation.StateLeaveDateInput, reply.State, text)
	}
	reply := f.say(id, "2024-07-17~2024-07-15")
	assert.Contains(t, reply.Messages[0], "結束日期不能早於開始日期")
}

func TestLeaveWizard_RuleViolationEndsWizard(t *testing.T) {
	f := newFixture(t)
	f.leave.submitErrs = []error{leave.ErrOverlappingLeave}
	userID := reachState(t, f, conversation.StateLeaveReasonInput)

	reply := f.say(userID, "個人休假安排")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Contains(t, reply.Messages[0], "此期間已有請假申請")
	_, ok := f.session(userID)
	assert.False(t, ok)
}

func TestLeaveWizard_TransientFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.leave.submitErrs = []error{errors.New("connection reset")}
	userID := reachState(t, f, conversation.StateLeaveReasonInput)

	reply := f.say(userID, "個人休假安排")
	assert.Equal(t, conversation.StateLeaveReasonInput, reply.State)
	assert.Empty(t, f.leave.submitted)

	reply = f.say(userID, "個人休假安排")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Len(t, f.leave.submitted, 1)
}

func TestSalaryWizard(t *testing.T) {
	f := newFixture(t)
	id := hrUser.ID

	reply := f.say(id, "設定薪資")
	assert.Equal(t, conversation.StateAdminEmployeeSelection, reply.State)
	assert.Contains(t, reply.Messages[0], "王小明 (E001)")

	reply = f.say(id, "1")
	assert.Equal(t, conversation.StateSalarySetting, reply.State)

	reply = f.say(id, "abc")
	assert.Contains(t, reply.Messages[0], "正確的數字格式")

	f.say(id, "30,000")
	f.say(id, "200")

	reply = f.say(id, "5000,2000")
	assert.Contains(t, reply.Messages[0], "至少4個")

	reply = f.say(id, "5000，2000，3000，0")
	assert.Contains(t, reply.Messages[0], "基本月薪：$30,000")
	sess, _ := f.session(id)
	assert.Equal(t, conversation.SalaryStepConfirm, sess.Salary.Step)

	reply = f.say(id, "好")
	assert.Equal(t, conversation.StateSalarySetting, reply.State)
	assert.Empty(t, f.salary.set)

	reply = f.say(id, "確認")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Contains(t, reply.Messages[0], "薪資設定完成")

	require.Len(t, f.salary.set, 1)
	req := f.salary.set[0]
	assert.Equal(t, employeeUser.ID, req.UserID)
	assert.Equal(t, hrUser.ID, req.CreatedBy)
	assert.True(t, req.BaseSalary.Equal(decimal.NewFromInt(30000)))
	assert.True(t, req.HourlyRate.Equal(decimal.NewFromInt(200)))
	assert.True(t, req.Allowances.Total().Equal(decimal.NewFromInt(10000)))
}

func TestSalaryWizard_HourlyNeedsRate(t *testing.T) {
	f := newFixture(t)
	userID := reachState(t, f, conversation.StateSalarySetting)

	f.say(userID, "0")
	reply := f.say(userID, "0")
	assert.Contains(t, reply.Messages[0], "時薪必須大於 0")
	sess, _ := f.session(userID)
	assert.Equal(t, conversation.SalaryStepHourlyRate, sess.Salary.Step)
}

func TestSalaryWizard_SaveFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.salary.errs = []error{errors.New("deadlock")}
	userID := reachState(t, f, conversation.StateSalarySetting)
	f.say(userID, "30000")
	f.say(userID, "183")
	f.say(userID, "0,0,0,0")

	reply := f.say(userID, "確認")
	assert.Equal(t, conversation.StateSalarySetting, reply.State)

	reply = f.say(userID, "confirm")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Len(t, f.salary.set, 1)
}

func TestSalaryWizard_InvalidDataEndsWizard(t *testing.T) {
	f := newFixture(t)
	f.salary.errs = []error{salary.ErrNegativeAmount}
	userID := reachState(t, f, conversation.StateSalarySetting)
	f.say(userID, "30000")
	f.say(userID, "183")
	f.say(userID, "0,0,0,0")

	reply := f.say(userID, "確認")
	assert.Equal(t, conversation.StateNormal, reply.State)
	_, ok := f.session(userID)
	assert.False(t, ok)
}

func TestSalaryWizard_RequiresCapability(t *testing.T) {
	f := newFixture(t)
	reply := f.say(employeeUser.ID, "設定薪資")
	assert.Equal(t, permissionDenied, reply.Messages[0])
	_, ok := f.session(employeeUser.ID)
	assert.False(t, ok)
}

func TestApprovalWizard_Approve(t *testing.T) {
	f := newFixture(t)
	app := f.leave.addPending(employeeUser.ID, employeeUser.Name)

	reply := f.say(managerUser.ID, "請假審核")
	assert.Contains(t, reply.Messages[0], "王小明 - 特休假")

	reply = f.say(managerUser.ID, "1")
	assert.Equal(t, conversation.StateLeaveApprovalDecision, reply.State)
	assert.Contains(t, reply.Messages[0], "家庭旅遊")
	require.Len(t, reply.QuickReplies, 3)
	assert.Equal(t, "approve_leave_"+app.ID+"_yes", reply.QuickReplies[0].Postback)

	reply = f.say(managerUser.ID, "再想想")
	assert.Equal(t, conversation.StateLeaveApprovalDecision, reply.State)

	reply = f.say(managerUser.ID, "同意")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Contains(t, reply.Messages[0], "已核准")

	require.Len(t, f.leave.decided, 1)
	assert.True(t, f.leave.decided[0].Approved)
	assert.Equal(t, managerUser.ID, f.leave.decided[0].ApproverID)
}

func TestApprovalWizard_RejectWithReason(t *testing.T) {
	f := newFixture(t)
	userID := reachState(t, f, conversation.StateLeaveApprovalRejectReason)

	reply := f.say(userID, "業務繁忙需要人力支援")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Contains(t, reply.Messages[0], "駁回原因：業務繁忙需要人力支援")

	require.Len(t, f.leave.decided, 1)
	d := f.leave.decided[0]
	assert.False(t, d.Approved)
	require.NotNil(t, d.RejectReason)
	assert.Equal(t, "業務繁忙需要人力支援", *d.RejectReason)
}

func TestApprovalWizard_OwnApplicationsAreHidden(t *testing.T) {
	f := newFixture(t)
	f.leave.addPending(managerUser.ID, managerUser.Name)

	reply := f.say(managerUser.ID, "請假審核")
	assert.Contains(t, reply.Messages[0], "目前沒有待審核")
	_, ok := f.session(managerUser.ID)
	assert.False(t, ok)
}

func TestApprovalWizard_OwnApplicationsDoNotCrowdOutOthers(t *testing.T) {
	f := newFixture(t)
	f.leave.addPending(managerUser.ID, managerUser.Name)
	for i := 0; i < maxPendingShown; i++ {
		f.leave.addPending(employeeUser.ID, employeeUser.Name)
	}

	reply := f.say(managerUser.ID, "請假審核")
	assert.Contains(t, reply.Messages[0], fmt.Sprintf("%d. ", maxPendingShown))
	assert.NotContains(t, reply.Messages[0], managerUser.Name)
}

func TestApprovalWizard_AlreadyDecidedElsewhere(t *testing.T) {
	f := newFixture(t)
	app := f.leave.addPending(employeeUser.ID, employeeUser.Name)
	f.say(managerUser.ID, "請假審核")
	f.say(managerUser.ID, "1")

	// HR decides first through a button
	reply := f.press(hrUser.ID, approvePostback(app.ID, true))
	assert.Contains(t, reply.Messages[0], "已核准")

	reply = f.say(managerUser.ID, "同意")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Equal(t, alreadyProcessed, reply.Messages[0])
	assert.Len(t, f.leave.decided, 1)
}

func TestApprovePostback(t *testing.T) {
	f := newFixture(t)
	app := f.leave.addPending(employeeUser.ID, employeeUser.Name)

	reply := f.press(employeeUser.ID, approvePostback(app.ID, true))
	assert.Equal(t, permissionDenied, reply.Messages[0])

	reply = f.press(managerUser.ID, approvePostback(app.ID, false))
	assert.Equal(t, conversation.StateLeaveApprovalRejectReason, reply.State)

	reply = f.say(managerUser.ID, "請假資料不完整")
	assert.Equal(t, conversation.StateNormal, reply.State)
	require.Len(t, f.leave.decided, 1)
	assert.Equal(t, app.ID, f.leave.decided[0].ApplicationID)

	reply = f.press(managerUser.ID, approvePostback(app.ID, false))
	assert.Equal(t, alreadyProcessed, reply.Messages[0])

	reply = f.press(managerUser.ID, "approve_leave_not-a-uuid_yes")
	assert.Contains(t, reply.Messages[0], "未知的操作")
}

func TestApprovePostback_DuringOtherWizard(t *testing.T) {
	f := newFixture(t)
	app := f.leave.addPending(employeeUser.ID, employeeUser.Name)
	f.say(hrUser.ID, "設定薪資")

	reply := f.press(hrUser.ID, approvePostback(app.ID, true))
	assert.Equal(t, conversation.StateAdminEmployeeSelection, reply.State)
	assert.Empty(t, f.leave.decided)
}

func TestParseApprovePostback(t *testing.T) {
	id := "0192f000-0000-7000-8000-000000000001"
	tests := []struct {
		data     string
		wantID   string
		approved bool
		ok       bool
	}{
		{"approve_leave_" + id + "_yes", id, true, true},
		{"approve_leave_" + id + "_no", id, false, true},
		{"approve_leave_" + id + "_maybe", "", false, false},
		{"approve_leave__yes", "", false, false},
		{"approve_leave_yes", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			gotID, approved, ok := parseApprovePostback(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.wantID, gotID)
			assert.Equal(t, tt.approved, approved)
		})
	}
}
