package conversation

import (
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

type State string

const (
	StateNormal                    State = "normal"
	StateLeaveTypeSelection        State = "leave_type_selection"
	StateLeaveDateInput            State = "leave_date_input"
	StateLeaveReasonInput          State = "leave_reason_input"
	StateAdminEmployeeSelection    State = "admin_employee_selection"
	StateSalarySetting             State = "salary_setting"
	StateLeaveApprovalSelection    State = "leave_approval_selection"
	StateLeaveApprovalDecision     State = "leave_approval_decision"
	StateLeaveApprovalRejectReason State = "leave_approval_reject_reason"
)

// Wizard identifies which draft a state belongs to.
type Wizard string

const (
	WizardNone     Wizard = ""
	WizardLeave    Wizard = "leave"
	WizardSalary   Wizard = "salary"
	WizardApproval Wizard = "approval"
)

func (s State) Wizard() Wizard {
	switch s {
	case StateLeaveTypeSelection, StateLeaveDateInput, StateLeaveReasonInput:
		return WizardLeave
	case StateAdminEmployeeSelection, StateSalarySetting:
		return WizardSalary
	case StateLeaveApprovalSelection, StateLeaveApprovalDecision, StateLeaveApprovalRejectReason:
		return WizardApproval
	}
	return WizardNone
}

// SalaryStep is the sub-step inside StateSalarySetting.
type SalaryStep string

const (
	SalaryStepBaseSalary SalaryStep = "base_salary"
	SalaryStepHourlyRate SalaryStep = "hourly_rate"
	SalaryStepAllowances SalaryStep = "allowances"
	SalaryStepConfirm    SalaryStep = "confirm"
)

// Option is a numbered choice shown to the user; the index typed back is
// resolved against the list stored in the session.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type LeaveDraft struct {
	TypeOptions   []Option        `json:"type_options"`
	LeaveTypeID   string          `json:"leave_type_id,omitempty"`
	LeaveTypeName string          `json:"leave_type_name,omitempty"`
	StartDate     string          `json:"start_date,omitempty"`
	EndDate       string          `json:"end_date,omitempty"`
	StartTime     *string         `json:"start_time,omitempty"`
	EndTime       *string         `json:"end_time,omitempty"`
	TotalHours    decimal.Decimal `json:"total_hours"`
}

type SalaryDraft struct {
	Step            SalaryStep         `json:"step,omitempty"`
	EmployeeOptions []Option           `json:"employee_options"`
	TargetUserID    string             `json:"target_user_id,omitempty"`
	TargetName      string             `json:"target_name,omitempty"`
	BaseSalary      *decimal.Decimal   `json:"base_salary,omitempty"`
	HourlyRate      *decimal.Decimal   `json:"hourly_rate,omitempty"`
	Allowances      *salary.Allowances `json:"allowances,omitempty"`
}

type ApprovalDraft struct {
	Options       []Option `json:"options"`
	ApplicationID string   `json:"application_id,omitempty"`
	Summary       string   `json:"summary,omitempty"`
}

// Session is the single active conversation of a user. At most one draft is
// set and it always matches the wizard of State.
type Session struct {
	UserID    string         `json:"user_id"`
	State     State          `json:"state"`
	Leave     *LeaveDraft    `json:"leave,omitempty"`
	Salary    *SalaryDraft   `json:"salary,omitempty"`
	Approval  *ApprovalDraft `json:"approval,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewLeaveSession(userID string, options []Option, now time.Time) Session {
	return Session{
		UserID:    userID,
		State:     StateLeaveTypeSelection,
		Leave:     &LeaveDraft{TypeOptions: options},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewSalarySession(userID string, options []Option, now time.Time) Session {
	return Session{
		UserID:    userID,
		State:     StateAdminEmployeeSelection,
		Salary:    &SalaryDraft{EmployeeOptions: options},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewApprovalSession(userID string, options []Option, now time.Time) Session {
	return Session{
		UserID:    userID,
		State:     StateLeaveApprovalSelection,
		Approval:  &ApprovalDraft{Options: options},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the one-draft invariant.
func (s Session) Validate() error {
	set := 0
	if s.Leave != nil {
		set++
	}
	if s.Salary != nil {
		set++
	}
	if s.Approval != nil {
		set++
	}
	if set > 1 {
		return ErrMixedWizardData
	}

	switch s.State.Wizard() {
	case WizardLeave:
		if s.Leave == nil {
			return ErrDraftMissing
		}
	case WizardSalary:
		if s.Salary == nil {
			return ErrDraftMissing
		}
	case WizardApproval:
		if s.Approval == nil {
			return ErrDraftMissing
		}
	default:
		if set != 0 {
			return ErrMixedWizardData
		}
	}
	return nil
}

// Clone deep-copies the session so a step handler can build the next
// version without touching the stored one.
func (s Session) Clone() Session {
	c := s
	if s.Leave != nil {
		l := *s.Leave
		l.TypeOptions = append([]Option(nil), s.Leave.TypeOptions...)
		l.StartTime = cloneString(s.Leave.StartTime)
		l.EndTime = cloneString(s.Leave.EndTime)
		c.Leave = &l
	}
	if s.Salary != nil {
		sd := *s.Salary
		sd.EmployeeOptions = append([]Option(nil), s.Salary.EmployeeOptions...)
		sd.BaseSalary = cloneDecimal(s.Salary.BaseSalary)
		sd.HourlyRate = cloneDecimal(s.Salary.HourlyRate)
		if s.Salary.Allowances != nil {
			a := *s.Salary.Allowances
			sd.Allowances = &a
		}
		c.Salary = &sd
	}
	if s.Approval != nil {
		a := *s.Approval
		a.Options = append([]Option(nil), s.Approval.Options...)
		c.Approval = &a
	}
	return c
}

// Expired reports whether the session has been idle for at least ttl.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.UpdatedAt) >= ttl
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneDecimal(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Input is one inbound message. Exactly one of Text or Postback is set.
type Input struct {
	UserID   string `json:"user_id"`
	Text     string `json:"text,omitempty"`
	Postback string `json:"postback,omitempty"`
}

func (i Input) IsPostback() bool {
	return i.Postback != ""
}

// QuickReply is a choice the transport renders as a button. Either Text is
// sent back as a message or Postback as structured data.
type QuickReply struct {
	Label    string `json:"label"`
	Text     string `json:"text,omitempty"`
	Postback string `json:"postback,omitempty"`
}

// Reply is what the transport renders back to the user.
type Reply struct {
	Messages     []string     `json:"messages"`
	QuickReplies []QuickReply `json:"quick_replies,omitempty"`
	State        State        `json:"state"`
}
