package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users []user.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmployeeCode(_ context.Context, code string) (user.User, error) {
	for _, u := range f.users {
		if u.EmployeeCode == code {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) ListActive(context.Context) ([]user.User, error) {
	var out []user.User
	for _, u := range f.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListByRoles(context.Context, []user.Role) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Create(_ context.Context, u user.User) (user.User, error) {
	f.users = append(f.users, u)
	return u, nil
}

// fakeAttendance records clock events and tracks how many run at once.
type fakeAttendance struct {
	mu          sync.Mutex
	events      []attendance.ClockRequest
	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func (f *fakeAttendance) RecordClockEvent(_ context.Context, req attendance.ClockRequest) (attendance.ClockResponse, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	f.events = append(f.events, req)
	return attendance.ClockResponse{
		RecordID:  uuid.NewString(),
		Action:    attendance.Action(req.Action),
		Status:    attendance.StatusNormal,
		Timestamp: time.Now(),
	}, nil
}

func (f *fakeAttendance) Summarize(_ context.Context, userID string, year, month int) (attendance.MonthlySummaryResponse, error) {
	return attendance.MonthlySummaryResponse{
		UserID: userID, Year: year, Month: month, LateCount: 1,
		Summary: attendance.WorkHourSummary{
			WorkDays:      1,
			TotalHours:    decimal.NewFromInt(10),
			RegularHours:  decimal.NewFromInt(8),
			OvertimeHours: decimal.NewFromInt(2),
		},
	}, nil
}

type fakePayroll struct {
	slip    payroll.Payslip
	err     error
	history []payroll.PayrollRecord
	stats   payroll.Stats
}

func (f *fakePayroll) GetMonthlyPayroll(_ context.Context, req payroll.PeriodRequest) (payroll.Payslip, error) {
	if f.err != nil {
		return payroll.Payslip{}, f.err
	}
	return f.slip, nil
}

func (f *fakePayroll) ListHistory(context.Context, string, int) ([]payroll.PayrollRecord, error) {
	return f.history, nil
}

func (f *fakePayroll) MonthlyStats(_ context.Context, year, month int) (payroll.Stats, error) {
	return f.stats, nil
}

func (f *fakePayroll) CloseMonth(_ context.Context, year, month int) (payroll.CloseResult, error) {
	return payroll.CloseResult{PeriodYear: year, PeriodMonth: month}, nil
}

// fakeLeave is an in-memory leave service. submitErrs are returned, in
// order, before submissions start succeeding.
type fakeLeave struct {
	mu         sync.Mutex
	types      []leave.LeaveType
	apps       map[string]leave.Application
	submitted  []leave.SubmitLeaveRequest
	decided    []leave.DecideLeaveRequest
	submitErrs []error
}

func newFakeLeave() *fakeLeave {
	return &fakeLeave{
		types: []leave.LeaveType{
			{ID: "type-annual", Code: "ANNUAL", Name: "特休假", IsPaid: true, MaxDaysPerYear: 14, IsActive: true},
			{ID: "type-personal", Code: "PERSONAL", Name: "事假", IsPaid: false, MaxDaysPerYear: 14, IsActive: true},
		},
		apps: make(map[string]leave.Application),
	}
}

func (f *fakeLeave) addPending(userID, userName string) leave.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, typeName := userName, "特休假"
	app := leave.Application{
		ID:            uuid.Must(uuid.NewV7()).String(),
		UserID:        userID,
		LeaveTypeID:   "type-annual",
		StartDate:     time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC),
		TotalHours:    decimal.NewFromInt(16),
		Reason:        "家庭旅遊",
		Status:        leave.StatusPending,
		UserName:      &name,
		LeaveTypeName: &typeName,
	}
	f.apps[app.ID] = app
	return app
}

func (f *fakeLeave) ListLeaveTypes(context.Context) ([]leave.LeaveType, error) {
	return f.types, nil
}

func (f *fakeLeave) SubmitLeave(_ context.Context, req leave.SubmitLeaveRequest) (leave.SubmitLeaveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		return leave.SubmitLeaveResponse{}, err
	}
	f.submitted = append(f.submitted, req)
	return leave.SubmitLeaveResponse{
		ApplicationID: uuid.Must(uuid.NewV7()).String(),
		TotalHours:    decimal.NewFromInt(4),
		Status:        string(leave.StatusPending),
	}, nil
}

func (f *fakeLeave) DecideLeave(_ context.Context, req leave.DecideLeaveRequest) (leave.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[req.ApplicationID]
	if !ok {
		return leave.Application{}, leave.ErrLeaveRequestNotFound
	}
	if app.UserID == req.ApproverID {
		return leave.Application{}, leave.ErrSelfApproval
	}
	if !app.IsPending() {
		return leave.Application{}, leave.ErrLeaveRequestAlreadyProcessed
	}
	app.Status = leave.StatusApproved
	if !req.Approved {
		app.Status = leave.StatusRejected
		app.RejectReason = req.RejectReason
	}
	f.apps[app.ID] = app
	f.decided = append(f.decided, req)
	return app, nil
}

func (f *fakeLeave) CancelLeave(context.Context, string, string) error { return nil }

func (f *fakeLeave) GetApplication(_ context.Context, id string) (leave.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return leave.Application{}, leave.ErrLeaveRequestNotFound
	}
	return app, nil
}

func (f *fakeLeave) ListMyApplications(_ context.Context, userID string, limit int) ([]leave.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.Application
	for _, a := range f.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLeave) ListPending(_ context.Context, approverID string, limit int) ([]leave.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.Application
	for _, a := range f.apps {
		if a.IsPending() && a.UserID != approverID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeSalary struct {
	mu   sync.Mutex
	set  []salary.SetSalaryRequest
	errs []error
}

func (f *fakeSalary) ResolveSalary(_ context.Context, userID string, _ time.Time) (salary.SalaryStructure, error) {
	return salary.DefaultStructure(userID), nil
}

func (f *fakeSalary) ResolveDeduction(_ context.Context, userID string, _ time.Time) (salary.DeductionProfile, error) {
	return salary.DefaultDeductionProfile(userID), nil
}

func (f *fakeSalary) SetSalary(_ context.Context, req salary.SetSalaryRequest) (salary.SalaryStructure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return salary.SalaryStructure{}, err
	}
	f.set = append(f.set, req)
	return salary.SalaryStructure{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		BaseSalary:    req.BaseSalary,
		HourlyRate:    req.HourlyRate,
		Allowances:    req.Allowances,
		EffectiveDate: time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
		Status:        salary.StatusActive,
	}, nil
}

func (f *fakeSalary) SetDeductionProfile(_ context.Context, req salary.SetDeductionProfileRequest) (salary.DeductionProfile, error) {
	return salary.DeductionProfile{UserID: req.UserID}, nil
}

// busyStore never grants the lock.
type busyStore struct {
	conversation.SessionStore
	attempts int
}

func (b *busyStore) Lock(context.Context, string) (func(), error) {
	b.attempts++
	return nil, conversation.ErrSessionBusy
}

var (
	employeeUser = user.User{ID: "U-emp", EmployeeCode: "E001", Name: "王小明", Role: user.RoleEmployee, IsActive: true}
	managerUser  = user.User{ID: "U-mgr", EmployeeCode: "M001", Name: "陳經理", Role: user.RoleManager, IsActive: true}
	hrUser       = user.User{ID: "U-hr", EmployeeCode: "H001", Name: "林人資", Role: user.RoleHR, IsActive: true}
	retiredUser  = user.User{ID: "U-old", EmployeeCode: "E099", Name: "離職員工", Role: user.RoleEmployee, IsActive: false}
)

type fixture struct {
	t          *testing.T
	svc        *ConversationServiceImpl
	store      *session.MemoryStore
	attendance *fakeAttendance
	payroll    *fakePayroll
	leave      *fakeLeave
	salary     *fakeSalary
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:          t,
		store:      session.NewMemoryStore(session.Config{TTL: 30 * time.Minute, LockTimeout: 5 * time.Second}),
		attendance: &fakeAttendance{},
		payroll:    &fakePayroll{},
		leave:      newFakeLeave(),
		salary:     &fakeSalary{},
	}
	users := &fakeUserRepo{users: []user.User{employeeUser, managerUser, hrUser, retiredUser}}
	f.svc = NewConversationService(f.store, users, f.attendance, f.payroll, f.leave, f.salary, time.UTC).(*ConversationServiceImpl)
	return f
}

func (f *fixture) say(userID, text string) conversation.Reply {
	reply, err := f.svc.HandleTurn(context.Background(), conversation.Input{UserID: userID, Text: text})
	require.NoError(f.t, err)
	return reply
}

func (f *fixture) press(userID, data string) conversation.Reply {
	reply, err := f.svc.HandleTurn(context.Background(), conversation.Input{UserID: userID, Postback: data})
	require.NoError(f.t, err)
	return reply
}

func (f *fixture) session(userID string) (conversation.Session, bool) {
	s, ok, err := f.store.Get(context.Background(), userID)
	require.NoError(f.t, err)
	return s, ok
}

// rawStore serves a fixed session from Get and records deletes.
type rawStore struct {
	*session.MemoryStore
	override *conversation.Session
	deleted  bool
}

func (r *rawStore) Get(ctx context.Context, userID string) (conversation.Session, bool, error) {
	if r.override != nil && !r.deleted {
		return *r.override, true, nil
	}
	return r.MemoryStore.Get(ctx, userID)
}

func (r *rawStore) Delete(ctx context.Context, userID string) error {
	r.deleted = true
	return r.MemoryStore.Delete(ctx, userID)
}
