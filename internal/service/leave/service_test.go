package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTypeRepo struct {
	types map[string]leave.LeaveType
}

func (f *fakeTypeRepo) GetByID(_ context.Context, id string) (leave.LeaveType, error) {
	t, ok := f.types[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return t, nil
}

func (f *fakeTypeRepo) ListActive(context.Context) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	for _, t := range f.types {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

type memApplicationRepo struct {
	mu   sync.Mutex
	apps map[string]leave.Application
}

func (m *memApplicationRepo) LockUser(context.Context, string) error { return nil }

func (m *memApplicationRepo) Create(_ context.Context, app leave.Application) (leave.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[app.ID] = app
	return app, nil
}

func (m *memApplicationRepo) GetByID(_ context.Context, id string) (leave.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return leave.Application{}, leave.ErrLeaveRequestNotFound
	}
	return app, nil
}

func (m *memApplicationRepo) ListByUser(_ context.Context, userID string, limit int) ([]leave.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []leave.Application
	for _, a := range m.apps {
		if a.UserID == userID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memApplicationRepo) ListPending(_ context.Context, excludeUserID string, limit int) ([]leave.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []leave.Application
	for _, a := range m.apps {
		if a.IsPending() && a.UserID != excludeUserID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memApplicationRepo) HasOverlap(_ context.Context, userID string, start, end time.Time, startTime, endTime *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := leave.ClockWindow(startTime, endTime)
	for _, a := range m.apps {
		live := a.Status == leave.StatusPending || a.Status == leave.StatusApproved
		sameDates := !a.StartDate.After(end) && !a.EndDate.Before(start)
		if a.UserID == userID && live && sameDates && leave.ClockWindow(a.StartTime, a.EndTime).Overlaps(window) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memApplicationRepo) SumHours(_ context.Context, userID, leaveTypeID string, year int) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, a := range m.apps {
		live := a.Status == leave.StatusPending || a.Status == leave.StatusApproved
		if a.UserID == userID && a.LeaveTypeID == leaveTypeID && live && a.StartDate.Year() == year {
			total = total.Add(a.TotalHours)
		}
	}
	return total, nil
}

func (m *memApplicationRepo) Decide(_ context.Context, id string, status leave.ApplicationStatus, approverID string, rejectReason *string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok || a.Status != leave.StatusPending {
		return false, nil
	}
	a.Status = status
	a.ApprovedBy = &approverID
	a.ApprovedAt = &at
	a.RejectReason = rejectReason
	m.apps[id] = a
	return true, nil
}

func (m *memApplicationRepo) Cancel(_ context.Context, id, userID string, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok || a.UserID != userID || a.Status != leave.StatusPending {
		return false, nil
	}
	a.Status = leave.StatusCancelled
	m.apps[id] = a
	return true, nil
}

type fakeUserRepo struct {
	user.UserRepository
	users map[string]user.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListByRoles(_ context.Context, roles []user.Role) ([]user.User, error) {
	var out []user.User
	for _, u := range f.users {
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type passTx struct {
	mu sync.Mutex
}

func (p *passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(ctx)
}

type recordingNotifier struct {
	notification.Service
	mu   sync.Mutex
	sent []notification.CreateNotificationRequest
	err  error // returned for every request when set
}

func (r *recordingNotifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, req)
	return nil
}

func (r *recordingNotifier) QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error {
	var errs []error
	for _, req := range reqs {
		if err := r.QueueNotification(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	annualID   = "0192f000-0000-7000-8000-000000000001"
	inactiveID = "0192f000-0000-7000-8000-000000000009"
)

type leaveFixture struct {
	apps     *memApplicationRepo
	notifier *recordingNotifier
	svc      *LeaveServiceImpl
}

func newLeaveFixture() *leaveFixture {
	types := &fakeTypeRepo{types: map[string]leave.LeaveType{
		annualID:   {ID: annualID, Code: "ANNUAL", Name: "特休假", IsPaid: true, MaxDaysPerYear: 3, IsActive: true},
		inactiveID: {ID: inactiveID, Code: "OLD", Name: "舊假別", IsActive: false},
	}}
	users := &fakeUserRepo{users: map[string]user.User{
		"emp":  {ID: "emp", Name: "王小明", Role: user.RoleEmployee, IsActive: true},
		"mgr":  {ID: "mgr", Name: "陳經理", Role: user.RoleManager, IsActive: true},
		"emp2": {ID: "emp2", Name: "李小華", Role: user.RoleEmployee, IsActive: true},
	}}
	f := &leaveFixture{
		apps:     &memApplicationRepo{apps: make(map[string]leave.Application)},
		notifier: &recordingNotifier{},
	}
	f.svc = NewLeaveService(&passTx{}, types, f.apps, users, f.notifier).(*LeaveServiceImpl)
	f.svc.now = func() time.Time { return time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC) }
	return f
}

func submit(start, end string) leave.SubmitLeaveRequest {
	return leave.SubmitLeaveRequest{
		UserID:      "emp",
		LeaveTypeID: annualID,
		StartDate:   start,
		EndDate:     end,
		Reason:      "家庭旅遊",
	}
}

func TestSubmitLeave_Success(t *testing.T) {
	f := newLeaveFixture()

	resp, err := f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-16"))

	require.NoError(t, err)
	assert.True(t, resp.TotalHours.Equal(decimal.NewFromInt(16)))
	assert.Equal(t, "pending", resp.Status)
	_, err = uuid.Parse(resp.ApplicationID)
	assert.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "mgr", f.notifier.sent[0].RecipientID)
	assert.Equal(t, notification.TypeLeaveSubmitted, f.notifier.sent[0].Type)
}

func TestSubmitLeave_NotifyFailureKeepsApplication(t *testing.T) {
	f := newLeaveFixture()
	f.notifier.err = notification.ErrQueueFull

	resp, err := f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-15"))

	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, leave.StatusPending, f.apps.apps[resp.ApplicationID].Status)
}

func TestSubmitLeave_HalfDay(t *testing.T) {
	f := newLeaveFixture()
	req := submit("2024-07-15", "2024-07-15")
	start, end := "13:00", "17:00"
	req.StartTime, req.EndTime = &start, &end

	resp, err := f.svc.SubmitLeave(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, resp.TotalHours.Equal(decimal.NewFromInt(4)))
}

func TestSubmitLeave_Overlap(t *testing.T) {
	f := newLeaveFixture()
	_, err := f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-16"))
	require.NoError(t, err)

	_, err = f.svc.SubmitLeave(context.Background(), submit("2024-07-16", "2024-07-16"))

	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)
}

func halfDay(date, start, end string) leave.SubmitLeaveRequest {
	req := submit(date, date)
	req.StartTime, req.EndTime = &start, &end
	return req
}

func TestSubmitLeave_HalfDaysOfOneDate(t *testing.T) {
	f := newLeaveFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitLeave(ctx, halfDay("2024-07-15", "09:00", "13:00"))
	require.NoError(t, err)

	_, err = f.svc.SubmitLeave(ctx, halfDay("2024-07-15", "13:00", "17:00"))
	require.NoError(t, err, "afternoon does not collide with the morning")
	assert.Len(t, f.apps.apps, 2)

	_, err = f.svc.SubmitLeave(ctx, halfDay("2024-07-15", "09:00", "13:00"))
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)

	_, err = f.svc.SubmitLeave(ctx, submit("2024-07-15", "2024-07-15"))
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave, "a full day covers both halves")
}

func TestSubmitLeave_HalfDayInsideFullDayLeave(t *testing.T) {
	f := newLeaveFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitLeave(ctx, submit("2024-07-15", "2024-07-16"))
	require.NoError(t, err)

	_, err = f.svc.SubmitLeave(ctx, halfDay("2024-07-16", "13:00", "17:00"))
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)
}

func TestListPending_LeavesOutApprover(t *testing.T) {
	f := newLeaveFixture()
	ctx := context.Background()
	_, err := f.svc.SubmitLeave(ctx, submit("2024-07-15", "2024-07-15"))
	require.NoError(t, err)

	forManager, err := f.svc.ListPending(ctx, "mgr", 0)
	require.NoError(t, err)
	assert.Len(t, forManager, 1)

	forApplicant, err := f.svc.ListPending(ctx, "emp", 0)
	require.NoError(t, err)
	assert.Empty(t, forApplicant)
}

func TestSubmitLeave_Quota(t *testing.T) {
	f := newLeaveFixture()
	_, err := f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-16"))
	require.NoError(t, err)

	_, err = f.svc.SubmitLeave(context.Background(), submit("2024-08-01", "2024-08-02"))

	assert.ErrorIs(t, err, leave.ErrInsufficientQuota)
}

func TestSubmitLeave_InactiveType(t *testing.T) {
	f := newLeaveFixture()
	req := submit("2024-07-15", "2024-07-15")
	req.LeaveTypeID = inactiveID

	_, err := f.svc.SubmitLeave(context.Background(), req)

	assert.ErrorIs(t, err, leave.ErrLeaveTypeInactive)
}

func TestSubmitLeave_ConcurrentSameDatesOnlyOneWins(t *testing.T) {
	f := newLeaveFixture()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-15"))
		}()
	}
	wg.Wait()

	var ok, overlap int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, leave.ErrOverlappingLeave):
			overlap++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, overlap)
	assert.Len(t, f.apps.apps, 1)
}

func TestDecideLeave_ExactlyOnce(t *testing.T) {
	f := newLeaveFixture()
	resp, err := f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-15"))
	require.NoError(t, err)

	app, err := f.svc.DecideLeave(context.Background(), leave.DecideLeaveRequest{
		ApplicationID: resp.ApplicationID,
		ApproverID:    "mgr",
		Approved:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, app.Status)
	require.NotNil(t, app.ApprovedBy)
	assert.Equal(t, "mgr", *app.ApprovedBy)

	reason := "人力不足"
	_, err = f.svc.DecideLeave(context.Background(), leave.DecideLeaveRequest{
		ApplicationID: resp.ApplicationID,
		ApproverID:    "mgr",
		RejectReason:  &reason,
	})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, "emp", last.RecipientID)
	assert.Equal(t, notification.TypeLeaveApproved, last.Type)
}

func TestDecideLeave_RequiresCapability(t *testing.T) {
	f := newLeaveFixture()
	resp, err := f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-15"))
	require.NoError(t, err)

	_, err = f.svc.DecideLeave(context.Background(), leave.DecideLeaveRequest{
		ApplicationID: resp.ApplicationID,
		ApproverID:    "emp2",
		Approved:      true,
	})

	assert.ErrorIs(t, err, user.ErrPermissionDenied)
	assert.Equal(t, leave.StatusPending, f.apps.apps[resp.ApplicationID].Status)
}

func TestDecideLeave_NoSelfApproval(t *testing.T) {
	f := newLeaveFixture()
	req := submit("2024-07-15", "2024-07-15")
	req.UserID = "mgr"
	resp, err := f.svc.SubmitLeave(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.DecideLeave(context.Background(), leave.DecideLeaveRequest{
		ApplicationID: resp.ApplicationID,
		ApproverID:    "mgr",
		Approved:      true,
	})

	assert.ErrorIs(t, err, leave.ErrSelfApproval)
}

func TestCancelLeave(t *testing.T) {
	f := newLeaveFixture()
	resp, err := f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-15"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.CancelLeave(context.Background(), resp.ApplicationID, "emp2"), leave.ErrNotApplicationOwner)
	require.NoError(t, f.svc.CancelLeave(context.Background(), resp.ApplicationID, "emp"))
	assert.ErrorIs(t, f.svc.CancelLeave(context.Background(), resp.ApplicationID, "emp"), leave.ErrLeaveRequestAlreadyProcessed)

	// cancelled leave no longer blocks the dates
	_, err = f.svc.SubmitLeave(context.Background(), submit("2024-07-15", "2024-07-15"))
	assert.NoError(t, err)
}
