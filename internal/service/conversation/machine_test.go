package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTurn_EmptyInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleTurn(context.Background(), conversation.Input{UserID: employeeUser.ID, Text: "   "})
	assert.ErrorIs(t, err, conversation.ErrEmptyInput)
}

func TestHandleTurn_UnknownAndInactiveUsers(t *testing.T) {
	f := newFixture(t)

	reply := f.say("U-nobody", "你好")
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.Contains(t, reply.Messages[0], "尚未找到")

	reply = f.say(retiredUser.ID, "上班")
	assert.Contains(t, reply.Messages[0], "停用")
	assert.Empty(t, f.attendance.events)
}

// reachState drives a user into the given state through the chat itself.
func reachState(t *testing.T, f *fixture, state conversation.State) string {
	t.Helper()
	switch state {
	case conversation.StateLeaveTypeSelection:
		f.say(employeeUser.ID, "請假申請")
		return employeeUser.ID
	case conversation.StateLeaveDateInput:
		f.say(employeeUser.ID, "請假申請")
		f.say(employeeUser.ID, "1")
		return employeeUser.ID
	case conversation.StateLeaveReasonInput:
		f.say(employeeUser.ID, "請假申請")
		f.say(employeeUser.ID, "1")
		f.say(employeeUser.ID, "2024-07-15")
		return employeeUser.ID
	case conversation.StateAdminEmployeeSelection:
		f.say(hrUser.ID, "設定薪資")
		return hrUser.ID
	case conversation.StateSalarySetting:
		f.say(hrUser.ID, "設定薪資")
		f.say(hrUser.ID, "1")
		return hrUser.ID
	case conversation.StateLeaveApprovalSelection:
		f.leave.addPending(employeeUser.ID, employeeUser.Name)
		f.say(managerUser.ID, "請假審核")
		return managerUser.ID
	case conversation.StateLeaveApprovalDecision:
		f.leave.addPending(employeeUser.ID, employeeUser.Name)
		f.say(managerUser.ID, "請假審核")
		f.say(managerUser.ID, "1")
		return managerUser.ID
	case conversation.StateLeaveApprovalRejectReason:
		f.leave.addPending(employeeUser.ID, employeeUser.Name)
		f.say(managerUser.ID, "請假審核")
		f.say(managerUser.ID, "1")
		f.say(managerUser.ID, "拒絕")
		return managerUser.ID
	}
	t.Fatalf("no path to state %s", state)
	return ""
}

func TestCancel_FromEveryState(t *testing.T) {
	states := []conversation.State{
		conversation.StateLeaveTypeSelection,
		conversation.StateLeaveDateInput,
		conversation.StateLeaveReasonInput,
		conversation.StateAdminEmployeeSelection,
		conversation.StateSalarySetting,
		conversation.StateLeaveApprovalSelection,
		conversation.StateLeaveApprovalDecision,
		conversation.StateLeaveApprovalRejectReason,
	}

	for _, state := range states {
		for _, token := range cancelTokens {
			t.Run(string(state)+"/"+token, func(t *testing.T) {
				f := newFixture(t)
				userID := reachState(t, f, state)

				sess, ok := f.session(userID)
				require.True(t, ok)
				require.Equal(t, state, sess.State)

				reply := f.say(userID, token)
				assert.Equal(t, conversation.StateNormal, reply.State)
				assert.Equal(t, cancelledMessage, reply.Messages[0])

				_, ok = f.session(userID)
				assert.False(t, ok)
				assert.Empty(t, f.leave.submitted)
				assert.Empty(t, f.leave.decided)
				assert.Empty(t, f.salary.set)
			})
		}
	}
}

func TestCancel_InNormalIsNoOp(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{"取消", "CANCEL", "取消"} {
		reply := f.say(employeeUser.ID, text)
		assert.Equal(t, conversation.StateNormal, reply.State)
		_, ok := f.session(employeeUser.ID)
		assert.False(t, ok)
	}
}

func TestCancel_PostbackIsNotACancelToken(t *testing.T) {
	f := newFixture(t)
	reachState(t, f, conversation.StateLeaveTypeSelection)

	reply := f.press(employeeUser.ID, "取消")
	assert.Equal(t, conversation.StateLeaveTypeSelection, reply.State)
	_, ok := f.session(employeeUser.ID)
	assert.True(t, ok)
}

func TestHandleTurn_BusyIsRetriedOnceThenAsksToRetry(t *testing.T) {
	f := newFixture(t)
	store := &busyStore{SessionStore: f.store}
	f.svc.store = store

	reply, err := f.svc.HandleTurn(context.Background(), conversation.Input{UserID: employeeUser.ID, Text: "上班"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.attempts)
	assert.Equal(t, busyMessage, reply.Messages[0])
	assert.Empty(t, f.attendance.events)
}

func TestHandleTurn_SameUserTurnsAreSerialized(t *testing.T) {
	f := newFixture(t)
	f.attendance.delay = 2 * time.Millisecond

	const turns = 10
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.HandleTurn(context.Background(), conversation.Input{UserID: employeeUser.ID, Text: "上班"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.attendance.events, turns)
	assert.Equal(t, 1, f.attendance.maxInFlight)
}

func TestHandleTurn_ConcurrentWizardStepsDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	reachState(t, f, conversation.StateLeaveTypeSelection)

	var wg sync.WaitGroup
	replies := make([]conversation.Reply, 2)
	for i := range replies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.svc.HandleTurn(context.Background(), conversation.Input{UserID: employeeUser.ID, Text: "1"})
			assert.NoError(t, err)
			replies[i] = r
		}(i)
	}
	wg.Wait()

	// one turn selects the type; the other sees the date step and reprompts
	sess, ok := f.session(employeeUser.ID)
	require.True(t, ok)
	assert.Equal(t, conversation.StateLeaveDateInput, sess.State)
	assert.Equal(t, "type-annual", sess.Leave.LeaveTypeID)
	assert.ElementsMatch(t,
		[]conversation.State{conversation.StateLeaveDateInput, conversation.StateLeaveDateInput},
		[]conversation.State{replies[0].State, replies[1].State})
}

func TestHandleTurn_InconsistentSessionIsDropped(t *testing.T) {
	f := newFixture(t)
	// bypass Save validation to simulate a corrupted stored session
	broken := conversation.Session{UserID: employeeUser.ID, State: conversation.State("mystery"), UpdatedAt: time.Now()}
	store := &rawStore{MemoryStore: f.store, override: &broken}
	f.svc.store = store

	reply := f.say(employeeUser.ID, "1")
	assert.Equal(t, genericFailure, reply.Messages[0])
	assert.Equal(t, conversation.StateNormal, reply.State)
	assert.True(t, store.deleted)
}

func TestHandleTurn_RepromptDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	reachState(t, f, conversation.StateLeaveTypeSelection)
	before, _ := f.session(employeeUser.ID)

	reply := f.say(employeeUser.ID, "99")
	assert.Equal(t, conversation.StateLeaveTypeSelection, reply.State)
	assert.Contains(t, reply.Messages[0], "1-2")

	after, _ := f.session(employeeUser.ID)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}
