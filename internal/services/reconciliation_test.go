package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/internal/entities"
	"leave-system/pkg/config"
	"leave-system/pkg/constants"
)

func acceptedLeave(id, userID uint64, start, end time.Time) *entities.EmployeeLeave {
	leave := pendingLeave(id, userID, constants.LeaveTypePersonal, start, end)
	leave.Status = constants.StatusAccepted
	return leave
}

func newReconciliationService(f *leaveFixture) *ReconciliationService {
	s := NewReconciliationService(passThroughTx{}, f.leaves, f.users, f.notifier,
		config.LeavePolicyConfig{AnnualLeaveDays: 26, ExternalActivitiesLimit: 2}, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestReconcileLeaves(t *testing.T) {
	f := newLeaveFixture(
		acceptedLeave(1, 3, day(time.February, 1), day(time.February, 5)), // прошедший
		acceptedLeave(2, 5, day(time.March, 9), day(time.March, 12)),      // текущий
		acceptedLeave(3, 2, day(time.April, 1), day(time.April, 3)),       // будущий
	)
	stale := day(time.February, 5)
	f.users.users[3].OnLeave = true
	f.users.users[3].ReturnDate = &stale
	earlier := day(time.March, 1)
	f.users.users[2].OnLeave = true
	f.users.users[2].ReturnDate = &earlier

	s := newReconciliationService(f)
	require.NoError(t, s.ReconcileLeaves(context.Background()))

	past := f.users.get(3)
	assert.False(t, past.OnLeave)
	assert.Nil(t, past.ReturnDate)

	current := f.users.get(5)
	assert.True(t, current.OnLeave)
	require.NotNil(t, current.ReturnDate)
	assert.Equal(t, day(time.March, 12), *current.ReturnDate)

	future := f.users.get(2)
	assert.True(t, future.OnLeave)
	require.NotNil(t, future.ReturnDate)
	assert.Equal(t, earlier, *future.ReturnDate)

	t.Run("second run changes nothing", func(t *testing.T) {
		require.NoError(t, s.ReconcileLeaves(context.Background()))
		assert.Equal(t, current, f.users.get(5))
		assert.Equal(t, past, f.users.get(3))
	})

	t.Run("statuses stay untouched", func(t *testing.T) {
		for _, l := range f.leaves.leaves {
			assert.Equal(t, constants.StatusAccepted, l.Status)
		}
	})
}

func TestReconcileLeaves_CurrentLeaveWinsOverFinished(t *testing.T) {
	f := newLeaveFixture(
		acceptedLeave(1, 3, day(time.March, 9), day(time.March, 12)),
		acceptedLeave(2, 3, day(time.February, 1), day(time.February, 5)),
	)

	require.NoError(t, newReconciliationService(f).ReconcileLeaves(context.Background()))

	user := f.users.get(3)
	assert.True(t, user.OnLeave)
	require.NotNil(t, user.ReturnDate)
	assert.Equal(t, day(time.March, 12), *user.ReturnDate)
}

func TestReturnToWorkSweep(t *testing.T) {
	f := newLeaveFixture()
	due, later := day(time.March, 9), day(time.March, 20)
	f.users.users[3].OnLeave = true
	f.users.users[3].ReturnDate = &due
	f.users.users[5].OnLeave = true
	f.users.users[5].ReturnDate = &later

	require.NoError(t, newReconciliationService(f).ReturnToWorkSweep(context.Background()))

	back := f.users.get(3)
	assert.False(t, back.OnLeave)
	assert.Nil(t, back.ReturnDate)
	assert.True(t, f.users.get(5).OnLeave)
	assert.Equal(t, []string{f.employee.Email}, f.notifier.recipients())
}

func TestResetExternalQuota(t *testing.T) {
	f := newLeaveFixture()
	f.users.users[3].ExternalActivitiesLimit = 0

	require.NoError(t, newReconciliationService(f).ResetExternalQuota(context.Background()))

	for id := range f.users.users {
		assert.Equal(t, 2, f.users.get(id).ExternalActivitiesLimit)
	}
	assert.Len(t, f.notifier.recipients(), len(f.users.users))
}

func TestResetAnnualLeave(t *testing.T) {
	f := newLeaveFixture()
	f.users.users[3].LeaveDays = 3.5

	require.NoError(t, newReconciliationService(f).ResetAnnualLeave(context.Background()))

	for id := range f.users.users {
		assert.Equal(t, 26.0, f.users.get(id).LeaveDays)
	}
	assert.Len(t, f.notifier.recipients(), len(f.users.users))
}
