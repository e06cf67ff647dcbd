package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/pkg/config"
)

type memoryLocks struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryLocks() *memoryLocks {
	return &memoryLocks{keys: make(map[string]string)}
}

func (m *memoryLocks) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryLocks) DelIfValue(ctx context.Context, key string, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] != value {
		return false, nil
	}
	delete(m.keys, key)
	return true, nil
}

func (m *memoryLocks) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = value
}

func (m *memoryLocks) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[key]
	return v, ok
}

func newTestScheduler(locks LockStore, at time.Time) *Scheduler {
	s := New(locks, config.SchedulerConfig{TickInterval: time.Minute, CatchUpWindow: 6 * time.Hour, Location: time.UTC}, nil, zap.NewNop())
	s.now = func() time.Time { return at }
	return s
}

// tickAndWait выполняет один тик и ждёт завершения запущенных задач.
func tickAndWait(s *Scheduler) {
	s.tick()
	s.wg.Wait()
}

func TestEveryRunsOncePerPeriod(t *testing.T) {
	var runs int32
	at := time.Date(2026, time.March, 10, 9, 15, 0, 0, time.UTC)
	s := newTestScheduler(newMemoryLocks(), at)
	s.Register(Job{Name: "hourly", Schedule: Every{Interval: time.Hour}, Run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}})

	tickAndWait(s)
	tickAndWait(s)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	s.now = func() time.Time { return at.Add(time.Hour) }
	tickAndWait(s)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestMonthlyRespectsCatchUpWindowAndRestarts(t *testing.T) {
	locks := newMemoryLocks()
	var runs int32
	job := Job{Name: "monthly", Schedule: Monthly{Day: 1, Window: 6 * time.Hour}, Run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}}

	late := newTestScheduler(locks, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC))
	late.Register(job)
	tickAndWait(late)
	assert.Zero(t, atomic.LoadInt32(&runs), "вне окна задача не запускается")

	first := newTestScheduler(locks, time.Date(2026, time.April, 1, 0, 30, 0, 0, time.UTC))
	first.Register(job)
	tickAndWait(first)
	require.Equal(t, int32(1), atomic.LoadInt32(&runs))

	restarted := newTestScheduler(locks, time.Date(2026, time.April, 1, 2, 0, 0, 0, time.UTC))
	restarted.Register(job)
	tickAndWait(restarted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs), "после перезапуска период не повторяется")
}

func TestFailedRunIsRetried(t *testing.T) {
	var runs int32
	s := newTestScheduler(newMemoryLocks(), time.Date(2026, time.January, 1, 1, 0, 0, 0, time.UTC))
	s.Register(Job{Name: "yearly", Schedule: Yearly{Month: time.January, Day: 1, Window: 6 * time.Hour}, Run: func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			return errors.New("база недоступна")
		}
		return nil
	}})

	tickAndWait(s)
	tickAndWait(s)
	tickAndWait(s)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestJobDoesNotOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var runs int32

	at := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	s := newTestScheduler(newMemoryLocks(), at)
	s.Register(Job{Name: "slow", Schedule: Every{Interval: time.Minute}, Run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		started <- struct{}{}
		<-release
		return nil
	}})

	s.tick()
	<-started
	s.now = func() time.Time { return at.Add(time.Minute) }
	s.tick()
	close(release)
	s.wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestLockHeldElsewhereSkipsRun(t *testing.T) {
	locks := newMemoryLocks()
	locks.set("scheduler:lock:hourly", "other-instance")
	var runs int32
	s := newTestScheduler(locks, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	s.Register(Job{Name: "hourly", Schedule: Every{Interval: time.Hour}, Run: func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}})

	tickAndWait(s)
	assert.Zero(t, atomic.LoadInt32(&runs))
}

func TestOverrunKeepsForeignLock(t *testing.T) {
	locks := newMemoryLocks()
	s := newTestScheduler(locks, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	s.Register(Job{Name: "hourly", Schedule: Every{Interval: time.Hour}, Run: func(ctx context.Context) error {
		// срок блокировки истёк, её взял другой экземпляр
		locks.set("scheduler:lock:hourly", "other-instance")
		return nil
	}})

	tickAndWait(s)

	owner, ok := locks.get("scheduler:lock:hourly")
	require.True(t, ok)
	assert.Equal(t, "other-instance", owner)
}

func TestLockIsReleasedAfterRun(t *testing.T) {
	locks := newMemoryLocks()
	s := newTestScheduler(locks, time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	s.Register(Job{Name: "hourly", Schedule: Every{Interval: time.Hour}, Run: func(ctx context.Context) error { return nil }})

	tickAndWait(s)

	_, ok := locks.get("scheduler:lock:hourly")
	assert.False(t, ok)
}

func TestSchedules(t *testing.T) {
	monthly := Monthly{Day: 1, Window: 6 * time.Hour}
	period, ok := monthly.Due(time.Date(2026, time.May, 1, 5, 59, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "2026-05", period)
	_, ok = monthly.Due(time.Date(2026, time.May, 1, 6, 0, 0, 0, time.UTC))
	assert.False(t, ok)

	yearly := Yearly{Month: time.January, Day: 1, Window: time.Hour}
	period, ok = yearly.Due(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, "2027", period)
	_, ok = yearly.Due(time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC))
	assert.False(t, ok)

	p1, _ := Every{Interval: time.Hour}.Due(time.Date(2026, time.March, 10, 9, 1, 0, 0, time.UTC))
	p2, _ := Every{Interval: time.Hour}.Due(time.Date(2026, time.March, 10, 9, 59, 0, 0, time.UTC))
	assert.Equal(t, p1, p2)
}

type noopMaintenance struct{}

func (noopMaintenance) ReconcileLeaves(ctx context.Context) error { return nil }
func (noopMaintenance) ReturnToWorkSweep(ctx context.Context) error { return nil }
func (noopMaintenance) ResetExternalQuota(ctx context.Context) error { return nil }
func (noopMaintenance) ResetAnnualLeave(ctx context.Context) error { return nil }

func TestLeaveJobs(t *testing.T) {
	jobs := LeaveJobs(noopMaintenance{}, config.SchedulerConfig{CatchUpWindow: time.Hour})
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{"leave_reconciliation", "return_to_work", "external_quota_reset", "annual_leave_reset"}, names)
}
