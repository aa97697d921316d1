package cleanup

// Justification: idle-window pruning is time based and invisible through the
// HTTP surface; these tests drive RunOnce with a fixed clock.

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"auditwatch/internal/audit/monitor"
)

type stubPruner struct {
	calls   atomic.Int32
	lastNow time.Time
	pruned  int
	err     error
}

func (p *stubPruner) PruneIdle(_ context.Context, now time.Time) (int, error) {
	p.calls.Add(1)
	p.lastNow = now
	return p.pruned, p.err
}

type WindowCleanupSuite struct {
	suite.Suite
	now time.Time
}

func TestWindowCleanupSuite(t *testing.T) {
	suite.Run(t, new(WindowCleanupSuite))
}

func (s *WindowCleanupSuite) SetupTest() {
	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *WindowCleanupSuite) clock() time.Time { return s.now }

func (s *WindowCleanupSuite) TestRunOncePassesClock() {
	store := &stubPruner{pruned: 4}
	svc := New(store, WithClock(s.clock))

	res, err := svc.RunOnce(context.Background())
	s.Require().NoError(err)
	s.Equal(int32(1), store.calls.Load())
	s.Equal(s.now, store.lastNow)
	s.Equal(4, res.WindowsPruned)
}

func (s *WindowCleanupSuite) TestRunOncePropagatesStoreErrors() {
	store := &stubPruner{err: context.DeadlineExceeded}
	svc := New(store)

	res, err := svc.RunOnce(context.Background())
	s.Require().ErrorIs(err, context.DeadlineExceeded)
	s.Nil(res)
}

func (s *WindowCleanupSuite) TestPrunesOnlyIdleInMemoryWindows() {
	ctx := context.Background()
	windows := monitor.NewInMemoryWindowStore(15 * time.Minute)

	_, err := windows.RecordFailure(ctx, "idle|patient_record", "e1", s.now.Add(-20*time.Minute))
	s.Require().NoError(err)
	_, err = windows.RecordFailure(ctx, "active|patient_record", "e2", s.now.Add(-time.Minute))
	s.Require().NoError(err)

	res, err := New(windows, WithClock(s.clock)).RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, res.WindowsPruned)
	s.Equal(1, windows.Len())
}

func (s *WindowCleanupSuite) TestStartStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	store := &stubPruner{}
	svc := New(store, WithInterval(5*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	s.Eventually(func() bool { return store.calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("worker did not stop")
	}
}
