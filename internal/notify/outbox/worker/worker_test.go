package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"auditwatch/internal/notify/outbox"
	"auditwatch/internal/platform/kafka"
	"auditwatch/internal/platform/kafka/producer"
	"auditwatch/internal/platform/kafka/producer/mocks"
)

type WorkerSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	publisher *mocks.MockPublisher
	store     *outbox.InMemoryStore
	worker    *Worker
	now       time.Time
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.store = outbox.NewInMemoryStore()
	s.now = time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)
	s.worker = New(s.store, s.publisher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
		WithRetention(time.Hour),
	)
}

func (s *WorkerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *WorkerSuite) append(aggregateID, eventType string) *outbox.Entry {
	e := outbox.NewEntry("incident", aggregateID, eventType, []byte(`{"severity":"HIGH"}`), s.now)
	s.Require().NoError(s.store.Append(s.ctx, e))
	return e
}

func (s *WorkerSuite) pending() int64 {
	n, err := s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *WorkerSuite) TestPublishesAndMarksProcessed() {
	entry := s.append("inc-1", "created")

	s.publisher.EXPECT().Produce(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *producer.Message) error {
			s.Equal(kafka.TopicNotifications, msg.Topic)
			s.Equal("inc-1", string(msg.Key), "keyed by incident so one incident stays ordered")
			s.Equal(entry.ID.String(), msg.Headers["outbox_id"])
			s.Equal("created", msg.Headers["event_type"])
			return nil
		})

	s.Equal(1, s.worker.PollOnce(s.ctx))
	s.Zero(s.pending())
}

func (s *WorkerSuite) TestFailedPublishStaysPending() {
	s.append("inc-1", "created")
	s.append("inc-2", "escalated")

	gomock.InOrder(
		s.publisher.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(errors.New("broker down")),
		s.publisher.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(nil),
	)
	s.Equal(1, s.worker.PollOnce(s.ctx))
	s.Equal(int64(1), s.pending())

	s.publisher.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(nil)
	s.Equal(1, s.worker.PollOnce(s.ctx))
	s.Zero(s.pending())
}

func (s *WorkerSuite) TestMaintainPurgesOldProcessedEntries() {
	s.append("inc-1", "created")
	s.publisher.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(nil)
	s.Require().Equal(1, s.worker.PollOnce(s.ctx))

	s.Require().NoError(s.worker.Maintain(s.ctx))
	left, err := s.store.DeleteProcessedBefore(s.ctx, s.now.Add(time.Second))
	s.Require().NoError(err)
	s.Equal(int64(1), left, "entry within retention survives maintain")

	s.append("inc-2", "created")
	s.publisher.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(nil)
	s.Require().Equal(1, s.worker.PollOnce(s.ctx))
	s.now = s.now.Add(2 * time.Hour)
	s.Require().NoError(s.worker.Maintain(s.ctx))
	left, err = s.store.DeleteProcessedBefore(s.ctx, s.now)
	s.Require().NoError(err)
	s.Zero(left)
}

func (s *WorkerSuite) TestStopDrainsPending() {
	s.append("inc-1", "created")
	s.publisher.EXPECT().Produce(gomock.Any(), gomock.Any()).Return(nil)

	w := New(s.store, s.publisher,
		WithPollInterval(time.Hour),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	w.Start()

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	s.Require().NoError(w.Stop(ctx))
	s.Zero(s.pending())
}
