package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReminders struct {
	mu      sync.Mutex
	due     []*model.Session
	marked  []uuid.UUID
	loadErr error
}

func (f *fakeReminders) DueReminders(ctx context.Context, window time.Duration) ([]*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var pending []*model.Session
	for _, s := range f.due {
		if !s.ReminderSent {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

func (f *fakeReminders) MarkReminderSent(ctx context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.due {
		if s.ID == sessionID {
			s.ReminderSent = true
		}
	}
	f.marked = append(f.marked, sessionID)
	return nil
}

type flakyNotifier struct {
	mu    sync.Mutex
	fail  map[uuid.UUID]bool
	calls int
}

func (n *flakyNotifier) Notify(ctx context.Context, session *model.Session, kind model.EventKind) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if kind != model.EventReminder {
		return errors.New("unexpected event")
	}
	if n.fail[session.ID] {
		return errors.New("telegram is down")
	}
	return nil
}

func TestSendDueMarksOnlyDelivered(t *testing.T) {
	ok := &model.Session{ID: uuid.New()}
	broken := &model.Session{ID: uuid.New()}
	source := &fakeReminders{due: []*model.Session{ok, broken}}
	notifier := &flakyNotifier{fail: map[uuid.UUID]bool{broken.ID: true}}

	s := NewReminderScheduler(source, notifier, time.Hour, time.Minute, zap.NewNop())

	assert.Equal(t, 1, s.SendDue(context.Background()))
	assert.Equal(t, []uuid.UUID{ok.ID}, source.marked)

	// на следующем тике повторяется только неотправленное
	notifier.fail = nil
	assert.Equal(t, 1, s.SendDue(context.Background()))
	assert.Equal(t, []uuid.UUID{ok.ID, broken.ID}, source.marked)
	assert.Equal(t, 3, notifier.calls)

	assert.Zero(t, s.SendDue(context.Background()))
}

func TestSendDueLoadError(t *testing.T) {
	source := &fakeReminders{loadErr: errors.New("db down")}
	s := NewReminderScheduler(source, &flakyNotifier{}, time.Hour, time.Minute, zap.NewNop())

	assert.Zero(t, s.SendDue(context.Background()))
}

func TestReminderSchedulerStops(t *testing.T) {
	source := &fakeReminders{due: []*model.Session{{ID: uuid.New()}}}
	s := NewReminderScheduler(source, &flakyNotifier{}, time.Hour, 10*time.Millisecond, zap.NewNop())

	done := make(chan error)
	go func() { done <- s.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return len(source.marked) == 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
