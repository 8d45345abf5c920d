//go:build unit

package scheduler_test

import (
	"sync"
	"testing"
	"time"

	"quickbid/internal/scheduler"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fireRecorder struct {
	mu    sync.Mutex
	fires []time.Time
	ch    chan uuid.UUID
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{ch: make(chan uuid.UUID, 8)}
}

func (r *fireRecorder) handle(id uuid.UUID, deadline time.Time) {
	r.mu.Lock()
	r.fires = append(r.fires, deadline)
	r.mu.Unlock()
	r.ch <- id
}

func (r *fireRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fires)
}

func TestSchedule_Fires(t *testing.T) {
	rec := newFireRecorder()
	s := scheduler.New(nil)
	s.SetExpireFunc(rec.handle)
	defer s.Stop()

	id := uuid.New()
	s.Schedule(id, time.Now().Add(20*time.Millisecond))

	select {
	case fired := <-rec.ch:
		assert.Equal(t, id, fired)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestSchedule_ReplaceOnReschedule(t *testing.T) {
	rec := newFireRecorder()
	s := scheduler.New(nil)
	s.SetExpireFunc(rec.handle)
	defer s.Stop()

	id := uuid.New()
	// The first deadline would fire almost immediately; rescheduling must
	// disarm it so only the replacement fires.
	s.Schedule(id, time.Now().Add(30*time.Millisecond))
	s.Schedule(id, time.Now().Add(80*time.Millisecond))

	select {
	case <-rec.ch:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}

	// Give the disarmed timer a chance to misfire.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "only the rescheduled timer may fire")
}

func TestCancel(t *testing.T) {
	rec := newFireRecorder()
	s := scheduler.New(nil)
	s.SetExpireFunc(rec.handle)
	defer s.Stop()

	id := uuid.New()
	s.Schedule(id, time.Now().Add(30*time.Millisecond))
	s.Cancel(id)

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, rec.count(), "cancelled timer must not fire")
}

func TestStop_DisarmsEverything(t *testing.T) {
	rec := newFireRecorder()
	s := scheduler.New(nil)
	s.SetExpireFunc(rec.handle)

	for range 5 {
		s.Schedule(uuid.New(), time.Now().Add(30*time.Millisecond))
	}
	s.Stop()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, rec.count())

	// Scheduling after Stop is a no-op, not a panic.
	s.Schedule(uuid.New(), time.Now().Add(10*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestFire_PanicIsContained(t *testing.T) {
	s := scheduler.New(nil)
	fired := make(chan struct{}, 2)
	s.SetExpireFunc(func(uuid.UUID, time.Time) {
		fired <- struct{}{}
		panic("boom")
	})
	defer s.Stop()

	s.Schedule(uuid.New(), time.Now().Add(10*time.Millisecond))
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	// A panicking handler must not take the scheduler down.
	s.Schedule(uuid.New(), time.Now().Add(10*time.Millisecond))
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduler unusable after handler panic")
	}
}
