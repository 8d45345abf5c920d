// Package scheduler runs one cancellable auto-end timer per active auction.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExpireFunc handles a fired timer. The scheduled deadline travels with the
// call so the end path can detect an obsolete fire after an extension.
type ExpireFunc func(auctionID uuid.UUID, deadline time.Time)

type Scheduler struct {
	mu       sync.Mutex
	timers   map[uuid.UUID]*time.Timer
	onExpire ExpireFunc
	stopped  bool
	log      *slog.Logger
}

func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		timers: make(map[uuid.UUID]*time.Timer),
		log:    log,
	}
}

// SetExpireFunc wires the end-auction path. Must be called before the first
// Schedule; wired during bootstrap to break the commands/scheduler cycle.
func (s *Scheduler) SetExpireFunc(fn ExpireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Schedule arms a single-shot timer firing at deadline, replacing any timer
// already armed for the auction.
func (s *Scheduler) Schedule(auctionID uuid.UUID, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[auctionID]; ok {
		t.Stop()
	}

	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	s.timers[auctionID] = time.AfterFunc(d, func() {
		s.fire(auctionID, deadline)
	})
	s.log.Debug("timer scheduled", "auction_id", auctionID, "deadline", deadline)
}

// Cancel disarms the auction's timer if one is armed.
func (s *Scheduler) Cancel(auctionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[auctionID]; ok {
		t.Stop()
		delete(s.timers, auctionID)
	}
}

// Stop disarms everything; used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) fire(auctionID uuid.UUID, deadline time.Time) {
	// A panicking handler must not take down the timer goroutine.
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("timer handler panicked", "auction_id", auctionID, "panic", rec)
		}
	}()

	s.mu.Lock()
	delete(s.timers, auctionID)
	fn := s.onExpire
	stopped := s.stopped
	s.mu.Unlock()

	if stopped || fn == nil {
		return
	}
	fn(auctionID, deadline)
}
