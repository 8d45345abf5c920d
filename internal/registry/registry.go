// Package registry owns the authoritative in-memory auction state. One entry
// exists per auction per process; all reads and mutations go through the
// entry's per-auction lock so concurrent admissions can never interleave a
// read-modify-write on the same auction.
package registry

import (
	"context"
	"sync"

	"quickbid/internal/domain/auction"

	"github.com/google/uuid"
)

// Source hydrates state from the persistence collaborator on first access.
type Source interface {
	FindByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
}

type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
	source  Source
}

// Entry wraps one auction's state behind its exclusivity lock.
type Entry struct {
	mu    sync.Mutex
	state *auction.Auction
}

func New(source Source) *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]*Entry),
		source:  source,
	}
}

// Acquire returns the entry for an auction, hydrating it from the source on
// first access. Concurrent acquirers of a missing auction block on the entry
// lock so the source is consulted once. Errors from the source propagate
// unchanged; a failed hydration leaves no entry behind.
func (r *Registry) Acquire(ctx context.Context, id uuid.UUID) (*Entry, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		e = &Entry{}
		r.entries[id] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		state, err := r.source.FindByID(ctx, id)
		if err != nil {
			r.evictEmpty(id, e)
			return nil, err
		}
		e.state = state
	}
	return e, nil
}

// Put registers freshly created state, replacing nothing: creation happens
// before any other caller can know the id.
func (r *Registry) Put(a *auction.Auction) *Entry {
	e := &Entry{state: a}
	r.mu.Lock()
	r.entries[a.ID()] = e
	r.mu.Unlock()
	return e
}

// Snapshots copies the state of every hydrated auction.
func (r *Registry) Snapshots() []auction.Snapshot {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	out := make([]auction.Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.state != nil {
			out = append(out, e.state.Snapshot())
		}
		e.mu.Unlock()
	}
	return out
}

func (r *Registry) evictEmpty(id uuid.UUID, e *Entry) {
	r.mu.Lock()
	if cur, ok := r.entries[id]; ok && cur == e {
		delete(r.entries, id)
	}
	r.mu.Unlock()
}

// Do runs fn with the auction state under the per-auction lock. fn must not
// block on other entries or perform slow I/O; broadcasts happen after the
// lock is released.
func (e *Entry) Do(fn func(a *auction.Auction) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.state)
}

// Snapshot copies the entry's state under the lock.
func (e *Entry) Snapshot() auction.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}
