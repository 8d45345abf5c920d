//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quickbid/internal/domain/actor"
	"quickbid/internal/domain/auction"
	"quickbid/internal/infra"
	"quickbid/internal/pkg/clock"
	"quickbid/internal/registry"
	"quickbid/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*auction.Auction
	inserted []uuid.UUID
	outcomes []auction.Snapshot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]*auction.Auction)}
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*auction.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.records[id]
	if !ok {
		return nil, infra.WrapRepoErr("auction not found", nil, infra.KindNotFound)
	}
	return a, nil
}

func (r *fakeRepo) Insert(_ context.Context, a *auction.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[a.ID()] = a
	r.inserted = append(r.inserted, a.ID())
	return nil
}

func (r *fakeRepo) SaveOutcome(_ context.Context, snap auction.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, snap)
	return nil
}

func (r *fakeRepo) savedOutcomes() []auction.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auction.Snapshot, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

type fakePublisher struct {
	mu        sync.Mutex
	bidEvents []commands.BidPlacedEvent
	endEvents []commands.AuctionEndedEvent
	panicNext bool
}

func (p *fakePublisher) PublishBidPlaced(_ context.Context, ev commands.BidPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panicNext {
		panic("publisher exploded")
	}
	p.bidEvents = append(p.bidEvents, ev)
	return nil
}

func (p *fakePublisher) PublishAuctionEnded(_ context.Context, ev commands.AuctionEndedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endEvents = append(p.endEvents, ev)
	return nil
}

func (p *fakePublisher) bids() []commands.BidPlacedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]commands.BidPlacedEvent(nil), p.bidEvents...)
}

func (p *fakePublisher) ends() []commands.AuctionEndedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]commands.AuctionEndedEvent(nil), p.endEvents...)
}

type sentMessage struct {
	ConnID    string // empty for broadcasts
	Type      string
	AuctionID uuid.UUID
	Payload   any
}

type fakeFanout struct {
	mu       sync.Mutex
	messages []sentMessage
	roomSize int
}

func (f *fakeFanout) Broadcast(auctionID uuid.UUID, msgType string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{Type: msgType, AuctionID: auctionID, Payload: payload})
}

func (f *fakeFanout) Unicast(connID string, msgType string, auctionID uuid.UUID, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{ConnID: connID, Type: msgType, AuctionID: auctionID, Payload: payload})
}

func (f *fakeFanout) RoomSize(uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roomSize
}

func (f *fakeFanout) byType(msgType string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

type scheduledCall struct {
	AuctionID uuid.UUID
	Deadline  time.Time
	Cancelled bool
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduledCall
}

func (s *fakeScheduler) Schedule(auctionID uuid.UUID, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduledCall{AuctionID: auctionID, Deadline: deadline})
}

func (s *fakeScheduler) Cancel(auctionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduledCall{AuctionID: auctionID, Cancelled: true})
}

func (s *fakeScheduler) all() []scheduledCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scheduledCall(nil), s.calls...)
}

// world bundles one wired command stack over fakes.
type world struct {
	repo      *fakeRepo
	publisher *fakePublisher
	fanout    *fakeFanout
	scheduler *fakeScheduler
	clock     *clock.MockClock
	registry  *registry.Registry
	bids      commands.BidCommands
	control   commands.ControlCommands
	presence  commands.PresenceCommands
}

func newWorld() *world {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	fan := &fakeFanout{}
	sched := &fakeScheduler{}
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	reg := registry.New(repo)

	return &world{
		repo:      repo,
		publisher: pub,
		fanout:    fan,
		scheduler: sched,
		clock:     clk,
		registry:  reg,
		bids:      commands.NewBidCommands(reg, repo, pub, fan, sched, clk, nil),
		control:   commands.NewControlCommands(reg, repo, pub, fan, sched, clk, nil),
		presence:  commands.NewPresenceCommands(reg, fan, clk, nil),
	}
}

type auctionOpts struct {
	kind       auction.Kind
	startPrice int64
	buyNow     *int64
	reserve    *int64
	duration   time.Duration
	active     bool
}

func (w *world) seedAuction(t *testing.T, opts auctionOpts) uuid.UUID {
	t.Helper()
	if opts.duration == 0 {
		opts.duration = time.Hour
	}
	params := auction.NewAuctionParams{
		Title:      "seeded lot",
		SellerID:   uuid.New(),
		Kind:       opts.kind,
		StartPrice: auction.MoneyFromRupees(opts.startPrice),
		StartTime:  w.clock.Now(),
		EndTime:    w.clock.Now().Add(opts.duration),
	}
	if opts.buyNow != nil {
		m := auction.MoneyFromRupees(*opts.buyNow)
		params.BuyNowPrice = &m
	}
	if opts.reserve != nil {
		m := auction.MoneyFromRupees(*opts.reserve)
		params.ReservePrice = &m
	}
	a, err := auction.NewAuction(params, w.clock.Now())
	require.NoError(t, err)
	if opts.active {
		require.NoError(t, a.Start(w.clock.Now()))
	}
	require.NoError(t, w.repo.Insert(context.Background(), a))
	return a.ID()
}

func (w *world) placeBid(t *testing.T, auctionID uuid.UUID, rupees int64) *commands.PlaceBidResult {
	t.Helper()
	res, err := w.bids.PlaceBid(context.Background(), commands.PlaceBidParams{
		AuctionID: auctionID,
		UserID:    uuid.New(),
		UserName:  "bidder",
		Amount:    auction.MoneyFromRupees(rupees),
		ConnID:    "conn-1",
	})
	require.NoError(t, err)
	return res
}

func int64Ptr(v int64) *int64 { return &v }

func testViewer() actor.Actor {
	return actor.Actor{ID: uuid.New(), Name: "viewer", Role: actor.RoleBidder}
}
