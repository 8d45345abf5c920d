package commands

import (
	"context"
	"time"

	"quickbid/internal/domain/auction"
	"quickbid/internal/realtime"

	"github.com/google/uuid"
)

// AuctionRepository is the persistence collaborator: records are read on
// registry miss and terminal outcomes written back after an auction ends.
type AuctionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
	Insert(ctx context.Context, a *auction.Auction) error
	SaveOutcome(ctx context.Context, snap auction.Snapshot) error
}

// BidPlacedEvent is emitted to external consumers on every accepted bid.
type BidPlacedEvent struct {
	AuctionID uuid.UUID        `json:"auctionId"`
	Bid       realtime.BidInfo `json:"bid"`
	State     auction.Snapshot `json:"state"`
	Type      auction.KindName `json:"type"`
}

// AuctionEndedEvent is emitted once per auction when it reaches its terminal
// state; the persistence collaborator durably records the outcome from it.
type AuctionEndedEvent struct {
	AuctionID  uuid.UUID       `json:"auctionId"`
	Winner     *auction.Winner `json:"winner,omitempty"`
	FinalPrice auction.Money   `json:"finalPrice"`
	EndTime    time.Time       `json:"endTime"`
}

// EventPublisher delivers engine events to notification, audit and
// settlement collaborators.
type EventPublisher interface {
	PublishBidPlaced(ctx context.Context, ev BidPlacedEvent) error
	PublishAuctionEnded(ctx context.Context, ev AuctionEndedEvent) error
}

// Fanout delivers realtime messages to viewers. Implemented by the realtime
// hub; commands broadcast only after the in-memory commit so message order
// matches application order.
type Fanout interface {
	Broadcast(auctionID uuid.UUID, msgType string, payload any)
	Unicast(connID string, msgType string, auctionID uuid.UUID, payload any)
	RoomSize(auctionID uuid.UUID) int
}

// TimerScheduler arms and disarms the per-auction auto-end timer.
type TimerScheduler interface {
	Schedule(auctionID uuid.UUID, deadline time.Time)
	Cancel(auctionID uuid.UUID)
}
