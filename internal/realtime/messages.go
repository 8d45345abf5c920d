package realtime

import (
	"time"

	"quickbid/internal/domain/auction"

	"github.com/google/uuid"
)

// Realtime message vocabulary. Room-wide messages go to every viewer of an
// auction; bidConfirmed, bidRejected and bidError are delivered only to the
// originating connection.
const (
	TypeAuctionState    = "auctionState"
	TypeBidPlaced       = "bidPlaced"
	TypeBidConfirmed    = "bidConfirmed"
	TypeBidRejected     = "bidRejected"
	TypeBidError        = "bidError"
	TypeAuctionStarted  = "auctionStarted"
	TypeAuctionPaused   = "auctionPaused"
	TypeAuctionEnded    = "auctionEnded"
	TypeAuctionExtended = "auctionExtended"
	TypeUserJoined      = "userJoined"
	TypeUserLeft        = "userLeft"
)

// Envelope is the outbound wire format. Every message is timestamped at
// broadcast time.
type Envelope struct {
	Type      string    `json:"type"`
	AuctionID uuid.UUID `json:"auctionId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

type BidInfo struct {
	ID        uuid.UUID     `json:"id"`
	AuctionID uuid.UUID     `json:"auctionId"`
	UserID    uuid.UUID     `json:"userId"`
	UserName  string        `json:"userName"`
	Amount    auction.Money `json:"amount"`
	Timestamp time.Time     `json:"timestamp"`
	IsBuyNow  bool          `json:"isBuyNow,omitempty"`
}

type BidPlacedPayload struct {
	Bid          BidInfo          `json:"bid"`
	State        auction.Snapshot `json:"state"`
	ShouldExtend bool             `json:"shouldExtend"`
	NewEndTime   *time.Time       `json:"newEndTime,omitempty"`
}

type BidRejectedPayload struct {
	AuctionID uuid.UUID            `json:"auctionId"`
	Reason    auction.RejectReason `json:"reason"`
	Amount    auction.Money        `json:"amount"`
}

type AuctionLifecyclePayload struct {
	State auction.Snapshot `json:"state"`
	Actor string           `json:"actor,omitempty"`
}

type AuctionEndedPayload struct {
	State      auction.Snapshot `json:"state"`
	Winner     *auction.Winner  `json:"winner,omitempty"`
	FinalPrice auction.Money    `json:"finalPrice"`
	EndedBy    string           `json:"endedBy"`
}

type AuctionExtendedPayload struct {
	NewEndTime time.Time `json:"newEndTime"`
}

type PresencePayload struct {
	UserID      uuid.UUID `json:"userId"`
	UserName    string    `json:"userName"`
	ActiveUsers int       `json:"activeUsers"`
}
