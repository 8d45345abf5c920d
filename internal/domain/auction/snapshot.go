package auction

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable copy of auction state, safe to hand to the
// fan-out and query layers after the per-auction lock is released.
type Snapshot struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	SellerID     uuid.UUID `json:"sellerId"`
	Category     string    `json:"category,omitempty"`
	Images       []string  `json:"images,omitempty"`
	KindName     KindName  `json:"auctionType"`
	Kind         Kind      `json:"settings"`
	Status       Status    `json:"status"`
	StartPrice   Money     `json:"startPrice"`
	CurrentPrice Money     `json:"currentPrice"`
	ReservePrice *Money    `json:"reservePrice,omitempty"`
	BuyNowPrice  *Money    `json:"buyNowPrice,omitempty"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	TotalBids    int       `json:"totalBids"`
	ActiveUsers  int       `json:"activeUsers"`
	LastBid      *LastBid  `json:"lastBid,omitempty"`
	Winner       *Winner   `json:"winner,omitempty"`
	IsExtended   bool      `json:"isExtended"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (a *Auction) Snapshot() Snapshot {
	images := make([]string, len(a.images))
	copy(images, a.images)

	var reserve, buyNow *Money
	if a.reservePrice != nil {
		v := *a.reservePrice
		reserve = &v
	}
	if a.buyNowPrice != nil {
		v := *a.buyNowPrice
		buyNow = &v
	}
	var last *LastBid
	if a.lastBid != nil {
		v := *a.lastBid
		last = &v
	}
	var winner *Winner
	if a.winner != nil {
		v := *a.winner
		winner = &v
	}

	return Snapshot{
		ID:           a.id,
		Title:        a.title,
		SellerID:     a.sellerID,
		Category:     a.category,
		Images:       images,
		KindName:     a.kind.Name(),
		Kind:         a.kind,
		Status:       a.status,
		StartPrice:   a.startPrice,
		CurrentPrice: a.currentPrice,
		ReservePrice: reserve,
		BuyNowPrice:  buyNow,
		StartTime:    a.startTime,
		EndTime:      a.endTime,
		TotalBids:    a.totalBids,
		ActiveUsers:  a.activeUsers,
		LastBid:      last,
		Winner:       winner,
		IsExtended:   a.isExtended,
		CreatedAt:    a.createdAt,
		UpdatedAt:    a.updatedAt,
	}
}
