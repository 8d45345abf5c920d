package response

import (
	"time"

	"quickbid/internal/domain/auction"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type AuctionResponse struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title"`
	SellerID     uuid.UUID        `json:"sellerId"`
	Category     string           `json:"category,omitempty"`
	Images       []string         `json:"images,omitempty"`
	AuctionType  auction.KindName `json:"auctionType"`
	Settings     any              `json:"settings"`
	Status       auction.Status   `json:"status"`
	StartPrice   auction.Money    `json:"startPrice"`
	CurrentPrice auction.Money    `json:"currentPrice"`
	ReservePrice *auction.Money   `json:"reservePrice,omitempty"`
	BuyNowPrice  *auction.Money   `json:"buyNowPrice,omitempty"`
	StartTime    time.Time        `json:"startTime"`
	EndTime      time.Time        `json:"endTime"`
	TotalBids    int              `json:"totalBids"`
	ActiveUsers  int              `json:"activeUsers"`
	LastBid      *auction.LastBid `json:"lastBid,omitempty"`
	Winner       *auction.Winner  `json:"winner,omitempty"`
	IsExtended   bool             `json:"isExtended"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type AuctionListItemResponse struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title"`
	AuctionType  auction.KindName `json:"auctionType"`
	Status       auction.Status   `json:"status"`
	CurrentPrice auction.Money    `json:"currentPrice"`
	EndTime      time.Time        `json:"endTime"`
	TotalBids    int              `json:"totalBids"`
	ActiveUsers  int              `json:"activeUsers"`
	IsExtended   bool             `json:"isExtended"`
}

func FromSnapshot(snap auction.Snapshot) *AuctionResponse {
	resp := &AuctionResponse{}
	_ = copier.Copy(resp, &snap)
	resp.AuctionType = snap.KindName
	resp.Settings = snap.Kind
	return resp
}

func FromSnapshotList(snaps []auction.Snapshot) []*AuctionListItemResponse {
	out := make([]*AuctionListItemResponse, 0, len(snaps))
	for _, snap := range snaps {
		item := &AuctionListItemResponse{}
		_ = copier.Copy(item, &snap)
		item.AuctionType = snap.KindName
		out = append(out, item)
	}
	return out
}
