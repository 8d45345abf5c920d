package request

import (
	"encoding/json"
	"strings"
	"time"

	"quickbid/internal/domain/auction"
	"quickbid/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateAuctionRequest struct {
	Title        string          `json:"title" binding:"required"`
	Category     *string         `json:"category,omitempty"`
	Images       []string        `json:"images,omitempty"`
	AuctionType  string          `json:"auctionType" binding:"required"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	StartPrice   string          `json:"startPrice" binding:"required"`
	ReservePrice *string         `json:"reservePrice,omitempty"`
	BuyNowPrice  *string         `json:"buyNowPrice,omitempty"`
	StartTime    time.Time       `json:"startTime" binding:"required"`
	EndTime      time.Time       `json:"endTime" binding:"required"`
}

func (r CreateAuctionRequest) ToParams(sellerID uuid.UUID) (commands.CreateAuctionParams, error) {
	kind, err := auction.KindFromRecord(r.AuctionType, r.Settings)
	if err != nil {
		return commands.CreateAuctionParams{}, err
	}
	startPrice, err := auction.MoneyFromString(r.StartPrice)
	if err != nil {
		return commands.CreateAuctionParams{}, err
	}
	reserve, err := optionalMoney(r.ReservePrice)
	if err != nil {
		return commands.CreateAuctionParams{}, err
	}
	buyNow, err := optionalMoney(r.BuyNowPrice)
	if err != nil {
		return commands.CreateAuctionParams{}, err
	}

	var category string
	if r.Category != nil {
		category = strings.TrimSpace(*r.Category)
	}

	return commands.CreateAuctionParams{
		Title:        strings.TrimSpace(r.Title),
		SellerID:     sellerID,
		Category:     category,
		Images:       r.Images,
		Kind:         kind,
		StartPrice:   startPrice,
		ReservePrice: reserve,
		BuyNowPrice:  buyNow,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
	}, nil
}

type UpdateSettingsRequest struct {
	AuctionType string          `json:"auctionType" binding:"required"`
	Settings    json.RawMessage `json:"settings" binding:"required"`
}

func (r UpdateSettingsRequest) ToKind() (auction.Kind, error) {
	return auction.KindFromRecord(r.AuctionType, r.Settings)
}

type EndAuctionRequest struct {
	Winner *WinnerOverride `json:"winner,omitempty"`
}

type WinnerOverride struct {
	UserID   uuid.UUID `json:"userId" binding:"required"`
	UserName string    `json:"userName" binding:"required"`
	Amount   string    `json:"amount" binding:"required"`
}

func (r EndAuctionRequest) ToWinner() (*auction.Winner, error) {
	if r.Winner == nil {
		return nil, nil
	}
	amount, err := auction.MoneyFromString(r.Winner.Amount)
	if err != nil {
		return nil, err
	}
	return &auction.Winner{
		UserID:   r.Winner.UserID,
		UserName: r.Winner.UserName,
		Amount:   amount,
	}, nil
}

func optionalMoney(s *string) (*auction.Money, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	m, err := auction.MoneyFromString(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
