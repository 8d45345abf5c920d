package auction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAuctionEnded      = errors.New("auction already ended")
	ErrPriceNotHigher    = errors.New("bid amount must exceed current price")
	ErrEndTimeDecreased  = errors.New("end time can only move forward")
	ErrInvalidStartPrice = errors.New("start price must be positive")
	ErrInvalidEndTime    = errors.New("end time must be after start time")
	ErrKindMismatch      = errors.New("settings kind does not match auction kind")
)

// Auction is the authoritative in-memory state of one auction. All mutation
// goes through the admission and control operations; callers never touch
// fields directly.
type Auction struct {
	id           uuid.UUID
	title        string
	sellerID     uuid.UUID
	category     string
	images       []string
	kind         Kind
	status       Status
	startPrice   Money
	currentPrice Money
	reservePrice *Money
	buyNowPrice  *Money
	startTime    time.Time
	endTime      time.Time
	totalBids    int
	activeUsers  int
	lastBid      *LastBid
	winner       *Winner
	isExtended   bool
	createdAt    time.Time
	updatedAt    time.Time
}

type NewAuctionParams struct {
	Title        string
	SellerID     uuid.UUID
	Category     string
	Images       []string
	Kind         Kind
	StartPrice   Money
	ReservePrice *Money
	BuyNowPrice  *Money
	StartTime    time.Time
	EndTime      time.Time
}

func NewAuction(p NewAuctionParams, now time.Time) (*Auction, error) {
	if !p.StartPrice.IsPositive() {
		return nil, ErrInvalidStartPrice
	}
	if !p.EndTime.After(p.StartTime) {
		return nil, ErrInvalidEndTime
	}
	return &Auction{
		id:           uuid.New(),
		title:        p.Title,
		sellerID:     p.SellerID,
		category:     p.Category,
		images:       p.Images,
		kind:         p.Kind,
		status:       StatusWaiting,
		startPrice:   p.StartPrice,
		currentPrice: p.StartPrice,
		reservePrice: p.ReservePrice,
		buyNowPrice:  p.BuyNowPrice,
		startTime:    p.StartTime,
		endTime:      p.EndTime,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

type ReconstructParams struct {
	ID           uuid.UUID
	Title        string
	SellerID     uuid.UUID
	Category     string
	Images       []string
	Kind         Kind
	Status       Status
	StartPrice   Money
	CurrentPrice Money
	ReservePrice *Money
	BuyNowPrice  *Money
	StartTime    time.Time
	EndTime      time.Time
	TotalBids    int
	LastBid      *LastBid
	Winner       *Winner
	IsExtended   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reconstruct rebuilds an aggregate from a persisted record.
func Reconstruct(p ReconstructParams) *Auction {
	return &Auction{
		id:           p.ID,
		title:        p.Title,
		sellerID:     p.SellerID,
		category:     p.Category,
		images:       p.Images,
		kind:         p.Kind,
		status:       p.Status,
		startPrice:   p.StartPrice,
		currentPrice: p.CurrentPrice,
		reservePrice: p.ReservePrice,
		buyNowPrice:  p.BuyNowPrice,
		startTime:    p.StartTime,
		endTime:      p.EndTime,
		totalBids:    p.TotalBids,
		lastBid:      p.LastBid,
		winner:       p.Winner,
		isExtended:   p.IsExtended,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}

func (a *Auction) ID() uuid.UUID        { return a.id }
func (a *Auction) Title() string        { return a.title }
func (a *Auction) SellerID() uuid.UUID  { return a.sellerID }
func (a *Auction) Kind() Kind           { return a.kind }
func (a *Auction) Status() Status       { return a.status }
func (a *Auction) StartPrice() Money    { return a.startPrice }
func (a *Auction) CurrentPrice() Money  { return a.currentPrice }
func (a *Auction) ReservePrice() *Money { return a.reservePrice }
func (a *Auction) BuyNowPrice() *Money  { return a.buyNowPrice }
func (a *Auction) StartTime() time.Time { return a.startTime }
func (a *Auction) EndTime() time.Time   { return a.endTime }
func (a *Auction) TotalBids() int       { return a.totalBids }
func (a *Auction) ActiveUsers() int     { return a.activeUsers }
func (a *Auction) LastBid() *LastBid    { return a.lastBid }
func (a *Auction) Winner() *Winner      { return a.winner }
func (a *Auction) IsExtended() bool     { return a.isExtended }

func (a *Auction) TimeLeft(now time.Time) time.Duration {
	return a.endTime.Sub(now)
}

func (a *Auction) transition(next Status, now time.Time) error {
	if !a.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	a.status = next
	a.updatedAt = now
	return nil
}

func (a *Auction) Start(now time.Time) error {
	if a.status != StatusWaiting {
		return ErrInvalidTransition
	}
	if a.endTime.Before(now) {
		return ErrInvalidEndTime
	}
	return a.transition(StatusActive, now)
}

func (a *Auction) Pause(now time.Time) error {
	if a.status != StatusActive {
		return ErrInvalidTransition
	}
	return a.transition(StatusPaused, now)
}

func (a *Auction) Resume(now time.Time) error {
	if a.status != StatusPaused {
		return ErrInvalidTransition
	}
	return a.transition(StatusActive, now)
}

// End moves the auction to its terminal state. Ending an already ended
// auction is a no-op so the timer and manual end can share one path.
func (a *Auction) End(now time.Time, winner *Winner) (alreadyEnded bool) {
	if a.status == StatusEnded {
		return true
	}
	a.status = StatusEnded
	a.winner = winner
	a.updatedAt = now
	return false
}

// AcceptBid commits an admitted bid: price monotonically increases, the bid
// counter advances by exactly one, and lastBid tracks the new high.
func (a *Auction) AcceptBid(b Bid) error {
	if a.status.IsTerminal() {
		return ErrAuctionEnded
	}
	if !b.Amount.GreaterThan(a.currentPrice) {
		return ErrPriceNotHigher
	}
	a.currentPrice = b.Amount
	a.totalBids++
	a.lastBid = &LastBid{
		UserID:    b.UserID,
		UserName:  b.UserName,
		Amount:    b.Amount,
		Timestamp: b.Timestamp,
	}
	a.updatedAt = b.Timestamp
	return nil
}

// ExtendEnd pushes the end time forward; it never moves back.
func (a *Auction) ExtendEnd(until time.Time, now time.Time) error {
	if !until.After(a.endTime) {
		return ErrEndTimeDecreased
	}
	a.endTime = until
	a.isExtended = true
	a.updatedAt = now
	return nil
}

// UpdateSettings replaces the kind settings payload. The kind itself is fixed
// at creation.
func (a *Auction) UpdateSettings(k Kind, now time.Time) error {
	if a.status.IsTerminal() {
		return ErrAuctionEnded
	}
	if k.Name() != a.kind.Name() {
		return ErrKindMismatch
	}
	a.kind = k
	a.updatedAt = now
	return nil
}

func (a *Auction) SetActiveUsers(n int, now time.Time) {
	if n < 0 {
		n = 0
	}
	a.activeUsers = n
	a.updatedAt = now
}

// DetermineWinner resolves the terminal winner: the highest accepted bidder,
// provided the reserve price (when set) has been met.
func (a *Auction) DetermineWinner() *Winner {
	if a.lastBid == nil {
		return nil
	}
	if a.reservePrice != nil && a.currentPrice.LessThan(*a.reservePrice) {
		return nil
	}
	return &Winner{
		UserID:   a.lastBid.UserID,
		UserName: a.lastBid.UserName,
		Amount:   a.lastBid.Amount,
	}
}
