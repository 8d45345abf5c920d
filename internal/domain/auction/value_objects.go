package auction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Money is an amount in rupees. It wraps a decimal so percentage increment
// math stays exact.
type Money struct {
	amount decimal.Decimal
}

func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

func MoneyFromRupees(rupees int64) Money {
	return Money{amount: decimal.NewFromInt(rupees)}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errors.New("invalid money amount")
	}
	return Money{amount: d}, nil
}

func (m Money) Decimal() decimal.Decimal { return m.amount }
func (m Money) String() string           { return m.amount.String() }
func (m Money) IsPositive() bool         { return m.amount.IsPositive() }
func (m Money) IsZero() bool             { return m.amount.IsZero() }

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Percent returns p percent of the amount.
func (m Money) Percent(p int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(p)).Div(decimal.NewFromInt(100))}
}

func (m Money) Equal(other Money) bool              { return m.amount.Equal(other.amount) }
func (m Money) GreaterThan(other Money) bool        { return m.amount.GreaterThan(other.amount) }
func (m Money) GreaterThanOrEqual(other Money) bool { return m.amount.GreaterThanOrEqual(other.amount) }
func (m Money) LessThan(other Money) bool           { return m.amount.LessThan(other.amount) }

func MaxMoney(a, b Money) Money {
	if a.amount.GreaterThanOrEqual(b.amount) {
		return a
	}
	return b
}

func (m Money) MarshalJSON() ([]byte, error) {
	return m.amount.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.amount.UnmarshalJSON(data)
}

// Bid is the ephemeral admission request payload; it is not owned by the
// engine and only its accepted projection (LastBid) survives in state.
type Bid struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	UserID    uuid.UUID
	UserName  string
	Amount    Money
	Timestamp time.Time
	IsBuyNow  bool
}

// LastBid is the highest accepted bid recorded on auction state.
type LastBid struct {
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Amount    Money     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Winner is the terminal outcome of an ended auction.
type Winner struct {
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	Amount   Money     `json:"amount"`
}
