package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quickbid/internal/domain/auction"
	"quickbid/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuctionRepository persists auction records. The engine reads a record once
// on registry hydration and writes the terminal outcome back when the auction
// ends; the in-memory registry is authoritative in between.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

const findAuctionByID = `
SELECT id, title, seller_id, category, images,
       auction_type, settings, status,
       start_price::text, current_price::text,
       reserve_price::text, buy_now_price::text,
       start_time, end_time, total_bids,
       last_bid, winner, is_extended,
       created_at, updated_at
FROM auctions
WHERE id = $1
`

func (r *AuctionRepository) FindByID(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	var (
		rec      auctionRow
		settings []byte
	)
	err := r.pool.QueryRow(ctx, findAuctionByID, id).Scan(
		&rec.ID, &rec.Title, &rec.SellerID, &rec.Category, &rec.Images,
		&rec.AuctionType, &settings, &rec.Status,
		&rec.StartPrice, &rec.CurrentPrice,
		&rec.ReservePrice, &rec.BuyNowPrice,
		&rec.StartTime, &rec.EndTime, &rec.TotalBids,
		&rec.LastBid, &rec.Winner, &rec.IsExtended,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("auction not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find auction", err, infra.KindDBFailure)
	}
	return rec.toEntity(settings)
}

const insertAuction = `
INSERT INTO auctions (
    id, title, seller_id, category, images,
    auction_type, settings, status,
    start_price, current_price, reserve_price, buy_now_price,
    start_time, end_time, total_bids,
    last_bid, winner, is_extended,
    created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8,
    $9::numeric, $10::numeric, $11::numeric, $12::numeric,
    $13, $14, $15,
    $16, $17, $18,
    $19, $20
)
`

func (r *AuctionRepository) Insert(ctx context.Context, a *auction.Auction) error {
	settings, err := auction.SettingsJSON(a.Kind())
	if err != nil {
		return infra.WrapRepoErr("failed to encode settings", err, infra.KindDBFailure)
	}
	lastBid, winner, err := encodeOutcome(a.LastBid(), a.Winner())
	if err != nil {
		return infra.WrapRepoErr("failed to encode bid state", err, infra.KindDBFailure)
	}

	snap := a.Snapshot()
	_, err = r.pool.Exec(ctx, insertAuction,
		snap.ID, snap.Title, snap.SellerID, snap.Category, snap.Images,
		string(snap.KindName), settings, string(snap.Status),
		snap.StartPrice.String(), snap.CurrentPrice.String(),
		moneyText(snap.ReservePrice), moneyText(snap.BuyNowPrice),
		snap.StartTime, snap.EndTime, snap.TotalBids,
		lastBid, winner, snap.IsExtended,
		snap.CreatedAt, snap.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return infra.WrapRepoErr("auction already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert auction", err, infra.KindDBFailure)
	}
	return nil
}

const saveOutcome = `
UPDATE auctions
SET status        = $2,
    current_price = $3::numeric,
    end_time      = $4,
    total_bids    = $5,
    last_bid      = $6,
    winner        = $7,
    is_extended   = $8,
    updated_at    = $9
WHERE id = $1
`

// SaveOutcome writes the terminal state of an ended auction. It intentionally
// overwrites the whole mutable slice of the record; the registry entry it came
// from was the only writer.
func (r *AuctionRepository) SaveOutcome(ctx context.Context, snap auction.Snapshot) error {
	lastBid, winner, err := encodeOutcome(snap.LastBid, snap.Winner)
	if err != nil {
		return infra.WrapRepoErr("failed to encode outcome", err, infra.KindDBFailure)
	}

	tag, err := r.pool.Exec(ctx, saveOutcome,
		snap.ID, string(snap.Status), snap.CurrentPrice.String(),
		snap.EndTime, snap.TotalBids,
		lastBid, winner, snap.IsExtended, snap.UpdatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to save auction outcome", err, infra.KindDBFailure)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("auction not found", nil, infra.KindNotFound)
	}
	return nil
}

type auctionRow struct {
	ID           uuid.UUID
	Title        string
	SellerID     uuid.UUID
	Category     *string
	Images       []string
	AuctionType  string
	Status       string
	StartPrice   string
	CurrentPrice string
	ReservePrice *string
	BuyNowPrice  *string
	StartTime    time.Time
	EndTime      time.Time
	TotalBids    int
	LastBid      []byte
	Winner       []byte
	IsExtended   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (rec auctionRow) toEntity(settings []byte) (*auction.Auction, error) {
	kind, err := auction.KindFromRecord(rec.AuctionType, settings)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to decode auction kind", err, infra.KindDBFailure)
	}
	status, ok := auction.ParseStatus(rec.Status)
	if !ok {
		return nil, infra.WrapRepoErr("unknown auction status "+rec.Status, nil, infra.KindDBFailure)
	}
	startPrice, err := auction.MoneyFromString(rec.StartPrice)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to decode start price", err, infra.KindDBFailure)
	}
	currentPrice, err := auction.MoneyFromString(rec.CurrentPrice)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to decode current price", err, infra.KindDBFailure)
	}
	reserve, err := moneyFromText(rec.ReservePrice)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to decode reserve price", err, infra.KindDBFailure)
	}
	buyNow, err := moneyFromText(rec.BuyNowPrice)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to decode buy-now price", err, infra.KindDBFailure)
	}

	var lastBid *auction.LastBid
	if len(rec.LastBid) > 0 {
		lastBid = &auction.LastBid{}
		if err := json.Unmarshal(rec.LastBid, lastBid); err != nil {
			return nil, infra.WrapRepoErr("failed to decode last bid", err, infra.KindDBFailure)
		}
	}
	var winner *auction.Winner
	if len(rec.Winner) > 0 {
		winner = &auction.Winner{}
		if err := json.Unmarshal(rec.Winner, winner); err != nil {
			return nil, infra.WrapRepoErr("failed to decode winner", err, infra.KindDBFailure)
		}
	}

	var category string
	if rec.Category != nil {
		category = *rec.Category
	}

	return auction.Reconstruct(auction.ReconstructParams{
		ID:           rec.ID,
		Title:        rec.Title,
		SellerID:     rec.SellerID,
		Category:     category,
		Images:       rec.Images,
		Kind:         kind,
		Status:       status,
		StartPrice:   startPrice,
		CurrentPrice: currentPrice,
		ReservePrice: reserve,
		BuyNowPrice:  buyNow,
		StartTime:    rec.StartTime,
		EndTime:      rec.EndTime,
		TotalBids:    rec.TotalBids,
		LastBid:      lastBid,
		Winner:       winner,
		IsExtended:   rec.IsExtended,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}), nil
}

func moneyText(m *auction.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

func moneyFromText(s *string) (*auction.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := auction.MoneyFromString(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func encodeOutcome(lastBid *auction.LastBid, winner *auction.Winner) ([]byte, []byte, error) {
	var lastBidJSON, winnerJSON []byte
	if lastBid != nil {
		b, err := json.Marshal(lastBid)
		if err != nil {
			return nil, nil, err
		}
		lastBidJSON = b
	}
	if winner != nil {
		b, err := json.Marshal(winner)
		if err != nil {
			return nil, nil, err
		}
		winnerJSON = b
	}
	return lastBidJSON, winnerJSON, nil
}
