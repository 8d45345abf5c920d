package commands

import (
	"context"
	"log/slog"
	"time"

	"quickbid/internal/domain/auction"
	"quickbid/internal/infra"
	"quickbid/internal/pkg/clock"
	"quickbid/internal/pkg/errs"
	"quickbid/internal/realtime"
	"quickbid/internal/registry"

	"github.com/google/uuid"
)

var (
	ErrAuctionNotFound         = errs.New("auction not found")
	ErrInvalidTransition       = errs.New("invalid auction state transition")
	ErrDomainValidation        = errs.New("domain validation error")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type PlaceBidParams struct {
	AuctionID uuid.UUID
	UserID    uuid.UUID
	UserName  string
	Amount    auction.Money
	// ConnID, when set, receives the private bidConfirmed/bidRejected
	// message. Bids arriving over HTTP leave it empty.
	ConnID string
}

// PlaceBidResult carries the admission outcome. Rejections are results, not
// errors; only a missing auction or an infrastructure failure is an error.
type PlaceBidResult struct {
	Accepted     bool
	Reason       auction.RejectReason
	Bid          *realtime.BidInfo
	State        auction.Snapshot
	ShouldExtend bool
	NewEndTime   *time.Time
	AuctionEnded bool
}

type BidCommands interface {
	PlaceBid(ctx context.Context, p PlaceBidParams) (*PlaceBidResult, error)
}

type bidUseCaseImpl struct {
	registry  *registry.Registry
	repo      AuctionRepository
	publisher EventPublisher
	fanout    Fanout
	scheduler TimerScheduler
	clock     clock.Clock
	log       *slog.Logger
}

func NewBidCommands(
	reg *registry.Registry,
	repo AuctionRepository,
	publisher EventPublisher,
	fanout Fanout,
	scheduler TimerScheduler,
	clk clock.Clock,
	log *slog.Logger,
) BidCommands {
	if log == nil {
		log = slog.Default()
	}
	return &bidUseCaseImpl{
		registry:  reg,
		repo:      repo,
		publisher: publisher,
		fanout:    fanout,
		scheduler: scheduler,
		clock:     clk,
		log:       log,
	}
}

// PlaceBid runs the admission protocol under the auction's exclusivity lock:
// kind checks, state checks, price checks, then the atomic commit with the
// post-bid extension policy. Broadcasts happen after the lock is released. A
// policy bug must not take down a connection handler, so panics surface as a
// generic internal_error rejection.
func (u *bidUseCaseImpl) PlaceBid(ctx context.Context, p PlaceBidParams) (result *PlaceBidResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			u.log.Error("bid admission panicked", "auction_id", p.AuctionID, "panic", rec)
			result = &PlaceBidResult{Reason: auction.ReasonInternalError}
			err = nil
			u.notifyRejection(p, result)
		}
	}()

	entry, err := u.registry.Acquire(ctx, p.AuctionID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrAuctionNotFound)
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	now := u.clock.Now()
	result = &PlaceBidResult{}

	admitErr := entry.Do(func(a *auction.Auction) error {
		if reason := auction.ValidateForKind(a); reason != "" {
			result.Reason = reason
			return nil
		}
		if a.Status() != auction.StatusActive {
			result.Reason = auction.ReasonAuctionNotActive
			return nil
		}
		if a.TimeLeft(now) <= 0 {
			result.Reason = auction.ReasonAuctionEnded
			return nil
		}
		if !p.Amount.GreaterThan(a.CurrentPrice()) {
			result.Reason = auction.ReasonBidTooLow
			return nil
		}
		minNext := a.CurrentPrice().Add(auction.MinimumIncrement(a.Kind(), a.CurrentPrice()))
		if p.Amount.LessThan(minNext) {
			result.Reason = auction.ReasonIncrementTooSmall
			return nil
		}
		isBuyNow := a.BuyNowPrice() != nil && p.Amount.GreaterThanOrEqual(*a.BuyNowPrice())

		bid := auction.Bid{
			ID:        uuid.New(),
			AuctionID: a.ID(),
			UserID:    p.UserID,
			UserName:  p.UserName,
			Amount:    p.Amount,
			Timestamp: now,
			IsBuyNow:  isBuyNow,
		}
		if err := a.AcceptBid(bid); err != nil {
			return err
		}
		result.Accepted = true
		result.Bid = &realtime.BidInfo{
			ID:        bid.ID,
			AuctionID: bid.AuctionID,
			UserID:    bid.UserID,
			UserName:  bid.UserName,
			Amount:    bid.Amount,
			Timestamp: bid.Timestamp,
			IsBuyNow:  bid.IsBuyNow,
		}

		if isBuyNow {
			// Meeting the buy-now price ends the auction on the spot with
			// this bidder as winner, regardless of remaining time.
			a.End(now, a.DetermineWinner())
			result.AuctionEnded = true
		} else if extend, newEnd := auction.PostBidPolicy(a, now); extend {
			if err := a.ExtendEnd(newEnd, now); err != nil {
				return err
			}
			result.ShouldExtend = true
			result.NewEndTime = &newEnd
		}

		result.State = a.Snapshot()
		return nil
	})
	if admitErr != nil {
		return nil, errs.Mark(admitErr, ErrDomainValidation)
	}

	if !result.Accepted {
		result.State = entry.Snapshot()
		u.notifyRejection(p, result)
		return result, nil
	}

	u.afterAccept(ctx, p, result)
	return result, nil
}

func (u *bidUseCaseImpl) afterAccept(ctx context.Context, p PlaceBidParams, result *PlaceBidResult) {
	if err := u.publisher.PublishBidPlaced(ctx, BidPlacedEvent{
		AuctionID: p.AuctionID,
		Bid:       *result.Bid,
		State:     result.State,
		Type:      result.State.KindName,
	}); err != nil {
		u.log.Error("failed to publish bidPlaced event", "auction_id", p.AuctionID, "error", err)
	}

	if p.ConnID != "" {
		u.fanout.Unicast(p.ConnID, realtime.TypeBidConfirmed, p.AuctionID, realtime.BidPlacedPayload{
			Bid:          *result.Bid,
			State:        result.State,
			ShouldExtend: result.ShouldExtend,
			NewEndTime:   result.NewEndTime,
		})
	}
	u.fanout.Broadcast(p.AuctionID, realtime.TypeBidPlaced, realtime.BidPlacedPayload{
		Bid:          *result.Bid,
		State:        result.State,
		ShouldExtend: result.ShouldExtend,
		NewEndTime:   result.NewEndTime,
	})

	switch {
	case result.AuctionEnded:
		u.scheduler.Cancel(p.AuctionID)
		u.finalizeEnd(ctx, result.State, "buy_now")
	case result.ShouldExtend:
		u.scheduler.Schedule(p.AuctionID, *result.NewEndTime)
		u.fanout.Broadcast(p.AuctionID, realtime.TypeAuctionExtended, realtime.AuctionExtendedPayload{
			NewEndTime: *result.NewEndTime,
		})
	}
}

func (u *bidUseCaseImpl) notifyRejection(p PlaceBidParams, result *PlaceBidResult) {
	if p.ConnID == "" {
		return
	}
	msgType := realtime.TypeBidRejected
	if result.Reason == auction.ReasonInternalError {
		msgType = realtime.TypeBidError
	}
	u.fanout.Unicast(p.ConnID, msgType, p.AuctionID, realtime.BidRejectedPayload{
		AuctionID: p.AuctionID,
		Reason:    result.Reason,
		Amount:    p.Amount,
	})
}

// finalizeEnd persists the terminal outcome and tells the world. Shared by
// buy-now, manual end and timer expiry; state is already committed when it
// runs.
func (u *bidUseCaseImpl) finalizeEnd(ctx context.Context, snap auction.Snapshot, endedBy string) {
	finalize(ctx, u.repo, u.publisher, u.fanout, u.log, snap, endedBy)
}

func finalize(
	ctx context.Context,
	repo AuctionRepository,
	publisher EventPublisher,
	fanout Fanout,
	log *slog.Logger,
	snap auction.Snapshot,
	endedBy string,
) {
	if err := repo.SaveOutcome(ctx, snap); err != nil {
		log.Error("failed to persist auction outcome", "auction_id", snap.ID, "error", err)
	}
	if err := publisher.PublishAuctionEnded(ctx, AuctionEndedEvent{
		AuctionID:  snap.ID,
		Winner:     snap.Winner,
		FinalPrice: snap.CurrentPrice,
		EndTime:    snap.EndTime,
	}); err != nil {
		log.Error("failed to publish auctionEnded event", "auction_id", snap.ID, "error", err)
	}
	fanout.Broadcast(snap.ID, realtime.TypeAuctionEnded, realtime.AuctionEndedPayload{
		State:      snap,
		Winner:     snap.Winner,
		FinalPrice: snap.CurrentPrice,
		EndedBy:    endedBy,
	})
}
