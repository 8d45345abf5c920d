package commands

import (
	"context"
	"log/slog"
	"time"

	"quickbid/internal/domain/actor"
	"quickbid/internal/domain/auction"
	"quickbid/internal/infra"
	"quickbid/internal/pkg/clock"
	"quickbid/internal/pkg/errs"
	"quickbid/internal/realtime"
	"quickbid/internal/registry"

	"github.com/google/uuid"
)

type CreateAuctionParams struct {
	Title        string
	SellerID     uuid.UUID
	Category     string
	Images       []string
	Kind         auction.Kind
	StartPrice   auction.Money
	ReservePrice *auction.Money
	BuyNowPrice  *auction.Money
	StartTime    time.Time
	EndTime      time.Time
}

type EndAuctionParams struct {
	AuctionID uuid.UUID
	Actor     actor.Actor
	// WinnerOverride lets an admin settle a disputed auction on a specific
	// bidder instead of the recorded high bid.
	WinnerOverride *auction.Winner
}

type ControlCommands interface {
	CreateAuction(ctx context.Context, p CreateAuctionParams) (auction.Snapshot, error)
	StartAuction(ctx context.Context, id uuid.UUID, by actor.Actor) (auction.Snapshot, error)
	PauseAuction(ctx context.Context, id uuid.UUID, by actor.Actor) (auction.Snapshot, error)
	ResumeAuction(ctx context.Context, id uuid.UUID, by actor.Actor) (auction.Snapshot, error)
	EndAuction(ctx context.Context, p EndAuctionParams) (auction.Snapshot, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings auction.Kind) (auction.Snapshot, error)
	// HandleExpiry is the timer-fired end path. It attributes the end to the
	// system actor and treats a deadline that state has moved past as
	// obsolete.
	HandleExpiry(auctionID uuid.UUID, deadline time.Time)
}

type controlUseCaseImpl struct {
	registry  *registry.Registry
	repo      AuctionRepository
	publisher EventPublisher
	fanout    Fanout
	scheduler TimerScheduler
	clock     clock.Clock
	log       *slog.Logger
}

func NewControlCommands(
	reg *registry.Registry,
	repo AuctionRepository,
	publisher EventPublisher,
	fanout Fanout,
	scheduler TimerScheduler,
	clk clock.Clock,
	log *slog.Logger,
) ControlCommands {
	if log == nil {
		log = slog.Default()
	}
	return &controlUseCaseImpl{
		registry:  reg,
		repo:      repo,
		publisher: publisher,
		fanout:    fanout,
		scheduler: scheduler,
		clock:     clk,
		log:       log,
	}
}

func (u *controlUseCaseImpl) CreateAuction(ctx context.Context, p CreateAuctionParams) (auction.Snapshot, error) {
	a, err := auction.NewAuction(auction.NewAuctionParams{
		Title:        p.Title,
		SellerID:     p.SellerID,
		Category:     p.Category,
		Images:       p.Images,
		Kind:         p.Kind,
		StartPrice:   p.StartPrice,
		ReservePrice: p.ReservePrice,
		BuyNowPrice:  p.BuyNowPrice,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
	}, u.clock.Now())
	if err != nil {
		return auction.Snapshot{}, errs.Mark(err, ErrDomainValidation)
	}

	if err := u.repo.Insert(ctx, a); err != nil {
		return auction.Snapshot{}, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	entry := u.registry.Put(a)
	return entry.Snapshot(), nil
}

func (u *controlUseCaseImpl) StartAuction(ctx context.Context, id uuid.UUID, by actor.Actor) (auction.Snapshot, error) {
	snap, err := u.mutate(ctx, id, func(a *auction.Auction) error {
		return a.Start(u.clock.Now())
	})
	if err != nil {
		return auction.Snapshot{}, err
	}

	u.scheduler.Schedule(id, snap.EndTime)
	u.fanout.Broadcast(id, realtime.TypeAuctionStarted, realtime.AuctionLifecyclePayload{
		State: snap,
		Actor: by.Name,
	})
	u.log.Info("auction started", "auction_id", id, "actor", by.Name, "end_time", snap.EndTime)
	return snap, nil
}

func (u *controlUseCaseImpl) PauseAuction(ctx context.Context, id uuid.UUID, by actor.Actor) (auction.Snapshot, error) {
	snap, err := u.mutate(ctx, id, func(a *auction.Auction) error {
		return a.Pause(u.clock.Now())
	})
	if err != nil {
		return auction.Snapshot{}, err
	}

	u.scheduler.Cancel(id)
	u.fanout.Broadcast(id, realtime.TypeAuctionPaused, realtime.AuctionLifecyclePayload{
		State: snap,
		Actor: by.Name,
	})
	u.log.Info("auction paused", "auction_id", id, "actor", by.Name)
	return snap, nil
}

func (u *controlUseCaseImpl) ResumeAuction(ctx context.Context, id uuid.UUID, by actor.Actor) (auction.Snapshot, error) {
	snap, err := u.mutate(ctx, id, func(a *auction.Auction) error {
		return a.Resume(u.clock.Now())
	})
	if err != nil {
		return auction.Snapshot{}, err
	}

	u.scheduler.Schedule(id, snap.EndTime)
	u.fanout.Broadcast(id, realtime.TypeAuctionStarted, realtime.AuctionLifecyclePayload{
		State: snap,
		Actor: by.Name,
	})
	u.log.Info("auction resumed", "auction_id", id, "actor", by.Name)
	return snap, nil
}

func (u *controlUseCaseImpl) EndAuction(ctx context.Context, p EndAuctionParams) (auction.Snapshot, error) {
	var alreadyEnded bool
	snap, err := u.mutate(ctx, p.AuctionID, func(a *auction.Auction) error {
		winner := p.WinnerOverride
		if winner == nil {
			winner = a.DetermineWinner()
		}
		alreadyEnded = a.End(u.clock.Now(), winner)
		return nil
	})
	if err != nil {
		return auction.Snapshot{}, err
	}
	if alreadyEnded {
		// Idempotent terminal state: nothing to cancel, persist or announce.
		return snap, nil
	}

	u.scheduler.Cancel(p.AuctionID)
	finalize(ctx, u.repo, u.publisher, u.fanout, u.log, snap, p.Actor.Name)
	u.log.Info("auction ended", "auction_id", p.AuctionID, "actor", p.Actor.Name)
	return snap, nil
}

func (u *controlUseCaseImpl) UpdateSettings(ctx context.Context, id uuid.UUID, settings auction.Kind) (auction.Snapshot, error) {
	return u.mutate(ctx, id, func(a *auction.Auction) error {
		return a.UpdateSettings(settings, u.clock.Now())
	})
}

func (u *controlUseCaseImpl) HandleExpiry(auctionID uuid.UUID, deadline time.Time) {
	ctx := context.Background()
	entry, err := u.registry.Acquire(ctx, auctionID)
	if err != nil {
		u.log.Error("timer fired for unknown auction", "auction_id", auctionID, "error", err)
		return
	}

	var (
		obsolete     bool
		alreadyEnded bool
	)
	doErr := entry.Do(func(a *auction.Auction) error {
		if a.Status().IsTerminal() {
			alreadyEnded = true
			return nil
		}
		if a.EndTime().After(deadline) {
			// A concurrent extension moved the end past this timer's
			// deadline; this fire is stale.
			obsolete = true
			return nil
		}
		a.End(u.clock.Now(), a.DetermineWinner())
		return nil
	})
	if doErr != nil {
		u.log.Error("timer end failed", "auction_id", auctionID, "error", doErr)
		return
	}
	if alreadyEnded || obsolete {
		u.log.Debug("timer fire ignored", "auction_id", auctionID, "obsolete", obsolete)
		return
	}

	snap := entry.Snapshot()
	finalize(ctx, u.repo, u.publisher, u.fanout, u.log, snap, actor.System().Name)
	u.log.Info("auction auto-ended", "auction_id", auctionID)
}

func (u *controlUseCaseImpl) mutate(ctx context.Context, id uuid.UUID, fn func(a *auction.Auction) error) (auction.Snapshot, error) {
	entry, err := u.registry.Acquire(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return auction.Snapshot{}, errs.Mark(err, ErrAuctionNotFound)
		}
		return auction.Snapshot{}, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	var snap auction.Snapshot
	doErr := entry.Do(func(a *auction.Auction) error {
		if err := fn(a); err != nil {
			return err
		}
		snap = a.Snapshot()
		return nil
	})
	if doErr != nil {
		return auction.Snapshot{}, errs.Mark(doErr, ErrInvalidTransition)
	}
	return snap, nil
}
