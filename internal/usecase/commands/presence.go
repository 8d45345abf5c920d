package commands

import (
	"context"
	"log/slog"

	"quickbid/internal/domain/actor"
	"quickbid/internal/domain/auction"
	"quickbid/internal/infra"
	"quickbid/internal/pkg/clock"
	"quickbid/internal/pkg/errs"
	"quickbid/internal/realtime"
	"quickbid/internal/registry"

	"github.com/google/uuid"
)

// PresenceCommands tracks viewers entering and leaving auction rooms. The
// websocket endpoint updates hub membership first, then calls in here so the
// activeUsers count on state always reflects the room.
type PresenceCommands interface {
	JoinAuction(ctx context.Context, auctionID uuid.UUID, viewer actor.Actor, connID string) error
	LeaveAuction(ctx context.Context, auctionID uuid.UUID, viewer actor.Actor) error
}

type presenceUseCaseImpl struct {
	registry *registry.Registry
	fanout   Fanout
	clock    clock.Clock
	log      *slog.Logger
}

func NewPresenceCommands(reg *registry.Registry, fanout Fanout, clk clock.Clock, log *slog.Logger) PresenceCommands {
	if log == nil {
		log = slog.Default()
	}
	return &presenceUseCaseImpl{
		registry: reg,
		fanout:   fanout,
		clock:    clk,
		log:      log,
	}
}

func (u *presenceUseCaseImpl) JoinAuction(ctx context.Context, auctionID uuid.UUID, viewer actor.Actor, connID string) error {
	entry, err := u.registry.Acquire(ctx, auctionID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, ErrAuctionNotFound)
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	active := u.fanout.RoomSize(auctionID)
	_ = entry.Do(func(a *auction.Auction) error {
		a.SetActiveUsers(active, u.clock.Now())
		return nil
	})
	snap := entry.Snapshot()

	// The joiner gets the full state before the room hears about them.
	u.fanout.Unicast(connID, realtime.TypeAuctionState, auctionID, snap)
	u.fanout.Broadcast(auctionID, realtime.TypeUserJoined, realtime.PresencePayload{
		UserID:      viewer.ID,
		UserName:    viewer.Name,
		ActiveUsers: active,
	})
	return nil
}

func (u *presenceUseCaseImpl) LeaveAuction(ctx context.Context, auctionID uuid.UUID, viewer actor.Actor) error {
	entry, err := u.registry.Acquire(ctx, auctionID)
	if err != nil {
		return err
	}

	active := u.fanout.RoomSize(auctionID)
	_ = entry.Do(func(a *auction.Auction) error {
		a.SetActiveUsers(active, u.clock.Now())
		return nil
	})

	u.fanout.Broadcast(auctionID, realtime.TypeUserLeft, realtime.PresencePayload{
		UserID:      viewer.ID,
		UserName:    viewer.Name,
		ActiveUsers: active,
	})
	return nil
}
