package queries

import (
	"context"
	"sort"

	"quickbid/internal/domain/auction"
	"quickbid/internal/infra"
	"quickbid/internal/pkg/errs"
	"quickbid/internal/registry"

	"github.com/google/uuid"
)

var ErrAuctionNotFound = errs.New("auction not found")

// AuctionQueries is the read side: snapshots straight out of the registry,
// hydrating through it on first access.
type AuctionQueries interface {
	Get(ctx context.Context, id uuid.UUID) (auction.Snapshot, error)
	List(ctx context.Context) []auction.Snapshot
}

type auctionQueriesImpl struct {
	registry *registry.Registry
}

func NewAuctionQueries(reg *registry.Registry) AuctionQueries {
	return &auctionQueriesImpl{registry: reg}
}

func (q *auctionQueriesImpl) Get(ctx context.Context, id uuid.UUID) (auction.Snapshot, error) {
	entry, err := q.registry.Acquire(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return auction.Snapshot{}, errs.Mark(err, ErrAuctionNotFound)
		}
		return auction.Snapshot{}, err
	}
	return entry.Snapshot(), nil
}

// List returns every auction this process currently owns, newest first.
func (q *auctionQueriesImpl) List(_ context.Context) []auction.Snapshot {
	snaps := q.registry.Snapshots()
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps
}
