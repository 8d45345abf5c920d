//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quickbid/internal/domain/auction"
	"quickbid/internal/realtime"
	"quickbid/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceBid_TimedIncrementFloor(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{AutoExtend: true},
		startPrice: 1000,
		active:     true,
	})

	// 5% of 1000 is 50, below the 100 rupee floor, so 1050 is short.
	res := w.placeBid(t, id, 1050)
	require.False(t, res.Accepted)
	assert.Equal(t, auction.ReasonIncrementTooSmall, res.Reason)
	assert.Equal(t, 0, res.State.TotalBids)

	res = w.placeBid(t, id, 1100)
	require.True(t, res.Accepted)
	assert.True(t, res.State.CurrentPrice.Equal(auction.MoneyFromRupees(1100)))
	assert.Equal(t, 1, res.State.TotalBids)
	require.NotNil(t, res.State.LastBid)
	assert.Equal(t, "bidder", res.State.LastBid.UserName)
}

func TestPlaceBid_FlashIncrementFloor(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.FlashSettings{},
		startPrice: 500,
		active:     true,
	})

	// 1% of 500 is 5, so the 50 rupee floor governs.
	res := w.placeBid(t, id, 549)
	require.False(t, res.Accepted)
	assert.Equal(t, auction.ReasonIncrementTooSmall, res.Reason)

	res = w.placeBid(t, id, 550)
	require.True(t, res.Accepted)
	assert.True(t, res.State.CurrentPrice.Equal(auction.MoneyFromRupees(550)))
}

func TestPlaceBid_TenderMinimumBidders(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TenderSettings{MinimumBidders: 3},
		startPrice: 10000,
		active:     true,
	})

	w.fanout.roomSize = 2
	require.NoError(t, w.presence.JoinAuction(context.Background(), id, testViewer(), "conn-1"))

	res := w.placeBid(t, id, 10500)
	require.False(t, res.Accepted)
	assert.Equal(t, auction.ReasonMinimumBiddersNotMet, res.Reason)

	w.fanout.roomSize = 3
	require.NoError(t, w.presence.JoinAuction(context.Background(), id, testViewer(), "conn-2"))

	res = w.placeBid(t, id, 10500)
	require.True(t, res.Accepted)
}

func TestPlaceBid_RejectsWhenNotActive(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{},
		startPrice: 1000,
	})

	res := w.placeBid(t, id, 2000)
	require.False(t, res.Accepted)
	assert.Equal(t, auction.ReasonAuctionNotActive, res.Reason)

	// Rejected bids never move state.
	assert.Equal(t, 0, res.State.TotalBids)
	assert.True(t, res.State.CurrentPrice.Equal(auction.MoneyFromRupees(1000)))
}

func TestPlaceBid_RejectsAfterEndTime(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{},
		startPrice: 1000,
		duration:   10 * time.Minute,
		active:     true,
	})

	w.clock.Add(11 * time.Minute)
	res := w.placeBid(t, id, 2000)
	require.False(t, res.Accepted)
	assert.Equal(t, auction.ReasonAuctionEnded, res.Reason)
}

func TestPlaceBid_BidTooLow(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{},
		startPrice: 1000,
		active:     true,
	})

	res := w.placeBid(t, id, 1000)
	require.False(t, res.Accepted)
	assert.Equal(t, auction.ReasonBidTooLow, res.Reason)
}

func TestPlaceBid_UnknownAuction(t *testing.T) {
	w := newWorld()

	_, err := w.bids.PlaceBid(context.Background(), commands.PlaceBidParams{
		AuctionID: uuid.New(),
		UserID:    uuid.New(),
		Amount:    auction.MoneyFromRupees(1000),
	})
	require.ErrorIs(t, err, commands.ErrAuctionNotFound)
}

func TestPlaceBid_AntiSnipingExtension(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{AutoExtend: true},
		startPrice: 1000,
		duration:   200 * time.Second,
		active:     true,
	})
	originalEnd := w.clock.Now().Add(200 * time.Second)

	res := w.placeBid(t, id, 1100)
	require.True(t, res.Accepted)
	require.True(t, res.ShouldExtend)
	require.NotNil(t, res.NewEndTime)
	assert.True(t, res.NewEndTime.Equal(originalEnd.Add(120*time.Second)))
	assert.True(t, res.State.IsExtended)
	assert.True(t, res.State.EndTime.Equal(*res.NewEndTime))

	// The timer is re-armed at the new deadline and the room hears about it.
	calls := w.scheduler.all()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Cancelled)
	assert.True(t, calls[0].Deadline.Equal(*res.NewEndTime))
	require.Len(t, w.fanout.byType(realtime.TypeAuctionExtended), 1)
}

func TestPlaceBid_NoExtensionOutsideWindow(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{AutoExtend: true},
		startPrice: 1000,
		duration:   time.Hour,
		active:     true,
	})

	res := w.placeBid(t, id, 1100)
	require.True(t, res.Accepted)
	assert.False(t, res.ShouldExtend)
	assert.False(t, res.State.IsExtended)
	assert.Empty(t, w.scheduler.all())
}

func TestPlaceBid_NoExtensionWithoutAutoExtend(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{AutoExtend: false},
		startPrice: 1000,
		duration:   200 * time.Second,
		active:     true,
	})

	res := w.placeBid(t, id, 1100)
	require.True(t, res.Accepted)
	assert.False(t, res.ShouldExtend)
}

func TestPlaceBid_BuyNowEndsImmediately(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.LiveSettings{},
		startPrice: 10000,
		buyNow:     int64Ptr(50000),
		active:     true,
	})

	res := w.placeBid(t, id, 50000)
	require.True(t, res.Accepted)
	require.True(t, res.AuctionEnded)
	assert.Equal(t, auction.StatusEnded, res.State.Status)
	require.NotNil(t, res.State.Winner)
	assert.True(t, res.State.Winner.Amount.Equal(auction.MoneyFromRupees(50000)))

	// Timer disarmed, outcome persisted, end announced.
	calls := w.scheduler.all()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Cancelled)
	require.Len(t, w.repo.savedOutcomes(), 1)
	require.Len(t, w.publisher.ends(), 1)
	ended := w.fanout.byType(realtime.TypeAuctionEnded)
	require.Len(t, ended, 1)
	payload, ok := ended[0].Payload.(realtime.AuctionEndedPayload)
	require.True(t, ok)
	assert.Equal(t, "buy_now", payload.EndedBy)
}

func TestPlaceBid_PublishesAndBroadcasts(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{},
		startPrice: 1000,
		active:     true,
	})

	res := w.placeBid(t, id, 1100)
	require.True(t, res.Accepted)

	events := w.publisher.bids()
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].AuctionID)
	assert.Equal(t, auction.KindTimed, events[0].Type)
	assert.True(t, events[0].Bid.Amount.Equal(auction.MoneyFromRupees(1100)))

	require.Len(t, w.fanout.byType(realtime.TypeBidPlaced), 1)
	confirmed := w.fanout.byType(realtime.TypeBidConfirmed)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "conn-1", confirmed[0].ConnID)
}

func TestPlaceBid_RejectionNotifiesBidderOnly(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{},
		startPrice: 1000,
		active:     true,
	})

	res := w.placeBid(t, id, 1000)
	require.False(t, res.Accepted)

	rejected := w.fanout.byType(realtime.TypeBidRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "conn-1", rejected[0].ConnID)
	assert.Empty(t, w.fanout.byType(realtime.TypeBidPlaced))
	assert.Empty(t, w.publisher.bids())
}

func TestPlaceBid_PanicBecomesInternalError(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.TimedSettings{},
		startPrice: 1000,
		active:     true,
	})
	w.publisher.panicNext = true

	res, err := w.bids.PlaceBid(context.Background(), commands.PlaceBidParams{
		AuctionID: id,
		UserID:    uuid.New(),
		UserName:  "bidder",
		Amount:    auction.MoneyFromRupees(1100),
		ConnID:    "conn-1",
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, auction.ReasonInternalError, res.Reason)

	bidErrors := w.fanout.byType(realtime.TypeBidError)
	require.Len(t, bidErrors, 1)
	assert.Equal(t, "conn-1", bidErrors[0].ConnID)
}

func TestPlaceBid_ConcurrentBidsSerialize(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.FlashSettings{},
		startPrice: 1000,
		active:     true,
	})

	// 1100 and 1105 both clear admission against the starting price, but
	// whichever lands second fails against the first one's committed price.
	amounts := []int64{1100, 1105}
	results := make([]*commands.PlaceBidResult, len(amounts))
	errors := make([]error, len(amounts))
	var wg sync.WaitGroup
	for i, amt := range amounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errors[i] = w.bids.PlaceBid(context.Background(), commands.PlaceBidParams{
				AuctionID: id,
				UserID:    uuid.New(),
				UserName:  "racer",
				Amount:    auction.MoneyFromRupees(amt),
			})
		}()
	}
	wg.Wait()
	for _, err := range errors {
		require.NoError(t, err)
	}

	var accepted, rejected int
	for _, res := range results {
		if res.Accepted {
			accepted++
		} else {
			rejected++
			assert.Contains(t, []auction.RejectReason{
				auction.ReasonBidTooLow,
				auction.ReasonIncrementTooSmall,
			}, res.Reason)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)

	snap, err := w.registry.Acquire(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Snapshot().TotalBids)
}

func TestPlaceBid_PriceMonotonicAcrossSeries(t *testing.T) {
	w := newWorld()
	id := w.seedAuction(t, auctionOpts{
		kind:       auction.FlashSettings{},
		startPrice: 1000,
		active:     true,
	})

	prev := auction.MoneyFromRupees(1000)
	for _, amt := range []int64{1100, 1200, 1300, 1400} {
		res := w.placeBid(t, id, amt)
		require.True(t, res.Accepted)
		assert.True(t, res.State.CurrentPrice.GreaterThan(prev))
		prev = res.State.CurrentPrice
	}
	assert.Equal(t, 4, w.registry.Snapshots()[0].TotalBids)
}
