//go:build unit

package auction_test

import (
	"testing"
	"time"

	"quickbid/internal/domain/auction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimumIncrement(t *testing.T) {
	cases := []struct {
		name  string
		kind  auction.Kind
		price int64
		want  int64
	}{
		{name: "live uses 2 percent above floor", kind: auction.LiveSettings{}, price: 10000, want: 200},
		{name: "live floors at 100", kind: auction.LiveSettings{}, price: 1000, want: 100},
		{name: "timed uses 5 percent above floor", kind: auction.TimedSettings{}, price: 10000, want: 500},
		{name: "timed floors at 100", kind: auction.TimedSettings{}, price: 1000, want: 100},
		{name: "flash uses 1 percent above floor", kind: auction.FlashSettings{}, price: 10000, want: 100},
		{name: "flash floors at 50", kind: auction.FlashSettings{}, price: 500, want: 50},
		{name: "tender is fixed 500", kind: auction.TenderSettings{MinimumBidders: 3}, price: 999999, want: 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := auction.MinimumIncrement(tc.kind, auction.MoneyFromRupees(tc.price))
			assert.True(t, got.Decimal().Equal(auction.MoneyFromRupees(tc.want).Decimal()),
				"want %d, got %s", tc.want, got)
		})
	}
}

func TestValidateForKind_Tender(t *testing.T) {
	a := newTestAuction(t, auction.TenderSettings{MinimumBidders: 3})
	a.SetActiveUsers(2, time.Now())

	assert.Equal(t, auction.ReasonMinimumBiddersNotMet, auction.ValidateForKind(a))

	a.SetActiveUsers(3, time.Now())
	assert.Empty(t, auction.ValidateForKind(a))
}

func TestValidateForKind_PassThrough(t *testing.T) {
	for _, k := range []auction.Kind{
		auction.LiveSettings{RequiresTokenDeposit: true},
		auction.TimedSettings{AutoExtend: true},
		auction.FlashSettings{},
	} {
		a := newTestAuction(t, k)
		assert.Empty(t, auction.ValidateForKind(a), "kind %s", k.Name())
	}
}

func TestPostBidPolicy(t *testing.T) {
	now := time.Now()

	t.Run("timed bid inside window extends by 120s", func(t *testing.T) {
		a := newTestAuctionEnding(t, auction.TimedSettings{AutoExtend: true}, now.Add(200*time.Second))
		extend, newEnd := auction.PostBidPolicy(a, now)
		require.True(t, extend)
		assert.Equal(t, a.EndTime().Add(120*time.Second), newEnd)
	})

	t.Run("timed bid outside window does not extend", func(t *testing.T) {
		a := newTestAuctionEnding(t, auction.TimedSettings{AutoExtend: true}, now.Add(301*time.Second))
		extend, _ := auction.PostBidPolicy(a, now)
		assert.False(t, extend)
	})

	t.Run("auto extend disabled never extends", func(t *testing.T) {
		a := newTestAuctionEnding(t, auction.TimedSettings{AutoExtend: false}, now.Add(10*time.Second))
		extend, _ := auction.PostBidPolicy(a, now)
		assert.False(t, extend)
	})

	t.Run("non timed kinds never extend", func(t *testing.T) {
		for _, k := range []auction.Kind{
			auction.LiveSettings{},
			auction.FlashSettings{},
			auction.TenderSettings{MinimumBidders: 1},
		} {
			a := newTestAuctionEnding(t, k, now.Add(10*time.Second))
			extend, _ := auction.PostBidPolicy(a, now)
			assert.False(t, extend, "kind %s", k.Name())
		}
	})
}

func TestKindFromRecord(t *testing.T) {
	cases := []struct {
		name     string
		typeName string
		settings string
		want     auction.Kind
		wantErr  bool
	}{
		{name: "live", typeName: "live", settings: `{"streamUrl":"rtmp://s","requiresTokenDeposit":true}`, want: auction.LiveSettings{StreamURL: "rtmp://s", RequiresTokenDeposit: true}},
		{name: "timed", typeName: "timed", settings: `{"autoExtend":true}`, want: auction.TimedSettings{AutoExtend: true}},
		{name: "flash", typeName: "flash", settings: `{}`, want: auction.FlashSettings{}},
		{name: "tender", typeName: "tender", settings: `{"minimumBidders":3}`, want: auction.TenderSettings{MinimumBidders: 3}},
		{name: "empty settings default", typeName: "timed", settings: "", want: auction.TimedSettings{}},
		{name: "unknown kind", typeName: "dutch", settings: `{}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := auction.KindFromRecord(tc.typeName, []byte(tc.settings))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
