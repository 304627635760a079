package market_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plip123/nft-marketplace/internal/core/market"
	mktest "github.com/plip123/nft-marketplace/internal/testing"
)

func TestSellItemCreatesListing(t *testing.T) {
	env := mktest.NewTestEnv(t)
	seller := mktest.Addr("seller")
	tokenID := env.CreateEdition(seller, "poster", 10)
	env.ApproveMarketplace(seller)

	res := env.Submit(&market.SellItem{
		Seller:    seller,
		TokenID:   tokenID,
		Quantity:  4,
		UnitPrice: 250,
		Duration:  24 * time.Hour,
	})
	mktest.RequireApplied(t, res)

	id := mktest.ListingID(t, res)
	require.Equal(t, uint64(1), id, "first listing id starts at 1")

	listing, code := env.Engine.Listing(id)
	require.Equal(t, market.Success, code)
	require.Equal(t, seller, listing.Seller)
	require.Equal(t, tokenID, listing.TokenID)
	require.Equal(t, uint64(250), listing.UnitPrice)
	require.Equal(t, uint64(4), listing.Remaining)
	require.Equal(t, env.Clock.Now().Add(24*time.Hour).Unix(), listing.Expiry)
	require.False(t, listing.IsClosed())
}

func TestSellItemEventFields(t *testing.T) {
	env := mktest.NewTestEnv(t)
	seller := mktest.Addr("seller")
	tokenID := env.CreateEdition(seller, "poster", 10)
	env.ApproveMarketplace(seller)

	res := env.Submit(&market.SellItem{
		Seller:    seller,
		TokenID:   tokenID,
		Quantity:  3,
		UnitPrice: 100,
		Duration:  time.Hour,
	})
	mktest.RequireApplied(t, res)

	require.Len(t, res.Metadata.Events, 1)
	ev, ok := res.Metadata.Events[0].(market.SellItemEvent)
	require.True(t, ok)
	require.Equal(t, seller, ev.Seller)
	require.Equal(t, tokenID, ev.TokenID)
	require.Equal(t, uint64(3), ev.Quantity)
}

func TestSellItemListingIDsIncrement(t *testing.T) {
	env := mktest.NewTestEnv(t)
	seller := mktest.Addr("seller")
	tokenID := env.CreateEdition(seller, "poster", 10)
	env.ApproveMarketplace(seller)

	first := env.Sell(seller, tokenID, 1, 100, time.Hour)
	second := env.Sell(seller, tokenID, 1, 100, time.Hour)
	require.Equal(t, first+1, second)
}

func TestSellItemValidationOrder(t *testing.T) {
	// The checks run in a fixed order: price, quantity, balance, duration,
	// approval. Each case breaks everything from its own check onward and
	// must surface its own code.
	env := mktest.NewTestEnv(t)
	seller := mktest.Addr("seller")
	tokenID := env.CreateEdition(seller, "poster", 5)

	cases := []struct {
		name string
		op   market.SellItem
		want market.Result
	}{
		{
			name: "price first",
			op:   market.SellItem{Seller: seller, TokenID: tokenID, Quantity: 0, UnitPrice: 0, Duration: 0},
			want: market.InvalidPrice,
		},
		{
			name: "quantity second",
			op:   market.SellItem{Seller: seller, TokenID: tokenID, Quantity: 0, UnitPrice: 100, Duration: 0},
			want: market.InvalidQuantity,
		},
		{
			name: "balance third",
			op:   market.SellItem{Seller: seller, TokenID: tokenID, Quantity: 6, UnitPrice: 100, Duration: 0},
			want: market.InsufficientBalance,
		},
		{
			name: "duration fourth",
			op:   market.SellItem{Seller: seller, TokenID: tokenID, Quantity: 5, UnitPrice: 100, Duration: 0},
			want: market.InvalidDuration,
		},
		{
			name: "approval last",
			op:   market.SellItem{Seller: seller, TokenID: tokenID, Quantity: 5, UnitPrice: 100, Duration: time.Hour},
			want: market.NotApproved,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			op := tc.op
			mktest.RequireFailure(t, env.Submit(&op), tc.want)
		})
	}
}

func TestSellItemVerbatimMessages(t *testing.T) {
	require.Equal(t, "Price must be greater than 0", market.InvalidPrice.Message())
	require.Equal(t, "Can not sell 0 tokens", market.InvalidQuantity.Message())
	require.Equal(t, "You do not have enough tokens", market.InsufficientBalance.Message())
}

func TestSellItemAllowsOversellingAcrossListings(t *testing.T) {
	// Two listings may reference the same balance; settlement rechecks the
	// seller's holdings when a purchase actually moves tokens.
	env := mktest.NewTestEnv(t)
	seller := mktest.Addr("seller")
	tokenID := env.CreateEdition(seller, "poster", 5)
	env.ApproveMarketplace(seller)

	env.Sell(seller, tokenID, 5, 100, time.Hour)
	env.Sell(seller, tokenID, 5, 100, time.Hour)
}

func TestSellItemRejectsZeroSeller(t *testing.T) {
	env := mktest.NewTestEnv(t)
	res := env.Submit(&market.SellItem{Quantity: 1, UnitPrice: 1, Duration: time.Hour})
	mktest.RequireFailure(t, res, market.InvalidParameter)
}

func TestSellItemFailureLeavesNoState(t *testing.T) {
	env := mktest.NewTestEnv(t)
	seller := mktest.Addr("seller")
	tokenID := env.CreateEdition(seller, "poster", 5)
	env.ApproveMarketplace(seller)

	mktest.RequireFailure(t, env.Submit(&market.SellItem{
		Seller: seller, TokenID: tokenID, Quantity: 5, UnitPrice: 100, Duration: 0,
	}), market.InvalidDuration)

	// The counter must not have moved: the next listing still gets id 1.
	id := env.Sell(seller, tokenID, 1, 100, time.Hour)
	require.Equal(t, uint64(1), id)
}
