package swap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/core/swap"
	"github.com/plip123/nft-marketplace/internal/core/types"
	mktest "github.com/plip123/nft-marketplace/internal/testing"
)

type splitFixture struct {
	router   *mktest.FakeRouter
	clock    *mktest.ManualClock
	splitter *swap.Splitter

	caller  types.Address
	custody types.Address
	tokenA  types.Address
	tokenB  types.Address
	tokenC  types.Address

	tokA *mktest.FakeToken
	tokB *mktest.FakeToken
	tokC *mktest.FakeToken
}

func newSplitFixture(t *testing.T) *splitFixture {
	t.Helper()
	// The development router checks leg deadlines against wall-clock time,
	// so the manual clock starts at the present rather than a fixed epoch.
	f := &splitFixture{
		router:  mktest.NewFakeRouter(),
		clock:   mktest.NewManualClockAt(time.Now()),
		caller:  mktest.Addr("swapper"),
		custody: mktest.Addr("marketplace"),
		tokenA:  mktest.Addr("token-a-contract"),
		tokenB:  mktest.Addr("token-b-contract"),
		tokenC:  mktest.Addr("token-c-contract"),
	}
	f.tokA = mktest.NewFakeToken(f.custody)
	f.tokB = mktest.NewFakeToken(f.custody)
	f.tokC = mktest.NewFakeToken(f.custody)
	f.router.SetRate(f.tokenA, f.tokA.MemoryToken, 2)
	f.router.SetRate(f.tokenB, f.tokB.MemoryToken, 3)
	f.router.SetRate(f.tokenC, f.tokC.MemoryToken, 1)
	rails := map[types.Address]market.FungibleToken{
		f.tokenA: f.tokA,
		f.tokenB: f.tokB,
		f.tokenC: f.tokC,
	}
	splitter, err := swap.NewSplitter(f.router, f.clock, f.custody, func(addr types.Address) (market.FungibleToken, bool) {
		rail, ok := rails[addr]
		return rail, ok
	})
	require.NoError(t, err)
	f.splitter = splitter
	return f
}

func (f *splitFixture) request(amount uint64, weights []uint8, dests ...types.Address) swap.Request {
	return swap.Request{
		Caller:       f.caller,
		AmountIn:     amount,
		PaymentValue: amount,
		Weights:      weights,
		Destinations: dests,
	}
}

func TestSplitEvenWeights(t *testing.T) {
	f := newSplitFixture(t)

	legs, code := f.splitter.Split(f.request(1000, []uint8{50, 50}, f.tokenA, f.tokenB))
	require.Equal(t, market.Success, code)
	require.Len(t, legs, 2)

	require.Equal(t, f.tokenA, legs[0].Token)
	require.Equal(t, uint64(500), legs[0].AmountIn)
	require.Equal(t, uint64(1000), legs[0].AmountOut)
	require.Equal(t, f.tokenB, legs[1].Token)
	require.Equal(t, uint64(500), legs[1].AmountIn)
	require.Equal(t, uint64(1500), legs[1].AmountOut)

	// Output is forwarded out of custody once both legs cleared.
	mktest.RequireTokenBalance(t, f.tokA, f.caller, 1000)
	mktest.RequireTokenBalance(t, f.tokB, f.caller, 1500)
	mktest.RequireTokenBalance(t, f.tokA, f.custody, 0)
	mktest.RequireTokenBalance(t, f.tokB, f.custody, 0)
}

func TestSplitSharesAlwaysSumToAmountIn(t *testing.T) {
	f := newSplitFixture(t)

	for _, tc := range []struct {
		amount  uint64
		weights []uint8
	}{
		{999, []uint8{33, 33, 34}},
		{101, []uint8{1, 99}},
		{7, []uint8{50, 50}},
		{1, []uint8{99, 1}},
		{1000000007, []uint8{13, 17, 70}},
	} {
		dests := []types.Address{f.tokenA, f.tokenB, f.tokenC}[:len(tc.weights)]
		legs, code := f.splitter.Split(f.request(tc.amount, tc.weights, dests...))
		require.Equal(t, market.Success, code, "amount=%d weights=%v", tc.amount, tc.weights)

		var total uint64
		for _, leg := range legs {
			total += leg.AmountIn
		}
		require.Equal(t, tc.amount, total, "amount=%d weights=%v", tc.amount, tc.weights)
	}
}

func TestSplitDustGoesToLastLeg(t *testing.T) {
	f := newSplitFixture(t)

	// 101 * 33 / 100 floors to 33 per leg; the remaining 2 units land on
	// the 34-weight leg on top of its own 34.
	legs, code := f.splitter.Split(f.request(101, []uint8{33, 33, 34}, f.tokenA, f.tokenB, f.tokenC))
	require.Equal(t, market.Success, code)
	require.Len(t, legs, 3)
	require.Equal(t, uint64(33), legs[0].AmountIn)
	require.Equal(t, uint64(33), legs[1].AmountIn)
	require.Equal(t, uint64(35), legs[2].AmountIn)
}

func TestSplitSkipsZeroShares(t *testing.T) {
	f := newSplitFixture(t)

	// A 1-unit amount with weight 99 floors to 0; only the dust-bearing
	// last leg runs.
	legs, code := f.splitter.Split(f.request(1, []uint8{99, 1}, f.tokenA, f.tokenB))
	require.Equal(t, market.Success, code)
	require.Len(t, legs, 1)
	require.Equal(t, f.tokenB, legs[0].Token)
	require.Equal(t, uint64(1), legs[0].AmountIn)
	require.Len(t, f.router.Calls, 1)
}

func TestSplitValidation(t *testing.T) {
	f := newSplitFixture(t)

	cases := []struct {
		name string
		req  swap.Request
		want market.Result
	}{
		{"no weights", f.request(100, nil), market.InvalidParameter},
		{"length mismatch", f.request(100, []uint8{50, 50}, f.tokenA), market.InvalidParameter},
		{"weights below hundred", f.request(100, []uint8{40, 40}, f.tokenA, f.tokenB), market.InvalidParameter},
		{"weights above hundred", f.request(100, []uint8{60, 60}, f.tokenA, f.tokenB), market.InvalidParameter},
		{"zero destination", f.request(100, []uint8{100}, types.ZeroAddress), market.InvalidParameter},
		{"zero amount", f.request(0, []uint8{100}, f.tokenA), market.InvalidPayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			legs, code := f.splitter.Split(tc.req)
			require.Equal(t, tc.want, code)
			require.Nil(t, legs)
		})
	}
	require.Empty(t, f.router.Calls, "rejected requests must not reach the router")
}

func TestSplitRejectsZeroCaller(t *testing.T) {
	f := newSplitFixture(t)
	req := f.request(100, []uint8{100}, f.tokenA)
	req.Caller = types.ZeroAddress
	_, code := f.splitter.Split(req)
	require.Equal(t, market.InvalidParameter, code)
}

func TestSplitPaymentMustEqualAmountIn(t *testing.T) {
	f := newSplitFixture(t)
	for _, payment := range []uint64{99, 101, 0} {
		req := f.request(100, []uint8{100}, f.tokenA)
		req.PaymentValue = payment
		_, code := f.splitter.Split(req)
		require.Equal(t, market.InvalidPayment, code)
	}
}

func TestSplitLegFailureAbortsWholeRequest(t *testing.T) {
	f := newSplitFixture(t)
	f.router.FailLeg(f.tokenB)

	legs, code := f.splitter.Split(f.request(1000, []uint8{40, 30, 30}, f.tokenA, f.tokenB, f.tokenC))
	require.Equal(t, market.TransferFailed, code)
	require.Nil(t, legs)

	// The failing leg stops the walk; the third leg is never attempted.
	require.Len(t, f.router.Calls, 2)
	require.Equal(t, f.tokenA, f.router.Calls[0].Token)
	require.Equal(t, f.tokenB, f.router.Calls[1].Token)

	// Nothing is delivered on a failed split: the first leg's output stays
	// in custody and never reaches the caller.
	mktest.RequireTokenBalance(t, f.tokA, f.caller, 0)
	mktest.RequireTokenBalance(t, f.tokB, f.caller, 0)
	mktest.RequireTokenBalance(t, f.tokC, f.caller, 0)
	mktest.RequireTokenBalance(t, f.tokA, f.custody, 800)
}

func TestSplitPassesDeadlineAndRecipient(t *testing.T) {
	f := newSplitFixture(t)

	_, code := f.splitter.Split(f.request(100, []uint8{100}, f.tokenA))
	require.Equal(t, market.Success, code)
	require.Len(t, f.router.Calls, 1)

	// Legs swap into custody, not to the caller; the caller is paid only
	// from custody after every leg has cleared.
	call := f.router.Calls[0]
	require.Equal(t, f.custody, call.Recipient)
	require.Equal(t, f.clock.Now().Add(5*time.Minute), call.Deadline)
	require.Equal(t, uint64(0), call.MinOut)
	mktest.RequireTokenBalance(t, f.tokA, f.caller, 200)
}

func TestSplitUnknownDestinationRejected(t *testing.T) {
	f := newSplitFixture(t)

	legs, code := f.splitter.Split(f.request(100, []uint8{50, 50}, f.tokenA, mktest.Addr("unrouted-token")))
	require.Equal(t, market.InvalidCurrency, code)
	require.Nil(t, legs)
	require.Empty(t, f.router.Calls, "unresolvable destinations must fail before any leg runs")
}
