package testing

import (
	stdtesting "testing"

	"github.com/stretchr/testify/require"

	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// RequireApplied asserts that an operation succeeded and was applied.
func RequireApplied(t *stdtesting.T, res market.ApplyResult) {
	t.Helper()
	require.True(t, res.Applied,
		"expected operation to apply, got %s: %s", res.Result, res.Message)
	require.Equal(t, market.Success, res.Result)
}

// RequireFailure asserts that an operation failed with a specific code and
// changed nothing.
func RequireFailure(t *stdtesting.T, res market.ApplyResult, expected market.Result) {
	t.Helper()
	require.False(t, res.Applied,
		"expected failure %s, but operation applied", expected)
	require.Equal(t, expected, res.Result,
		"expected %s, got %s: %s", expected, res.Result, res.Message)
}

// RequireNativeBalance asserts an account's native balance.
func RequireNativeBalance(t *stdtesting.T, env *TestEnv, addr types.Address, expected uint64) {
	t.Helper()
	require.Equal(t, expected, env.NativeBalance(addr),
		"native balance mismatch for %s", addr)
}

// RequireTokenBalance asserts a payment token balance.
func RequireTokenBalance(t *stdtesting.T, token *FakeToken, addr types.Address, expected uint64) {
	t.Helper()
	actual, err := token.BalanceOf(addr)
	require.NoError(t, err)
	require.Equal(t, expected, actual, "token balance mismatch for %s", addr)
}

// RequireEditionBalance asserts how many units of an edition an account
// holds.
func RequireEditionBalance(t *stdtesting.T, env *TestEnv, owner types.Address, tokenID, expected uint64) {
	t.Helper()
	held, err := env.Editions.BalanceOf(owner, tokenID)
	require.NoError(t, err)
	require.Equal(t, expected, held, "edition balance mismatch for %s", owner)
}

// RequireRemaining asserts a listing's remaining quantity.
func RequireRemaining(t *stdtesting.T, env *TestEnv, listingID, expected uint64) {
	t.Helper()
	listing, res := env.Engine.Listing(listingID)
	require.Equal(t, market.Success, res, "listing %d not readable", listingID)
	require.Equal(t, expected, listing.Remaining, "remaining mismatch for listing %d", listingID)
}
