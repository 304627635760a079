// Package testing provides the marketplace test environment: an in-memory
// ledger view, a manual clock, funded accounts, and hookable collaborator
// fakes for driving the engine deterministically.
package testing

import (
	"crypto/sha256"
	stdtesting "testing"
	"time"

	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// Addr derives a deterministic address from a name. The same name always
// yields the same address, so tests can refer to accounts by name.
func Addr(name string) types.Address {
	sum := sha256.Sum256([]byte("test-account:" + name))
	var addr types.Address
	copy(addr[:], sum[:20])
	return addr
}

// TestEnv wires an engine over an in-memory view with fake collaborators.
type TestEnv struct {
	T     *stdtesting.T
	Clock *ManualClock
	View  *MemView

	Editions *FakeEditions
	TokenA   *FakeToken
	TokenB   *FakeToken

	TokenAAddr types.Address
	TokenBAddr types.Address

	Admin        types.Address
	FeeRecipient types.Address
	Marketplace  types.Address

	Engine *market.Engine
}

// NewTestEnv builds an environment with a zero fee percentage. Use
// NewTestEnvWithFee when the fee matters.
func NewTestEnv(t *stdtesting.T) *TestEnv {
	return NewTestEnvWithFee(t, 0)
}

// NewTestEnvWithFee builds an environment charging the given sale fee.
func NewTestEnvWithFee(t *stdtesting.T, feePercent uint8) *TestEnv {
	t.Helper()

	env := &TestEnv{
		T:            t,
		Clock:        NewManualClock(),
		View:         NewMemView(),
		Editions:     NewFakeEditions(Addr("marketplace")),
		TokenAAddr:   Addr("token-a-contract"),
		TokenBAddr:   Addr("token-b-contract"),
		Admin:        Addr("admin"),
		FeeRecipient: Addr("fee-recipient"),
		Marketplace:  Addr("marketplace"),
	}
	env.TokenA = NewFakeToken(env.Marketplace)
	env.TokenB = NewFakeToken(env.Marketplace)

	engine, err := market.NewEngine(env.View, market.EngineConfig{
		Admin:              env.Admin,
		MarketplaceAddress: env.Marketplace,
		EditionContract:    Addr("edition-contract"),
		FeeRecipient:       env.FeeRecipient,
		FeePercent:         feePercent,
		Clock:              env.Clock,
	}, env.Editions, map[types.Address]market.FungibleToken{
		env.TokenAAddr: env.TokenA,
		env.TokenBAddr: env.TokenB,
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	env.Engine = engine
	return env
}

// Submit applies an operation through the engine.
func (env *TestEnv) Submit(op market.Operation) market.ApplyResult {
	env.T.Helper()
	return env.Engine.Apply(op)
}

// FundNative credits native balance to an account.
func (env *TestEnv) FundNative(addr types.Address, amount uint64) {
	env.T.Helper()
	if err := env.Engine.CreditNative(addr, amount); err != nil {
		env.T.Fatalf("failed to fund %s: %v", addr, err)
	}
}

// NativeBalance reads an account's native balance.
func (env *TestEnv) NativeBalance(addr types.Address) uint64 {
	env.T.Helper()
	balance, err := env.Engine.NativeBalance(addr)
	if err != nil {
		env.T.Fatalf("failed to read balance of %s: %v", addr, err)
	}
	return balance
}

// CreateEdition mints a named edition to an owner and returns its id.
func (env *TestEnv) CreateEdition(owner types.Address, name string, quantity uint64) uint64 {
	env.T.Helper()
	id, err := env.Editions.CreateToken(name, quantity, owner)
	if err != nil {
		env.T.Fatalf("failed to create edition %q: %v", name, err)
	}
	return id
}

// ApproveMarketplace grants the marketplace operator approval for an owner.
func (env *TestEnv) ApproveMarketplace(owner types.Address) {
	env.Editions.SetApprovalForAll(owner, env.Marketplace, true)
}

// Sell creates a listing and returns its id, failing the test on rejection.
func (env *TestEnv) Sell(seller types.Address, tokenID, quantity, unitPrice uint64, duration time.Duration) uint64 {
	env.T.Helper()
	res := env.Submit(&market.SellItem{
		Seller:    seller,
		TokenID:   tokenID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Duration:  duration,
	})
	if !res.Applied {
		env.T.Fatalf("sell rejected: %s (%s)", res.Result, res.Message)
	}
	return ListingID(env.T, res)
}

// ListSomething is the common fixture: a seller holding an approved edition
// with an active listing. Returns the seller address, edition id, and
// listing id.
func (env *TestEnv) ListSomething(quantity, unitPrice uint64) (types.Address, uint64, uint64) {
	env.T.Helper()
	seller := Addr("seller")
	tokenID := env.CreateEdition(seller, "edition", quantity)
	env.ApproveMarketplace(seller)
	listingID := env.Sell(seller, tokenID, quantity, unitPrice, 10*24*time.Hour)
	return seller, tokenID, listingID
}

// ListingID extracts the listing id from a SellItem result.
func ListingID(t *stdtesting.T, res market.ApplyResult) uint64 {
	t.Helper()
	if res.Metadata == nil {
		t.Fatal("result carries no metadata")
	}
	for _, ev := range res.Metadata.Events {
		if sell, ok := ev.(market.SellItemEvent); ok {
			return sell.ListingID
		}
	}
	t.Fatal("result carries no SellItem event")
	return 0
}
