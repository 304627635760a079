package testing

import (
	"sync"
	"time"

	"github.com/plip123/nft-marketplace/internal/collab"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// FakeEditions wraps the in-memory edition ledger with failure and
// re-entrancy hooks. TransferHook runs before the transfer executes, which
// is where a malicious receiver hook would re-enter the engine.
type FakeEditions struct {
	*collab.MemoryEditions

	// TransferErr, when set, makes every SafeTransferFrom fail.
	TransferErr error

	// TransferHook runs before each transfer. Returning an error fails the
	// transfer. The hook may call back into the engine to model
	// re-entrancy.
	TransferHook func(from, to types.Address, tokenID, amount uint64) error
}

// NewFakeEditions binds the ledger's transfer caller, normally the
// marketplace custody account.
func NewFakeEditions(caller types.Address) *FakeEditions {
	return &FakeEditions{MemoryEditions: collab.NewMemoryEditions(caller)}
}

func (f *FakeEditions) SafeTransferFrom(from, to types.Address, tokenID, amount uint64) error {
	if f.TransferHook != nil {
		if err := f.TransferHook(from, to, tokenID, amount); err != nil {
			return err
		}
	}
	if f.TransferErr != nil {
		return f.TransferErr
	}
	return f.MemoryEditions.SafeTransferFrom(from, to, tokenID, amount)
}

// FakeToken wraps the in-memory payment token with per-call failure hooks.
type FakeToken struct {
	*collab.MemoryToken

	// TransferFromErr fails payment collection; TransferErr fails payouts
	// and refunds.
	TransferFromErr error
	TransferErr     error

	// FailTransferTo fails only payouts to one address, for exercising
	// partial payout compensation.
	FailTransferTo types.Address
	failToSet      bool
}

func NewFakeToken(holder types.Address) *FakeToken {
	return &FakeToken{MemoryToken: collab.NewMemoryToken(holder)}
}

// FailTransfersTo arms the targeted payout failure.
func (f *FakeToken) FailTransfersTo(addr types.Address) {
	f.FailTransferTo = addr
	f.failToSet = true
}

func (f *FakeToken) TransferFrom(from, to types.Address, amount uint64) error {
	if f.TransferFromErr != nil {
		return f.TransferFromErr
	}
	return f.MemoryToken.TransferFrom(from, to, amount)
}

func (f *FakeToken) Transfer(to types.Address, amount uint64) error {
	if f.TransferErr != nil {
		return f.TransferErr
	}
	if f.failToSet && to == f.FailTransferTo {
		return errTargetedTransfer
	}
	return f.MemoryToken.Transfer(to, amount)
}

var errTargetedTransfer = &targetedTransferError{}

type targetedTransferError struct{}

func (*targetedTransferError) Error() string { return "transfer to target refused" }

// SwapCall records one leg executed by the fake router.
type SwapCall struct {
	AmountIn  uint64
	MinOut    uint64
	Token     types.Address
	Recipient types.Address
	Deadline  time.Time
}

// FakeRouter wraps the fixed-rate router, records every leg, and can be
// armed to fail a specific destination token.
type FakeRouter struct {
	*collab.FixedRateRouter

	mu        sync.Mutex
	Calls     []SwapCall
	FailToken types.Address
	failSet   bool
}

func NewFakeRouter() *FakeRouter {
	return &FakeRouter{FixedRateRouter: collab.NewFixedRateRouter()}
}

// FailLeg arms a failure for swaps into one token.
func (f *FakeRouter) FailLeg(token types.Address) {
	f.FailToken = token
	f.failSet = true
}

func (f *FakeRouter) SwapExactNativeForToken(amountIn, minOut uint64, token, recipient types.Address, deadline time.Time) (uint64, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, SwapCall{AmountIn: amountIn, MinOut: minOut, Token: token, Recipient: recipient, Deadline: deadline})
	f.mu.Unlock()
	if f.failSet && token == f.FailToken {
		return 0, &targetedTransferError{}
	}
	return f.FixedRateRouter.SwapExactNativeForToken(amountIn, minOut, token, recipient, deadline)
}
