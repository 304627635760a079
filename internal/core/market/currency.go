package market

import (
	"fmt"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market/entry"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// Currency is the tagged payment-rail variant: either the native asset or an
// accepted ERC20-style token identified by its contract address. Settlement
// code dispatches on the variant instead of scattering address comparisons.
type Currency struct {
	native bool
	token  types.Address
}

// NativeCurrency returns the native-asset rail.
func NativeCurrency() Currency {
	return Currency{native: true}
}

// TokenCurrency returns the rail for a token contract.
func TokenCurrency(addr types.Address) Currency {
	return Currency{token: addr}
}

// ParseCurrency maps a client-supplied address to a currency. The
// conventional native sentinel address and the zero address both select the
// native rail.
func ParseCurrency(addr types.Address) Currency {
	if addr.IsZero() || addr.IsNativeSentinel() {
		return NativeCurrency()
	}
	return TokenCurrency(addr)
}

// IsNative reports whether this is the native-asset rail.
func (c Currency) IsNative() bool {
	return c.native
}

// TokenAddress returns the token contract address for a token rail.
func (c Currency) TokenAddress() types.Address {
	return c.token
}

func (c Currency) String() string {
	if c.native {
		return "native"
	}
	return c.token.String()
}

// readAccount loads an account root, or nil if the account has no entry.
func readAccount(view LedgerView, addr types.Address) (*entry.AccountRoot, error) {
	data, err := view.Read(keylet.Account(addr))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return entry.ParseAccountRoot(data)
}

// creditAccount adds to an account's native balance, creating the entry if
// the account has never held native funds.
func creditAccount(view LedgerView, addr types.Address, amount uint64) error {
	k := keylet.Account(addr)
	acct, err := readAccount(view, addr)
	if err != nil {
		return err
	}
	if acct == nil {
		data, err := entry.SerializeAccountRoot(&entry.AccountRoot{Address: addr, Balance: amount})
		if err != nil {
			return err
		}
		return view.Insert(k, data)
	}
	balance, ok := types.AddUint64(acct.Balance, amount)
	if !ok {
		return fmt.Errorf("balance overflow crediting %s", addr)
	}
	acct.Balance = balance
	data, err := entry.SerializeAccountRoot(acct)
	if err != nil {
		return err
	}
	return view.Update(k, data)
}

// settleNative moves the buyer's attached native value to the seller and the
// fee recipient inside the state table. Nothing here calls out of the
// engine, so a later failure aborts these balance changes with the table.
func settleNative(view LedgerView, buyer, seller, feeRecipient types.Address, net, fee uint64) Result {
	buyerAcct, err := readAccount(view, buyer)
	if err != nil {
		return Internal
	}
	gross := net + fee
	if buyerAcct == nil || buyerAcct.Balance < gross {
		return InsufficientFunds
	}
	buyerAcct.Balance -= gross
	data, err := entry.SerializeAccountRoot(buyerAcct)
	if err != nil {
		return Internal
	}
	if err := view.Update(keylet.Account(buyer), data); err != nil {
		return Internal
	}
	if err := creditAccount(view, seller, net); err != nil {
		return Internal
	}
	if fee > 0 {
		if err := creditAccount(view, feeRecipient, fee); err != nil {
			return Internal
		}
	}
	return Success
}

// collectToken pulls the gross amount from the buyer into the marketplace
// account using the buyer's allowance. Collection happens before any other
// interaction so a later failure can refund the buyer in full.
func collectToken(token FungibleToken, marketplace, buyer types.Address, gross uint64) Result {
	allowance, err := token.Allowance(buyer, marketplace)
	if err != nil {
		return TransferFailed
	}
	if allowance < gross {
		return InsufficientAllowance
	}
	balance, err := token.BalanceOf(buyer)
	if err != nil {
		return TransferFailed
	}
	if balance < gross {
		return InsufficientFunds
	}
	if err := token.TransferFrom(buyer, marketplace, gross); err != nil {
		return TransferFailed
	}
	return Success
}

// refundToken returns collected funds to the buyer after a failed leg.
// Best effort: the marketplace holds the funds, so the only failure mode is
// a broken token collaborator.
func refundToken(token FungibleToken, buyer types.Address, amount uint64) {
	_ = token.Transfer(buyer, amount)
}

// returnEditions sends custodied editions back to the seller after a failed
// settlement leg. The marketplace moves its own holdings, so this cannot be
// blocked by a revoked approval.
func returnEditions(editions EditionLedger, marketplace types.Address, listing *entry.Listing, quantity uint64) {
	_ = editions.SafeTransferFrom(marketplace, listing.Seller, listing.TokenID, quantity)
}

// settleToken runs the token rail. Both sides of the trade pass through
// marketplace custody: the gross is pulled from the buyer and the editions
// from the seller before anything is paid out, and the editions reach the
// buyer only after the seller and fee legs have both cleared. A failed leg
// returns the editions to the seller and refunds whatever custody still
// holds to the buyer.
func settleToken(ctx *ApplyContext, token FungibleToken, listing *entry.Listing, b *BuyItem, feeRecipient types.Address, gross, net, fee uint64) Result {
	marketplace := ctx.Config.MarketplaceAddress
	editions := ctx.Engine.editions

	if res := collectToken(token, marketplace, b.Buyer, gross); res != Success {
		return res
	}
	// A revoked approval or a short seller balance surfaces here, before
	// any payout, so the abort path is a plain refund.
	if err := editions.SafeTransferFrom(listing.Seller, marketplace, listing.TokenID, b.Quantity); err != nil {
		refundToken(token, b.Buyer, gross)
		return TransferFailed
	}
	if res := decrementListing(ctx.View, b.ListingID, listing, b.Quantity); res != Success {
		returnEditions(editions, marketplace, listing, b.Quantity)
		refundToken(token, b.Buyer, gross)
		return res
	}
	if err := token.Transfer(listing.Seller, net); err != nil {
		returnEditions(editions, marketplace, listing, b.Quantity)
		refundToken(token, b.Buyer, gross)
		return TransferFailed
	}
	if fee > 0 {
		if err := token.Transfer(feeRecipient, fee); err != nil {
			// The net already reached the seller and cannot be recalled; the
			// fee is still in custody and goes back to the buyer with the
			// editions going back to the seller.
			returnEditions(editions, marketplace, listing, b.Quantity)
			refundToken(token, b.Buyer, fee)
			return TransferFailed
		}
	}
	if err := editions.SafeTransferFrom(marketplace, b.Buyer, listing.TokenID, b.Quantity); err != nil {
		return TransferFailed
	}
	return Success
}
