package market

import "github.com/plip123/nft-marketplace/internal/core/types"

// EditionLedger is the external multi-edition token contract whose editions
// are traded on the marketplace. The marketplace never holds editions itself:
// sellers keep their tokens until settlement and the marketplace moves them
// using its operator approval (escrow-on-purchase).
type EditionLedger interface {
	// BalanceOf returns how many units of the edition the owner holds.
	BalanceOf(owner types.Address, tokenID uint64) (uint64, error)

	// IsApprovedForAll reports whether operator may move all of owner's
	// editions.
	IsApprovedForAll(owner, operator types.Address) (bool, error)

	// SafeTransferFrom moves amount units of the edition from one holder to
	// another. The implementation may run arbitrary receiver hooks; the
	// engine treats this call as a re-entrancy boundary.
	SafeTransferFrom(from, to types.Address, tokenID, amount uint64) error

	// CreateToken mints a new named edition with an initial quantity and
	// returns its identifier.
	CreateToken(name string, quantity uint64, to types.Address) (uint64, error)

	// TokenName returns the name an edition was created with.
	TokenName(tokenID uint64) (string, error)
}

// FungibleToken is an ERC20-style payment rail. Token settlement pulls the
// gross amount from the buyer by allowance and pays out from the marketplace
// account, so a failed payout can be refunded to the buyer.
type FungibleToken interface {
	BalanceOf(owner types.Address) (uint64, error)
	Allowance(owner, spender types.Address) (uint64, error)
	TransferFrom(from, to types.Address, amount uint64) error
	Transfer(to types.Address, amount uint64) error
}
