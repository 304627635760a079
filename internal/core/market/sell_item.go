package market

import (
	"time"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market/entry"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// SellItem creates a fixed-price listing for a quantity of one token
// edition. The seller keeps the tokens; the marketplace only needs operator
// approval to move them at settlement time.
type SellItem struct {
	Seller    types.Address
	TokenID   uint64
	Quantity  uint64
	UnitPrice uint64
	Duration  time.Duration
}

func (s *SellItem) OpName() string { return "SellItem" }

// Validate checks the fields that need no ledger or collaborator state. The
// price, quantity, duration, balance, and approval checks run in Apply so
// their relative order is the same for every caller.
func (s *SellItem) Validate() error {
	if s.Seller.IsZero() {
		return &CodedError{Code: InvalidParameter, Msg: "seller address required"}
	}
	return nil
}

// Apply runs the listing checks in canonical order: price, quantity,
// balance, duration, approval. The first failing check decides the result.
func (s *SellItem) Apply(ctx *ApplyContext) Result {
	if s.UnitPrice == 0 {
		return InvalidPrice
	}
	if s.Quantity == 0 {
		return InvalidQuantity
	}
	balance, err := ctx.Engine.editions.BalanceOf(s.Seller, s.TokenID)
	if err != nil {
		return TransferFailed
	}
	if balance < s.Quantity {
		return InsufficientBalance
	}
	if s.Duration <= 0 {
		return InvalidDuration
	}
	approved, err := ctx.Engine.editions.IsApprovedForAll(s.Seller, ctx.Config.MarketplaceAddress)
	if err != nil {
		return TransferFailed
	}
	if !approved {
		return NotApproved
	}

	// Overselling the same balance across listings is allowed; settlement
	// rechecks the seller's holdings at purchase time.
	id, err := nextListingID(ctx.View)
	if err != nil {
		return Internal
	}
	listing := &entry.Listing{
		ID:            id,
		Seller:        s.Seller,
		TokenContract: ctx.Config.EditionContract,
		TokenID:       s.TokenID,
		UnitPrice:     s.UnitPrice,
		Remaining:     s.Quantity,
		Expiry:        ctx.Now.Add(s.Duration).Unix(),
	}
	raw, err := entry.SerializeListing(listing)
	if err != nil {
		return Internal
	}
	if err := ctx.View.Insert(keylet.Listing(id), raw); err != nil {
		return Internal
	}

	ctx.Emit(SellItemEvent{
		Seller:    s.Seller,
		ListingID: id,
		TokenID:   s.TokenID,
		Quantity:  s.Quantity,
	})
	return Success
}
