package market

import (
	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market/entry"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// CancelOffer closes a listing before it sells out. Only the seller may
// cancel, and only while inventory remains. The listing stays in the ledger
// as a cancelled tombstone.
type CancelOffer struct {
	Seller    types.Address
	ListingID uint64
}

func (c *CancelOffer) OpName() string { return "CancelOffer" }

// ListingScope marks the cancellation as exclusive on its listing.
func (c *CancelOffer) ListingScope() uint64 { return c.ListingID }

func (c *CancelOffer) Validate() error {
	if c.Seller.IsZero() {
		return &CodedError{Code: InvalidParameter, Msg: "seller address required"}
	}
	return nil
}

func (c *CancelOffer) Apply(ctx *ApplyContext) Result {
	raw, err := ctx.View.Read(keylet.Listing(c.ListingID))
	if err != nil {
		return Internal
	}
	if raw == nil {
		return NotFound
	}
	listing, err := entry.ParseListing(raw)
	if err != nil {
		return Internal
	}
	if listing.Seller != c.Seller {
		return NotSeller
	}
	if listing.IsClosed() {
		return AlreadyClosed
	}

	// Expired listings may still be cancelled; cancellation only marks the
	// tombstone, it does not release any escrow.
	listing.Remaining = 0
	listing.Flags |= entry.LsfCancelled
	raw, err = entry.SerializeListing(listing)
	if err != nil {
		return Internal
	}
	if err := ctx.View.Update(keylet.Listing(c.ListingID), raw); err != nil {
		return Internal
	}

	ctx.Emit(CancelOfferEvent{Seller: c.Seller, ListingID: c.ListingID})
	return Success
}
