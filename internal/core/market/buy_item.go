package market

import (
	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market/entry"
	"github.com/plip123/nft-marketplace/internal/core/types"
)

// BuyItem purchases a quantity from a listing. The purchase is fully filled
// or fully failed; there are no partial fills. SellerHint must match the
// listing's seller so a buyer cannot be routed to a different listing than
// the one they inspected.
type BuyItem struct {
	Buyer      types.Address
	ListingID  uint64
	SellerHint types.Address
	Quantity   uint64

	// Currency selects the payment rail. PaymentValue is the attached
	// native value; it must equal the gross price on the native rail and
	// be zero on a token rail.
	Currency     Currency
	PaymentValue uint64
}

func (b *BuyItem) OpName() string { return "BuyItem" }

// ListingScope marks the purchase as exclusive on its listing while it runs.
func (b *BuyItem) ListingScope() uint64 { return b.ListingID }

func (b *BuyItem) Validate() error {
	if b.Buyer.IsZero() {
		return &CodedError{Code: InvalidParameter, Msg: "buyer address required"}
	}
	if b.Quantity == 0 {
		return NewCodedError(InvalidQuantity)
	}
	if !b.Currency.IsNative() && b.PaymentValue != 0 {
		return &CodedError{Code: InvalidPayment, Msg: "attached value must be zero for token payment"}
	}
	return nil
}

func (b *BuyItem) Apply(ctx *ApplyContext) Result {
	raw, err := ctx.View.Read(keylet.Listing(b.ListingID))
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
	if listing.Seller != b.SellerHint {
		return NotFound
	}
	if b.Buyer == listing.Seller {
		return SelfPurchase
	}
	if listing.Remaining == 0 || ctx.Now.Unix() >= listing.Expiry {
		return OutOfStock
	}
	if b.Quantity > listing.Remaining {
		return OutOfStock
	}

	gross, ok := types.MulUint64(listing.UnitPrice, b.Quantity)
	if !ok {
		return InvalidParameter
	}
	fees, err := readFeeSettings(ctx.View)
	if err != nil {
		return Internal
	}
	fee, net := types.FeeSplit(gross, fees.Percent)

	if b.Currency.IsNative() {
		if b.PaymentValue != gross {
			return InvalidPayment
		}
		if res := settleNative(ctx.View, b.Buyer, listing.Seller, fees.Recipient, net, fee); res != Success {
			return res
		}
		if res := decrementListing(ctx.View, b.ListingID, listing, b.Quantity); res != Success {
			return res
		}
		// The edition move is the only external call on this rail. If it
		// fails, discarding the table unwinds the balance moves and the
		// decrement together.
		if err := ctx.Engine.editions.SafeTransferFrom(listing.Seller, b.Buyer, listing.TokenID, b.Quantity); err != nil {
			return TransferFailed
		}
	} else {
		rail, ok := ctx.Engine.PaymentToken(b.Currency.TokenAddress())
		if !ok {
			return InvalidCurrency
		}
		if res := settleToken(ctx, rail, listing, b, fees.Recipient, gross, net, fee); res != Success {
			return res
		}
	}

	ctx.Emit(BuyItemEvent{
		Seller:    listing.Seller,
		Buyer:     b.Buyer,
		ListingID: b.ListingID,
		Quantity:  b.Quantity,
		PricePaid: gross,
	})
	return Success
}

// decrementListing buffers the inventory decrement in the state table. The
// listing entry reaches the base view only when the whole purchase succeeds.
func decrementListing(view LedgerView, id uint64, listing *entry.Listing, quantity uint64) Result {
	listing.Remaining -= quantity
	raw, err := entry.SerializeListing(listing)
	if err != nil {
		return Internal
	}
	if err := view.Update(keylet.Listing(id), raw); err != nil {
		return Internal
	}
	return Success
}
