package market

import "github.com/plip123/nft-marketplace/internal/core/types"

// Events are the observable log records of applied operations. Field order
// is part of the contract for downstream indexers and must not change.

// Event is implemented by every marketplace event.
type Event interface {
	// EventName returns the stable event name.
	EventName() string
}

// SellItemEvent is emitted when a listing is created.
type SellItemEvent struct {
	Seller    types.Address `json:"seller" codec:"seller"`
	ListingID uint64        `json:"listing_id" codec:"listing_id"`
	TokenID   uint64        `json:"token_id" codec:"token_id"`
	Quantity  uint64        `json:"quantity" codec:"quantity"`
}

func (SellItemEvent) EventName() string { return "SellItem" }

// BuyItemEvent is emitted when a purchase settles.
type BuyItemEvent struct {
	Seller    types.Address `json:"seller" codec:"seller"`
	Buyer     types.Address `json:"buyer" codec:"buyer"`
	ListingID uint64        `json:"listing_id" codec:"listing_id"`
	Quantity  uint64        `json:"quantity" codec:"quantity"`
	PricePaid uint64        `json:"price_paid" codec:"price_paid"`
}

func (BuyItemEvent) EventName() string { return "BuyItem" }

// CancelOfferEvent is emitted when a seller cancels a listing.
type CancelOfferEvent struct {
	Seller    types.Address `json:"seller" codec:"seller"`
	ListingID uint64        `json:"listing_id" codec:"listing_id"`
}

func (CancelOfferEvent) EventName() string { return "CancelOffer" }
