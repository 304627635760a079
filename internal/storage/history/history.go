// Package history persists a queryable relational record of marketplace
// activity: listings created, sales settled, listings cancelled. It is a
// read model beside the ledger, rebuildable from the event journal.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

var (
	// ErrNotOpen is returned when using a repository before Open.
	ErrNotOpen = errors.New("history repository is not open")

	// ErrUnsupportedDriver is returned for a driver other than sqlite or
	// postgres.
	ErrUnsupportedDriver = errors.New("unsupported history driver")
)

// ListingRow records a created listing.
type ListingRow struct {
	ListingID uint64        `json:"listing_id"`
	Seller    types.Address `json:"seller"`
	TokenID   uint64        `json:"token_id"`
	UnitPrice uint64        `json:"unit_price"`
	Quantity  uint64        `json:"quantity"`
	Expiry    time.Time     `json:"expiry"`
	CreatedAt time.Time     `json:"created_at"`
}

// SaleRow records a settled purchase.
type SaleRow struct {
	ListingID  uint64        `json:"listing_id"`
	Seller     types.Address `json:"seller"`
	Buyer      types.Address `json:"buyer"`
	Quantity   uint64        `json:"quantity"`
	PricePaid  uint64        `json:"price_paid"`
	Currency   string        `json:"currency"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// CancellationRow records a seller cancellation.
type CancellationRow struct {
	ListingID  uint64        `json:"listing_id"`
	Seller     types.Address `json:"seller"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Repository is the trade history store.
type Repository interface {
	Open(ctx context.Context) error
	Close() error

	RecordListing(ctx context.Context, row ListingRow) error
	RecordSale(ctx context.Context, row SaleRow) error
	RecordCancellation(ctx context.Context, row CancellationRow) error

	// ListingsBySeller returns a seller's listings, newest first.
	ListingsBySeller(ctx context.Context, seller types.Address, limit int) ([]ListingRow, error)

	// SalesByAccount returns sales where the account was buyer or seller,
	// newest first.
	SalesByAccount(ctx context.Context, account types.Address, limit int) ([]SaleRow, error)

	// SalesByListing returns every sale against one listing in order.
	SalesByListing(ctx context.Context, listingID uint64) ([]SaleRow, error)
}
