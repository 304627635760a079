package entry

import (
	"errors"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

// Listing flags.
const (
	// LsfCancelled marks a listing that was closed by its seller rather than
	// sold out. Both kinds of closed listing have Remaining == 0; the flag
	// only matters to history and RPC readers.
	LsfCancelled uint32 = 0x00000001
)

// Listing is a seller's offer to sell a quantity of one token edition at a
// fixed unit price until an expiry time. Listings are never deleted: a closed
// or cancelled listing persists as a tombstone with Remaining == 0.
type Listing struct {
	ID            uint64        `codec:"id"`
	Seller        types.Address `codec:"seller"`
	TokenContract types.Address `codec:"token_contract"`
	TokenID       uint64        `codec:"token_id"`
	UnitPrice     uint64        `codec:"unit_price"`
	Remaining     uint64        `codec:"remaining"`
	Expiry        int64         `codec:"expiry"` // unix seconds, exclusive
	Flags         uint32        `codec:"flags"`
}

// IsClosed reports whether the listing can no longer be purchased for lack of
// inventory (sold out or cancelled). Expiry is a separate, time-based check.
func (l *Listing) IsClosed() bool {
	return l.Remaining == 0
}

// IsCancelled reports whether the listing was closed by its seller.
func (l *Listing) IsCancelled() bool {
	return l.Flags&LsfCancelled != 0
}

// SerializeListing serializes a listing for storage.
func SerializeListing(l *Listing) ([]byte, error) {
	if l == nil {
		return nil, errors.New("nil listing")
	}
	return marshal(l)
}

// ParseListing parses a stored listing.
func ParseListing(data []byte) (*Listing, error) {
	var l Listing
	if err := unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}
