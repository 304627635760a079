package market

import (
	"github.com/plip123/nft-marketplace/internal/core/keylet"
)

// LedgerView provides read/write access to marketplace ledger state. The
// engine never writes to a base view directly: operations run against an
// ApplyStateTable wrapping the view, and the table is flushed only on
// success.
type LedgerView interface {
	// Read reads a ledger entry. A missing entry is (nil, nil), not an error.
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks whether an entry exists.
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry. It is an error if the entry already exists.
	Insert(k keylet.Keylet, data []byte) error

	// Update replaces an existing entry.
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry.
	Erase(k keylet.Keylet) error
}
