// Package keylet derives the storage keys for marketplace ledger entries.
// A keylet pairs an entry type with a 32-byte key so readers can assert the
// kind of entry they expect before parsing it.
package keylet

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

// EntryType identifies the kind of ledger entry a keylet refers to.
type EntryType byte

const (
	TypeAccount     EntryType = 0x01
	TypeListing     EntryType = 0x02
	TypeFeeSettings EntryType = 0x03
	TypeCounters    EntryType = 0x04
	TypeJournal     EntryType = 0x05
)

// Namespace prefixes keep keys for different entry kinds disjoint even if
// their payloads collide.
const (
	nsAccount     = "account"
	nsListing     = "listing"
	nsFeeSettings = "fee_settings"
	nsCounters    = "counters"
	nsJournal     = "journal"
)

// Keylet is a typed reference to a ledger entry.
type Keylet struct {
	Type EntryType
	Key  [32]byte
}

func hashKey(namespace string, payload []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0x00})
	h.Write(payload)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Account returns the keylet for an account root entry.
func Account(addr types.Address) Keylet {
	return Keylet{Type: TypeAccount, Key: hashKey(nsAccount, addr[:])}
}

// Listing returns the keylet for a listing entry.
func Listing(id uint64) Keylet {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return Keylet{Type: TypeListing, Key: hashKey(nsListing, buf[:])}
}

// FeeSettings returns the keylet for the singleton fee configuration entry.
func FeeSettings() Keylet {
	return Keylet{Type: TypeFeeSettings, Key: hashKey(nsFeeSettings, nil)}
}

// Counters returns the keylet for the singleton counters entry that tracks
// the next listing identifier.
func Counters() Keylet {
	return Keylet{Type: TypeCounters, Key: hashKey(nsCounters, nil)}
}

// Journal returns the keylet for a journal record at the given sequence.
// Journal keys embed the big-endian sequence directly so records iterate in
// append order.
func Journal(seq uint64) Keylet {
	var key [32]byte
	copy(key[:], nsJournal)
	binary.BigEndian.PutUint64(key[24:], seq)
	return Keylet{Type: TypeJournal, Key: key}
}
