// Package types holds the primitive value types shared by the marketplace
// core, the swap utility, and the storage layers.
package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies an account, a token contract, or the marketplace itself.
// It is a raw 20-byte identifier, rendered as 0x-prefixed hex.
type Address [20]byte

// NativeCurrencyAddress is the conventional sentinel address clients use to
// select the native-asset payment rail. Payment routing never dereferences it.
var NativeCurrencyAddress = MustParseAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// ZeroAddress is the all-zero address. It is never a valid participant.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed or bare 40-character hex string.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 40 {
		return a, fmt.Errorf("invalid address length: expected 40 hex characters, got %d", len(s))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address hex: %w", err)
	}
	copy(a[:], decoded)
	return a, nil
}

// MustParseAddress parses an address and panics on failure.
// Intended for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// IsNativeSentinel reports whether the address is the native-currency sentinel.
func (a Address) IsNativeSentinel() bool {
	return a == NativeCurrencyAddress
}

// MarshalText implements encoding.TextMarshaler so addresses render as hex in
// JSON payloads and log fields.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
