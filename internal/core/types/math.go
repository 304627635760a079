package types

import "math"

// MulUint64 multiplies two amounts, reporting overflow instead of wrapping.
// All price arithmetic in the marketplace goes through this helper so a
// malicious quantity cannot silently wrap a gross amount to a small number.
func MulUint64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

// AddUint64 adds two amounts, reporting overflow instead of wrapping.
func AddUint64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// FeeSplit computes the platform cut and the seller's net proceeds for a gross
// amount at a whole-percent fee rate. The fee is floored, so any remainder
// from integer division stays with the seller and fee+net always equals gross.
func FeeSplit(gross uint64, percent uint8) (fee, net uint64) {
	fee = gross / 100 * uint64(percent)
	rem := gross % 100 * uint64(percent) / 100
	fee += rem
	return fee, gross - fee
}
