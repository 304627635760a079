package entry

import (
	"errors"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

// MaxFeePercent bounds the platform fee. The fee is expressed in whole
// percent of the gross sale amount.
const MaxFeePercent uint8 = 100

// FeeSettings is the singleton fee configuration entry: who receives the
// platform cut and how large it is. Mutated only by the admin operations.
type FeeSettings struct {
	Recipient types.Address `codec:"recipient"`
	Percent   uint8         `codec:"percent"`
}

// SerializeFeeSettings serializes the fee configuration for storage.
func SerializeFeeSettings(f *FeeSettings) ([]byte, error) {
	if f == nil {
		return nil, errors.New("nil fee settings")
	}
	return marshal(f)
}

// ParseFeeSettings parses the stored fee configuration.
func ParseFeeSettings(data []byte) (*FeeSettings, error) {
	var f FeeSettings
	if err := unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
