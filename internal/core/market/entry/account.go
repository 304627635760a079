package entry

import (
	"errors"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

// AccountRoot holds an account's native-asset balance. Native settlement
// moves value between account roots inside the apply state table, so a failed
// purchase never leaves a partial balance change behind.
type AccountRoot struct {
	Address types.Address `codec:"address"`
	Balance uint64        `codec:"balance"`
}

// SerializeAccountRoot serializes an account root for storage.
func SerializeAccountRoot(a *AccountRoot) ([]byte, error) {
	if a == nil {
		return nil, errors.New("nil account root")
	}
	return marshal(a)
}

// ParseAccountRoot parses a stored account root.
func ParseAccountRoot(data []byte) (*AccountRoot, error) {
	var a AccountRoot
	if err := unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
