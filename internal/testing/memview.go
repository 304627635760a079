package testing

import (
	"fmt"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
)

// MemView is an in-memory ledger view for engine tests.
type MemView struct {
	entries map[keylet.Keylet][]byte
}

func NewMemView() *MemView {
	return &MemView{entries: make(map[keylet.Keylet][]byte)}
}

func (v *MemView) Read(k keylet.Keylet) ([]byte, error) {
	data, ok := v.entries[k]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (v *MemView) Exists(k keylet.Keylet) (bool, error) {
	_, ok := v.entries[k]
	return ok, nil
}

func (v *MemView) Insert(k keylet.Keylet, data []byte) error {
	if _, ok := v.entries[k]; ok {
		return fmt.Errorf("entry already exists: type 0x%02x", byte(k.Type))
	}
	v.put(k, data)
	return nil
}

func (v *MemView) Update(k keylet.Keylet, data []byte) error {
	if _, ok := v.entries[k]; !ok {
		return fmt.Errorf("entry does not exist: type 0x%02x", byte(k.Type))
	}
	v.put(k, data)
	return nil
}

func (v *MemView) Erase(k keylet.Keylet) error {
	delete(v.entries, k)
	return nil
}

func (v *MemView) put(k keylet.Keylet, data []byte) {
	val := make([]byte, len(data))
	copy(val, data)
	v.entries[k] = val
}

// Len returns how many entries the view holds.
func (v *MemView) Len() int { return len(v.entries) }
