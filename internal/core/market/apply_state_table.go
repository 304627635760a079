package market

import (
	"fmt"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
)

// Action is the kind of modification tracked for a ledger entry.
type Action int

const (
	// ActionCache means the entry was read but not modified.
	ActionCache Action = iota
	// ActionInsert means a new entry was created.
	ActionInsert
	// ActionModify means an existing entry was modified.
	ActionModify
	// ActionErase means an entry was deleted.
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "CachedEntry"
	case ActionInsert:
		return "CreatedEntry"
	case ActionModify:
		return "ModifiedEntry"
	case ActionErase:
		return "DeletedEntry"
	default:
		return "UnknownAction"
	}
}

// trackedEntry is a ledger entry buffered by the state table.
type trackedEntry struct {
	action   Action
	keylet   keylet.Keylet
	original []byte // nil for inserts
	current  []byte // nil after erase
}

// ApplyStateTable buffers every modification an operation makes so that a
// failing operation leaves the base view untouched, and so metadata about
// affected entries can be generated after a successful apply.
type ApplyStateTable struct {
	base  LedgerView
	items map[[32]byte]*trackedEntry
	order [][32]byte // first-touch order, for deterministic metadata
}

// NewApplyStateTable creates a state table over the given base view.
func NewApplyStateTable(base LedgerView) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[[32]byte]*trackedEntry),
	}
}

func (t *ApplyStateTable) track(k keylet.Keylet, e *trackedEntry) {
	e.keylet = k
	t.items[k.Key] = e
	t.order = append(t.order, k.Key)
}

// Read reads an entry, consulting buffered changes first.
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if e, ok := t.items[k.Key]; ok {
		if e.action == ActionErase {
			return nil, nil
		}
		return e.current, nil
	}
	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	if data != nil {
		t.track(k, &trackedEntry{action: ActionCache, original: data, current: data})
	}
	return data, nil
}

// Exists checks whether an entry exists, consulting buffered changes first.
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if e, ok := t.items[k.Key]; ok {
		return e.action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert buffers creation of a new entry.
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		if e.action != ActionErase {
			return fmt.Errorf("entry already exists")
		}
		// Re-inserting an erased entry becomes a modify of the original,
		// unless the entry never existed in the base view.
		if e.original == nil {
			e.action = ActionInsert
		} else {
			e.action = ActionModify
		}
		e.current = data
		return nil
	}
	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("entry already exists")
	}
	t.track(k, &trackedEntry{action: ActionInsert, current: data})
	return nil
}

// Update buffers modification of an existing entry.
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		switch e.action {
		case ActionErase:
			return fmt.Errorf("cannot update erased entry")
		case ActionInsert:
			e.current = data
		default:
			e.action = ActionModify
			e.current = data
		}
		return nil
	}
	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("cannot update missing entry")
	}
	t.track(k, &trackedEntry{action: ActionModify, original: original, current: data})
	return nil
}

// Erase buffers deletion of an entry.
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if e, ok := t.items[k.Key]; ok {
		if e.action == ActionErase {
			return fmt.Errorf("entry already erased")
		}
		if e.action == ActionInsert {
			// Inserted and erased within one operation: drop it entirely.
			e.action = ActionErase
			e.current = nil
			return nil
		}
		e.action = ActionErase
		e.current = nil
		return nil
	}
	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("cannot erase missing entry")
	}
	t.track(k, &trackedEntry{action: ActionErase, original: original})
	return nil
}

// AffectedEntry describes one ledger entry touched by a successful operation.
type AffectedEntry struct {
	Action    Action           `json:"action"`
	EntryType keylet.EntryType `json:"entry_type"`
	Key       [32]byte         `json:"key"`
}

// Apply flushes all buffered changes to the base view and returns the
// affected entries in first-touch order. Cached reads are not reported. A
// write failure rolls back every entry flushed before it, so the base view
// never exposes a partially applied operation.
func (t *ApplyStateTable) Apply() ([]AffectedEntry, error) {
	var affected []AffectedEntry
	var flushed []*trackedEntry
	for _, key := range t.order {
		e := t.items[key]
		switch e.action {
		case ActionCache:
			continue
		case ActionInsert:
			if e.current == nil {
				// Inserted then erased: nothing to persist.
				continue
			}
			if err := t.base.Insert(e.keylet, e.current); err != nil {
				return nil, t.unwind(fmt.Errorf("flush insert: %w", err), flushed)
			}
		case ActionModify:
			if err := t.base.Update(e.keylet, e.current); err != nil {
				return nil, t.unwind(fmt.Errorf("flush update: %w", err), flushed)
			}
		case ActionErase:
			if e.original == nil {
				continue
			}
			if err := t.base.Erase(e.keylet); err != nil {
				return nil, t.unwind(fmt.Errorf("flush erase: %w", err), flushed)
			}
		}
		flushed = append(flushed, e)
		affected = append(affected, AffectedEntry{
			Action:    e.action,
			EntryType: e.keylet.Type,
			Key:       key,
		})
	}
	return affected, nil
}

// unwind restores the entries flushed before a failed write, in reverse
// order, from their tracked originals.
func (t *ApplyStateTable) unwind(cause error, flushed []*trackedEntry) error {
	for i := len(flushed) - 1; i >= 0; i-- {
		e := flushed[i]
		var err error
		switch e.action {
		case ActionInsert:
			err = t.base.Erase(e.keylet)
		case ActionModify:
			err = t.base.Update(e.keylet, e.original)
		case ActionErase:
			err = t.base.Insert(e.keylet, e.original)
		}
		if err != nil {
			return fmt.Errorf("%w (rollback failed: %v)", cause, err)
		}
	}
	return cause
}
