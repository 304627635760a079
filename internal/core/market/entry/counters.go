package entry

import "errors"

// Counters is the singleton entry tracking identifier allocation. Listing
// identifiers are sequential, unique, and never reused; the first allocated
// identifier is 1 so that 0 can mean "no listing" in client payloads.
type Counters struct {
	NextListingID uint64 `codec:"next_listing_id"`
	JournalSeq    uint64 `codec:"journal_seq"`
}

// SerializeCounters serializes the counters entry for storage.
func SerializeCounters(c *Counters) ([]byte, error) {
	if c == nil {
		return nil, errors.New("nil counters")
	}
	return marshal(c)
}

// ParseCounters parses the stored counters entry.
func ParseCounters(data []byte) (*Counters, error) {
	var c Counters
	if err := unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
