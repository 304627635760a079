package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/storage/database"
)

var journalHandle = func() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.Canonical = true
	return h
}()

// JournalEvent is one event inside a journal record. Data holds the
// CBOR-encoded event payload.
type JournalEvent struct {
	Name string `codec:"name"`
	Data []byte `codec:"data"`
}

// JournalRecord is one applied operation's worth of events.
type JournalRecord struct {
	Seq    uint64         `codec:"seq"`
	Time   int64          `codec:"time"`
	Op     string         `codec:"op"`
	Events []JournalEvent `codec:"events"`
}

// Journal is the append-only event log. Records are CBOR-encoded,
// lz4-compressed, and keyed by sequence so Replay visits them in append
// order. Indexers rebuild their state from a replay.
type Journal struct {
	db   database.DB
	next uint64
}

// OpenJournal scans the journal keyspace for the last written sequence and
// positions the journal after it.
func OpenJournal(db database.DB) (*Journal, error) {
	j := &Journal{db: db}
	iter, err := db.Iterator(context.Background(), dbKey(keylet.Journal(0)), dbKey(keylet.Journal(math.MaxUint64)))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal iterator: %w", err)
	}
	defer iter.Close()
	for iter.Next() {
		seq, err := journalSeqFromKey(iter.Key())
		if err != nil {
			return nil, err
		}
		j.next = seq + 1
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("journal scan failed: %w", err)
	}
	return j, nil
}

// journalSeqFromKey recovers the sequence from a journal database key: one
// type byte followed by the 32-byte keylet key with the big-endian sequence
// in its last eight bytes.
func journalSeqFromKey(key []byte) (uint64, error) {
	if len(key) != 33 || key[0] != byte(keylet.TypeJournal) {
		return 0, fmt.Errorf("malformed journal key of %d bytes", len(key))
	}
	var seq uint64
	for _, b := range key[25:] {
		seq = seq<<8 | uint64(b)
	}
	return seq, nil
}

// NextSeq returns the sequence the next Append will use.
func (j *Journal) NextSeq() uint64 { return j.next }

// Append writes one record for an applied operation and its events.
func (j *Journal) Append(op string, at time.Time, events []market.Event) (uint64, error) {
	rec := JournalRecord{
		Seq:    j.next,
		Time:   at.Unix(),
		Op:     op,
		Events: make([]JournalEvent, 0, len(events)),
	}
	for _, ev := range events {
		var data []byte
		if err := codec.NewEncoderBytes(&data, journalHandle).Encode(ev); err != nil {
			return 0, fmt.Errorf("failed to encode %s event: %w", ev.EventName(), err)
		}
		rec.Events = append(rec.Events, JournalEvent{Name: ev.EventName(), Data: data})
	}

	var raw []byte
	if err := codec.NewEncoderBytes(&raw, journalHandle).Encode(rec); err != nil {
		return 0, fmt.Errorf("failed to encode journal record: %w", err)
	}
	key := dbKey(keylet.Journal(rec.Seq))
	if err := j.db.Write(context.Background(), key, compressBlob(raw)); err != nil {
		return 0, fmt.Errorf("failed to write journal record %d: %w", rec.Seq, err)
	}
	j.next = rec.Seq + 1
	return rec.Seq, nil
}

// Replay visits every record from seq zero in append order. fn returning an
// error stops the replay.
func (j *Journal) Replay(fn func(JournalRecord) error) error {
	iter, err := j.db.Iterator(context.Background(), dbKey(keylet.Journal(0)), dbKey(keylet.Journal(math.MaxUint64)))
	if err != nil {
		return fmt.Errorf("failed to open journal iterator: %w", err)
	}
	defer iter.Close()
	for iter.Next() {
		raw, err := decompressBlob(iter.Value())
		if err != nil {
			return err
		}
		var rec JournalRecord
		if err := codec.NewDecoderBytes(raw, journalHandle).Decode(&rec); err != nil {
			return fmt.Errorf("failed to decode journal record: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}
