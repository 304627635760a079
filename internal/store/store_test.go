package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"

	"github.com/plip123/nft-marketplace/internal/core/keylet"
	"github.com/plip123/nft-marketplace/internal/core/market"
	"github.com/plip123/nft-marketplace/internal/core/types"
	"github.com/plip123/nft-marketplace/internal/storage/database/memory"
)

func testAddr(b byte) types.Address {
	var addr types.Address
	addr[0] = b
	return addr
}

func TestStoreReadMissing(t *testing.T) {
	s, err := New(memory.NewDB())
	require.NoError(t, err)

	data, err := s.Read(keylet.Listing(1))
	require.NoError(t, err)
	require.Nil(t, data)

	exists, err := s.Exists(keylet.Listing(1))
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStoreInsertReadUpdateErase(t *testing.T) {
	s, err := New(memory.NewDB())
	require.NoError(t, err)
	k := keylet.Account(testAddr(1))

	require.NoError(t, s.Insert(k, []byte("v1")))
	data, err := s.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), data)

	require.NoError(t, s.Update(k, []byte("v2")))
	data, err = s.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), data)

	require.NoError(t, s.Erase(k))
	data, err = s.Read(k)
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestStoreInsertExisting(t *testing.T) {
	s, err := New(memory.NewDB())
	require.NoError(t, err)
	k := keylet.Listing(1)

	require.NoError(t, s.Insert(k, []byte("x")))
	require.ErrorIs(t, s.Insert(k, []byte("y")), errEntryExists)
}

func TestStoreUpdateMissing(t *testing.T) {
	s, err := New(memory.NewDB())
	require.NoError(t, err)
	require.ErrorIs(t, s.Update(keylet.Listing(1), []byte("x")), errEntryMissing)
}

func TestStoreCacheStaysCoherentAcrossWrites(t *testing.T) {
	db := memory.NewDB()
	s, err := NewWithCacheSize(db, 2)
	require.NoError(t, err)
	k := keylet.Counters()

	require.NoError(t, s.Insert(k, []byte("v1")))
	// Prime the cache, overwrite, then read again.
	_, err = s.Read(k)
	require.NoError(t, err)
	require.NoError(t, s.Update(k, []byte("v2")))

	data, err := s.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), data)

	// A second store over the same backend sees the persisted value, not a
	// cache artifact.
	fresh, err := New(db)
	require.NoError(t, err)
	data, err = fresh.Read(k)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), data)
}

func TestStoreCacheEvictionFallsBackToBackend(t *testing.T) {
	s, err := NewWithCacheSize(memory.NewDB(), 1)
	require.NoError(t, err)

	a := keylet.Listing(1)
	b := keylet.Listing(2)
	require.NoError(t, s.Insert(a, []byte("a")))
	require.NoError(t, s.Insert(b, []byte("b")))

	// Inserting b evicted a from the single-entry cache.
	data, err := s.Read(a)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), data)
}

func TestStoreKeyspaceSeparatesEntryTypes(t *testing.T) {
	// An account keylet and a listing keylet can collide on their 32-byte
	// hash only through the type byte prefix keeping them apart; entries of
	// different types must never shadow each other.
	s, err := New(memory.NewDB())
	require.NoError(t, err)

	require.NoError(t, s.Insert(keylet.Account(testAddr(1)), []byte("account")))
	require.NoError(t, s.Insert(keylet.Listing(1), []byte("listing")))

	data, err := s.Read(keylet.Account(testAddr(1)))
	require.NoError(t, err)
	require.Equal(t, []byte("account"), data)
}

func TestDBKeyLayout(t *testing.T) {
	k := keylet.Journal(7)
	key := dbKey(k)
	require.Len(t, key, 33)
	require.Equal(t, byte(keylet.TypeJournal), key[0])
	require.True(t, bytes.Equal(k.Key[:], key[1:]))
}

func TestJournalAppendAndReplay(t *testing.T) {
	db := memory.NewDB()
	j, err := OpenJournal(db)
	require.NoError(t, err)
	require.Equal(t, uint64(0), j.NextSeq())

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seq, err := j.Append("SellItem", at, []market.Event{
		market.SellItemEvent{Seller: testAddr(1), ListingID: 1, TokenID: 0, Quantity: 5},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(0), seq)

	seq, err = j.Append("BuyItem", at.Add(time.Minute), []market.Event{
		market.BuyItemEvent{Seller: testAddr(1), Buyer: testAddr(2), ListingID: 1, Quantity: 2, PricePaid: 200},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)

	var records []JournalRecord
	require.NoError(t, j.Replay(func(rec JournalRecord) error {
		records = append(records, rec)
		return nil
	}))
	require.Len(t, records, 2)

	require.Equal(t, uint64(0), records[0].Seq)
	require.Equal(t, "SellItem", records[0].Op)
	require.Equal(t, at.Unix(), records[0].Time)
	require.Len(t, records[0].Events, 1)
	require.Equal(t, "SellItem", records[0].Events[0].Name)

	require.Equal(t, uint64(1), records[1].Seq)
	require.Equal(t, "BuyItem", records[1].Op)

	var ev market.BuyItemEvent
	require.NoError(t, decodeJournalEvent(records[1].Events[0].Data, &ev))
	require.Equal(t, uint64(200), ev.PricePaid)
	require.Equal(t, testAddr(2), ev.Buyer)
}

func TestJournalRecoversSequenceOnReopen(t *testing.T) {
	db := memory.NewDB()
	j, err := OpenJournal(db)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := j.Append("CancelOffer", time.Unix(1700000000, 0), []market.Event{
			market.CancelOfferEvent{Seller: testAddr(1), ListingID: uint64(i)},
		})
		require.NoError(t, err)
	}

	reopened, err := OpenJournal(db)
	require.NoError(t, err)
	require.Equal(t, uint64(5), reopened.NextSeq())

	seq, err := reopened.Append("CancelOffer", time.Unix(1700000100, 0), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(5), seq)
}

func TestJournalReplayStopsOnError(t *testing.T) {
	db := memory.NewDB()
	j, err := OpenJournal(db)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := j.Append("SellItem", time.Unix(1700000000, 0), nil)
		require.NoError(t, err)
	}

	var visited int
	stop := bytes.ErrTooLarge
	err = j.Replay(func(rec JournalRecord) error {
		visited++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, visited)
}

func TestJournalSeqFromKeyRejectsMalformed(t *testing.T) {
	_, err := journalSeqFromKey([]byte{0x01, 0x02})
	require.Error(t, err)

	wrongType := dbKey(keylet.Listing(1))
	_, err = journalSeqFromKey(wrongType)
	require.Error(t, err)

	good := dbKey(keylet.Journal(300))
	seq, err := journalSeqFromKey(good)
	require.NoError(t, err)
	require.Equal(t, uint64(300), seq)
}

func TestCompressBlobRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("marketplace journal record "), 100)
	blob := compressBlob(compressible)
	require.Equal(t, codecLZ4, blob[0])
	require.Less(t, len(blob), len(compressible))

	out, err := decompressBlob(blob)
	require.NoError(t, err)
	require.Equal(t, compressible, out)
}

func TestCompressBlobIncompressibleStaysRaw(t *testing.T) {
	// A short high-entropy payload does not shrink; it must round-trip
	// through the raw codec.
	input := []byte{0x8f, 0x3a, 0xc1, 0x55, 0x02, 0xee, 0x91, 0x7b, 0x40, 0x6d}
	blob := compressBlob(input)
	require.Equal(t, codecRaw, blob[0])

	out, err := decompressBlob(blob)
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestDecompressBlobRejectsGarbage(t *testing.T) {
	_, err := decompressBlob([]byte{0x01, 0x00})
	require.Error(t, err)

	_, err = decompressBlob([]byte{0xff, 0, 0, 0, 0})
	require.Error(t, err)

	// Raw blob with a lying size header.
	_, err = decompressBlob([]byte{codecRaw, 0, 0, 0, 9, 'x'})
	require.Error(t, err)
}

func decodeJournalEvent(data []byte, out any) error {
	return codec.NewDecoderBytes(data, journalHandle).Decode(out)
}
