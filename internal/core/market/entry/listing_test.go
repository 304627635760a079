package entry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

func TestListingStorageRoundTrip(t *testing.T) {
	seller := types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	contract := types.MustParseAddress("0x00000000000000000000000000000000000000c3")
	in := &Listing{
		ID:            7,
		Seller:        seller,
		TokenContract: contract,
		TokenID:       2,
		UnitPrice:     150,
		Remaining:     3,
		Expiry:        1700000000,
		Flags:         LsfCancelled,
	}

	data, err := SerializeListing(in)
	require.NoError(t, err)
	out, err := ParseListing(data)
	require.NoError(t, err)
	require.Equal(t, in, out)

	_, err = SerializeListing(nil)
	require.Error(t, err)
	_, err = ParseListing([]byte{0xff, 0xff})
	require.Error(t, err)
}

func TestListingClosedStates(t *testing.T) {
	l := &Listing{Remaining: 2}
	require.False(t, l.IsClosed())
	require.False(t, l.IsCancelled())

	// Sold out: closed but not cancelled.
	l.Remaining = 0
	require.True(t, l.IsClosed())
	require.False(t, l.IsCancelled())

	// Cancelled listings are tombstones with both markers.
	l.Flags |= LsfCancelled
	require.True(t, l.IsClosed())
	require.True(t, l.IsCancelled())
}

func TestFeeSettingsRoundTrip(t *testing.T) {
	in := &FeeSettings{
		Recipient: types.MustParseAddress("0x00000000000000000000000000000000000000f1"),
		Percent:   2,
	}
	data, err := SerializeFeeSettings(in)
	require.NoError(t, err)
	out, err := ParseFeeSettings(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestCountersRoundTrip(t *testing.T) {
	in := &Counters{NextListingID: 42, JournalSeq: 7}
	data, err := SerializeCounters(in)
	require.NoError(t, err)
	out, err := ParseCounters(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestAccountRootRoundTrip(t *testing.T) {
	in := &AccountRoot{
		Address: types.MustParseAddress("0x00000000000000000000000000000000000000a1"),
		Balance: 12345,
	}
	data, err := SerializeAccountRoot(in)
	require.NoError(t, err)
	out, err := ParseAccountRoot(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
