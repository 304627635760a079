package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulUint64(t *testing.T) {
	v, ok := MulUint64(1000, 7)
	require.True(t, ok)
	require.Equal(t, uint64(7000), v)

	v, ok = MulUint64(0, math.MaxUint64)
	require.True(t, ok)
	require.Equal(t, uint64(0), v)

	v, ok = MulUint64(math.MaxUint64, 1)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64), v)

	_, ok = MulUint64(math.MaxUint64, 2)
	require.False(t, ok)

	_, ok = MulUint64(math.MaxUint64/2+1, 2)
	require.False(t, ok)

	v, ok = MulUint64(math.MaxUint64/2, 2)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64-1), v)
}

func TestAddUint64(t *testing.T) {
	v, ok := AddUint64(1, 2)
	require.True(t, ok)
	require.Equal(t, uint64(3), v)

	v, ok = AddUint64(math.MaxUint64, 0)
	require.True(t, ok)
	require.Equal(t, uint64(math.MaxUint64), v)

	_, ok = AddUint64(math.MaxUint64, 1)
	require.False(t, ok)
}

func TestFeeSplit(t *testing.T) {
	cases := []struct {
		gross   uint64
		percent uint8
		fee     uint64
	}{
		{1000, 2, 20},
		{1000, 0, 0},
		{1000, 100, 1000},
		{99, 2, 1},     // floor(99*2/100)
		{49, 2, 0},     // fee floors to zero
		{707, 13, 91},  // floor(707*13/100)
		{1, 99, 0},
		{100, 1, 1},
	}
	for _, tc := range cases {
		fee, net := FeeSplit(tc.gross, tc.percent)
		require.Equal(t, tc.fee, fee, "gross=%d percent=%d", tc.gross, tc.percent)
		require.Equal(t, tc.gross, fee+net, "gross=%d percent=%d", tc.gross, tc.percent)
	}
}

func TestFeeSplitLargeGrossDoesNotOverflow(t *testing.T) {
	// The split works in two parts so gross*percent never has to fit in a
	// uint64. Near the top of the range it must still balance.
	for _, gross := range []uint64{math.MaxUint64, math.MaxUint64 - 1, math.MaxUint64 / 2} {
		for _, percent := range []uint8{1, 2, 50, 99, 100} {
			fee, net := FeeSplit(gross, percent)
			require.Equal(t, gross, fee+net, "gross=%d percent=%d", gross, percent)
			require.LessOrEqual(t, fee, gross)
		}
	}

	fee, _ := FeeSplit(math.MaxUint64, 100)
	require.Equal(t, uint64(math.MaxUint64), fee)
}
