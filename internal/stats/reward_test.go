package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubsidySchedule(t *testing.T) {
	cases := []struct {
		height uint32
		want   int64
	}{
		{0, 50_0000_0000},
		{209_999, 50_0000_0000},
		{210_000, 25_0000_0000},
		{419_999, 25_0000_0000},
		{420_000, 12_5000_0000},
		{630_000, 6_2500_0000},
		{840_000, 3_1250_0000},
		{32 * 210_000, 1}, // last non-zero halving
		{33 * 210_000, 0},
		{100 * 210_000, 0},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Subsidy(c.height), "height %d", c.height)
	}
}

func TestBlockFee(t *testing.T) {
	require.Equal(t, int64(0), BlockFee(50_0000_0000, 0))
	require.Equal(t, int64(1234), BlockFee(50_0000_1234, 0))
	// miner claimed less than the subsidy, fee clamps at zero
	require.Equal(t, int64(0), BlockFee(49_0000_0000, 0))
	require.Equal(t, int64(5000), BlockFee(25_0000_5000, 210_000))
}
