package blockindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/feescope/feescope/internal/types"
)

func testLocation(i byte) types.BlockLocation {
	return types.BlockLocation{
		FileID:     uint32(i),
		FileOffset: uint64(i) * 1000,
		ByteSize:   uint32(i) + 300,
		BlockHash:  chainhash.Hash{i, i, i},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.idx")

	idx := New()
	for i := byte(0); i < 10; i++ {
		idx.Insert(uint32(i), testLocation(i))
	}
	require.Equal(t, uint32(9), idx.Tip())
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint32(9), loaded.Tip())
	require.Equal(t, 10, loaded.NumBlocks())
	for i := byte(0); i < 10; i++ {
		loc, ok := loaded.Get(uint32(i))
		require.True(t, ok)
		require.Equal(t, testLocation(i), loc)
	}
	_, ok := loaded.Get(10)
	require.False(t, ok)
}

func TestInsertOverwritesForkEntry(t *testing.T) {
	idx := New()
	idx.Insert(3, testLocation(1))
	idx.Insert(3, testLocation(2))
	loc, ok := idx.Get(3)
	require.True(t, ok)
	require.Equal(t, testLocation(2), loc)
	require.Equal(t, 1, idx.NumBlocks())
}

func TestSaveRefusesGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.idx")

	idx := New()
	idx.Insert(0, testLocation(0))
	idx.Insert(2, testLocation(2))
	require.Error(t, idx.Save(path))
}

func TestLoadTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.idx")

	idx := New()
	for i := byte(0); i < 4; i++ {
		idx.Insert(uint32(i), testLocation(i))
	}
	require.NoError(t, idx.Save(path))

	// chop the last record in half
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-recordSize/2))

	_, err = Load(path)
	require.Error(t, err)
}
