package utxo

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/feescope/feescope/internal/testhelpers"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utxo-snapshot")

	set := NewSet()
	for _, block := range testhelpers.ChainOfBlocks(5, 50) {
		set.ApplyBlock(block)
	}
	set.collisionCount = 3
	set.duplicateCount = 1

	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(set, 4))
	require.NoError(t, store.Close())

	store, err = OpenSnapshotStore(path)
	require.NoError(t, err)
	defer store.Close()

	restored, height, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(4), height)
	require.Equal(t, set.Size(), restored.Size())
	require.Equal(t, set.active, restored.active)
	require.Equal(t, uint64(3), restored.CollisionCount())
	require.Equal(t, uint64(1), restored.DuplicateCount())
}

func TestSnapshotLoadEmptyStore(t *testing.T) {
	store, err := OpenSnapshotStore(filepath.Join(t.TempDir(), "utxo-snapshot"))
	require.NoError(t, err)
	defer store.Close()

	_, _, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshotSaveReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utxo-snapshot")
	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer store.Close()

	big := NewSet()
	for i := byte(0); i < 10; i++ {
		hash := chainhash.Hash{i}
		big.active[OutpointKey(&hash, 0)] = int64(i)
	}
	require.NoError(t, store.Save(big, 9))

	small := NewSet()
	hash := chainhash.Hash{0xff}
	small.active[OutpointKey(&hash, 1)] = 42
	require.NoError(t, store.Save(small, 12))

	restored, height, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(12), height)
	require.Equal(t, small.active, restored.active)
}
