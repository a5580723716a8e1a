package utxo

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/feescope/feescope/internal/testhelpers"
)

func TestApplyBlockTracksOutputs(t *testing.T) {
	set := NewSet()

	coinbase := testhelpers.CoinbaseTx(0, 30, 20)
	block := testhelpers.Block(chainhash.Hash{}, coinbase)
	flows := set.ApplyBlock(block)

	require.Len(t, flows, 1)
	require.True(t, flows[0].Coinbase)
	require.Equal(t, int64(50), flows[0].OutputValue)
	require.Equal(t, 2, set.Size())
}

func TestApplyBlockResolvesFees(t *testing.T) {
	set := NewSet()

	coinbase := testhelpers.CoinbaseTx(0, 50)
	genesis := testhelpers.Block(chainhash.Hash{}, coinbase)
	set.ApplyBlock(genesis)

	spend := testhelpers.SpendTx(coinbase.TxHash(), 0, 49)
	next := testhelpers.Block(genesis.BlockHash(), testhelpers.CoinbaseTx(1, 51), spend)
	flows := set.ApplyBlock(next)

	require.Len(t, flows, 2)
	require.True(t, flows[1].Resolved)
	require.Equal(t, int64(50), flows[1].InputValue)
	require.Equal(t, int64(49), flows[1].OutputValue)
	// coinbase output spent, two new outputs live
	require.Equal(t, 2, set.Size())
}

func TestIntraBlockSpend(t *testing.T) {
	set := NewSet()
	genesisCB := testhelpers.CoinbaseTx(0, 100)
	set.ApplyBlock(testhelpers.Block(chainhash.Hash{}, genesisCB))

	// b spends a's output created in the same block, so a's inputs must be
	// removed and its outputs inserted before b is processed
	a := testhelpers.SpendTx(genesisCB.TxHash(), 0, 90)
	b := testhelpers.SpendTx(a.TxHash(), 0, 80)
	block := testhelpers.Block(chainhash.Hash{0x01}, testhelpers.CoinbaseTx(1, 50), a, b)

	flows := set.ApplyBlock(block)
	require.True(t, flows[1].Resolved)
	require.True(t, flows[2].Resolved)
	require.Equal(t, int64(100), flows[1].InputValue)
	require.Equal(t, int64(90), flows[2].InputValue)
}

func TestMissingInputIsNotFatal(t *testing.T) {
	set := NewSet()
	spend := testhelpers.SpendTx(chainhash.Hash{0xab}, 3, 10)
	block := testhelpers.Block(chainhash.Hash{}, testhelpers.CoinbaseTx(0, 50), spend)

	flows := set.ApplyBlock(block)
	require.False(t, flows[1].Resolved)
	require.Equal(t, int64(0), flows[1].InputValue)
}

func TestUnspendableOutputsAreNotTracked(t *testing.T) {
	set := NewSet()
	tx := testhelpers.CoinbaseTx(0, 50)
	tx.TxOut[0].PkScript = []byte{0x6a, 0x02, 0xde, 0xad} // OP_RETURN

	flows := set.ApplyBlock(testhelpers.Block(chainhash.Hash{}, tx))
	require.Equal(t, int64(50), flows[0].OutputValue)
	require.Equal(t, 0, set.Size())
}

func TestDuplicateCoinbaseKeepsFirst(t *testing.T) {
	set := NewSet()
	coinbase := testhelpers.CoinbaseTx(7, 50)

	set.ApplyBlock(testhelpers.Block(chainhash.Hash{}, coinbase))
	set.ApplyBlock(testhelpers.Block(chainhash.Hash{0x02}, coinbase))

	require.Equal(t, 1, set.Size())
	require.Equal(t, uint64(1), set.DuplicateCount())
	require.Equal(t, uint64(0), set.CollisionCount())
}

func TestDigestCollisionOverwrites(t *testing.T) {
	set := NewSet()
	coinbase := testhelpers.CoinbaseTx(0, 50)
	txid := coinbase.TxHash()

	// plant a conflicting entry under the exact digest the insert will use
	key := OutpointKey(&txid, 0)
	set.active[key] = 1234

	set.ApplyBlock(testhelpers.Block(chainhash.Hash{}, coinbase))
	require.Equal(t, uint64(1), set.CollisionCount())
	require.Equal(t, int64(50), set.active[key])
	require.Equal(t, 1, set.Size())
}

func TestOutpointKeyDistinguishesVouts(t *testing.T) {
	hash := chainhash.Hash{0x01, 0x02}
	require.NotEqual(t, OutpointKey(&hash, 0), OutpointKey(&hash, 1))
}
