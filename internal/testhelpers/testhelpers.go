// Package testhelpers builds tiny synthetic chains and block files for
// tests. Nothing here validates proof of work; the indexer never checks it.
package testhelpers

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// CoinbaseTx builds a coinbase transaction claiming the given output
// values. The height goes into the signature script so coinbases of
// different blocks get distinct txids.
func CoinbaseTx(height uint32, values ...int64) *wire.MsgTx {
	script := make([]byte, 5)
	script[0] = 4
	binary.LittleEndian.PutUint32(script[1:], height)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		SignatureScript:  script,
		Sequence:         0xffffffff,
	})
	for _, v := range values {
		tx.AddTxOut(wire.NewTxOut(v, []byte{0x51})) // OP_TRUE
	}
	return tx
}

// SpendTx builds a transaction spending one prior output into the given
// output values.
func SpendTx(prev chainhash.Hash, vout uint32, values ...int64) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: prev, Index: vout},
		Sequence:         0xffffffff,
	})
	for _, v := range values {
		tx.AddTxOut(wire.NewTxOut(v, []byte{0x51}))
	}
	return tx
}

// Block assembles a block on top of prev. The merkle root is faked from the
// first transaction's txid, which is enough to give every block a unique
// header hash.
func Block(prev chainhash.Hash, txs ...*wire.MsgTx) *wire.MsgBlock {
	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: prev,
			Timestamp: time.Unix(1231006505, 0),
			Bits:      0x1d00ffff,
		},
	}
	for _, tx := range txs {
		block.AddTransaction(tx)
	}
	if len(txs) > 0 {
		block.Header.MerkleRoot = txs[0].TxHash()
	}
	return block
}

// ChainOfBlocks builds n blocks starting at the genesis anchor (all-zero
// previous hash), each carrying just a coinbase.
func ChainOfBlocks(n int, subsidy int64) []*wire.MsgBlock {
	blocks := make([]*wire.MsgBlock, n)
	prev := chainhash.Hash{}
	for i := 0; i < n; i++ {
		blocks[i] = Block(prev, CoinbaseTx(uint32(i), subsidy))
		prev = blocks[i].BlockHash()
	}
	return blocks
}

// XORTransform applies the rolling 8-byte obfuscation in place, offset
// being the absolute file position of buf[0].
func XORTransform(buf []byte, key [8]byte, offset uint64) {
	for i := range buf {
		buf[i] ^= key[(offset+uint64(i))%8]
	}
}

// WriteBlockFile writes blocks into dir as blkNNNNN.dat with standard
// framing, obfuscated with key when nonzero, plus trailing zero padding the
// way the node pre-allocates space. Returns the offset of each block's
// framing record.
func WriteBlockFile(t *testing.T, dir string, fileID uint32, magic wire.BitcoinNet, key [8]byte, padding int, blocks ...*wire.MsgBlock) []uint64 {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]uint64, len(blocks))
	for i, block := range blocks {
		var payload bytes.Buffer
		require.NoError(t, block.Serialize(&payload))

		offsets[i] = uint64(buf.Len())
		var framing [8]byte
		binary.LittleEndian.PutUint32(framing[:4], uint32(magic))
		binary.LittleEndian.PutUint32(framing[4:], uint32(payload.Len()))
		buf.Write(framing[:])
		buf.Write(payload.Bytes())
	}

	data := buf.Bytes()
	if key != ([8]byte{}) {
		XORTransform(data, key, 0)
	}
	data = append(data, make([]byte, padding)...)

	path := filepath.Join(dir, fmt.Sprintf("blk%05d.dat", fileID))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return offsets
}

// WriteXORKey writes a blocks/xor.dat obfuscation key file.
func WriteXORKey(t *testing.T, dir string, key [8]byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xor.dat"), key[:], 0o644))
}
