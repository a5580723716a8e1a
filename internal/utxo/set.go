// Package utxo tracks the set of unspent transaction outputs while blocks
// are applied in ascending height order, so per-transaction input values
// (and therefore fees) can be recovered.
package utxo

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cespare/xxhash/v2"
)

// OutpointKey collapses an outpoint into a fixed-width 64-bit digest.
// Storing digests instead of 36-byte outpoints keeps hundreds of millions
// of entries in bounded memory; the price is that genuine collisions are
// possible and have to be counted rather than prevented.
func OutpointKey(txid *chainhash.Hash, vout uint32) uint64 {
	var buf [chainhash.HashSize + 4]byte
	copy(buf[:chainhash.HashSize], txid[:])
	binary.LittleEndian.PutUint32(buf[chainhash.HashSize:], vout)
	return xxhash.Sum64(buf[:])
}

// TxFlow summarizes the value flow of one applied transaction.
type TxFlow struct {
	Coinbase    bool
	InputValue  int64
	OutputValue int64
	// Resolved is false when at least one referenced output was not in
	// the set, e.g. because indexing started mid-chain. The fee of such a
	// transaction is unknown, never an error.
	Resolved bool
}

// Set is the mutable map of active outputs. It lives for exactly one
// command invocation and is handed through the iteration pipeline by the
// caller; it must only ever be mutated in ascending height order.
type Set struct {
	active         map[uint64]int64
	collisionCount uint64
	duplicateCount uint64
}

func NewSet() *Set {
	return &Set{active: make(map[uint64]int64)}
}

// Size returns the number of active outputs.
func (s *Set) Size() int {
	return len(s.active)
}

// CollisionCount returns how many inserts overwrote a different still-active
// outpoint that happened to share a digest. Last write wins; the count is a
// documented approximation, not a failure.
func (s *Set) CollisionCount() uint64 {
	return s.collisionCount
}

// DuplicateCount returns how many inserts re-created an already-active
// identical entry, which happens at the historically duplicated coinbase
// transactions. The first occurrence is kept.
func (s *Set) DuplicateCount() uint64 {
	return s.duplicateCount
}

// ApplyBlock folds one block into the set and returns one TxFlow per
// transaction, in block order. Within a block, each transaction's inputs
// are removed before its outputs are inserted and transactions are applied
// strictly in order, because a transaction may spend an output created
// earlier in the same block.
func (s *Set) ApplyBlock(block *wire.MsgBlock) []TxFlow {
	flows := make([]TxFlow, len(block.Transactions))

	for i, tx := range block.Transactions {
		flow := TxFlow{Coinbase: i == 0, Resolved: true}

		if !flow.Coinbase {
			for _, in := range tx.TxIn {
				key := OutpointKey(&in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index)
				value, ok := s.active[key]
				if !ok {
					flow.Resolved = false
					continue
				}
				flow.InputValue += value
				delete(s.active, key)
			}
		}

		txid := tx.TxHash()
		for vout, out := range tx.TxOut {
			flow.OutputValue += out.Value
			// OP_RETURN and other provably unspendable outputs can never
			// be referenced by an input, tracking them only wastes memory
			if txscript.IsUnspendable(out.PkScript) {
				continue
			}
			key := OutpointKey(&txid, uint32(vout))
			if existing, ok := s.active[key]; ok {
				if existing == out.Value {
					// same digest, same value: the duplicated historic
					// coinbases; keep the first occurrence
					s.duplicateCount++
					continue
				}
				s.collisionCount++
			}
			s.active[key] = out.Value
		}

		flows[i] = flow
	}
	return flows
}
