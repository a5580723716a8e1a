// Package types holds the small data carriers shared across the indexing
// pipeline.
package types

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockLocation identifies exactly where a block's raw bytes live inside
// the node's block-file storage. FileOffset points at the start of the
// 8-byte framing record (magic + length), so a reader can re-check the
// framing when it seeks back in. Immutable once written to the index.
type BlockLocation struct {
	FileID     uint32
	FileOffset uint64
	ByteSize   uint32
	BlockHash  chainhash.Hash
}
