// Package coreindex reads the node's own leveldb databases (chainstate and
// blocks/index) to report which chain tip the node itself considers active.
// Useful to cross-check against the tip resolved from the raw block files.
package coreindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Node databases store values XORed with a per-database key kept under this
// record. The stored value carries a one-byte length prefix.
var obfuscateKeyKey = append([]byte{0x0e, 0x00}, []byte("obfuscate_key")...)

// Block index status bit: the block is part of the currently active chain.
const blockValidChain = 0x04

var ErrNoBestBlock = errors.New("chainstate has no best block record")

type db struct {
	ldb       *leveldb.DB
	obfuscate []byte
}

func openDB(path string) (*db, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{
		ErrorIfMissing: true,
		ReadOnly:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("open node database %s: %w", path, err)
	}

	d := &db{ldb: ldb}
	raw, err := ldb.Get(obfuscateKeyKey, nil)
	switch {
	case err == nil && len(raw) > 1:
		d.obfuscate = raw[1:] // drop the length prefix
	case errors.Is(err, leveldb.ErrNotFound):
		// unobfuscated database, nothing to do
	case err != nil:
		ldb.Close()
		return nil, fmt.Errorf("read obfuscate key: %w", err)
	}
	return d, nil
}

func (d *db) get(key []byte) ([]byte, error) {
	value, err := d.ldb.Get(key, nil)
	if err != nil {
		return nil, err
	}
	if len(d.obfuscate) > 0 {
		out := make([]byte, len(value))
		for i, b := range value {
			out[i] = b ^ d.obfuscate[i%len(d.obfuscate)]
		}
		return out, nil
	}
	return value, nil
}

func (d *db) close() error {
	return d.ldb.Close()
}

// TipInfo is the node's view of its active chain tip.
type TipInfo struct {
	Hash          chainhash.Hash
	Height        uint32
	FileID        uint32
	FileOffset    uint32
	IndexedBlocks int
}

// ChainTip reads the best block hash from the chainstate database and its
// height and file location from the block index under dataDir.
func ChainTip(dataDir string) (*TipInfo, error) {
	chainstate, err := openDB(filepath.Join(dataDir, "chainstate"))
	if err != nil {
		return nil, err
	}
	defer chainstate.close()

	best, err := chainstate.get([]byte{'B'})
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoBestBlock
	}
	if err != nil {
		return nil, fmt.Errorf("read best block: %w", err)
	}
	if len(best) != chainhash.HashSize {
		return nil, fmt.Errorf("best block record has %d bytes, want %d", len(best), chainhash.HashSize)
	}

	tip := &TipInfo{}
	copy(tip.Hash[:], best)

	index, err := openDB(filepath.Join(dataDir, "blocks", "index"))
	if err != nil {
		return nil, err
	}
	defer index.close()

	record, err := index.get(append([]byte{'b'}, tip.Hash[:]...))
	if err != nil {
		return nil, fmt.Errorf("read block index record for tip %s: %w", tip.Hash, err)
	}
	if len(record) < 20 {
		return nil, fmt.Errorf("block index record has %d bytes, want at least 20", len(record))
	}
	status := binary.LittleEndian.Uint32(record[4:8])
	if status&blockValidChain == 0 {
		return nil, fmt.Errorf("tip %s is not marked active in the block index", tip.Hash)
	}
	tip.Height = binary.LittleEndian.Uint32(record[0:4])
	tip.FileID = binary.LittleEndian.Uint32(record[12:16])
	tip.FileOffset = binary.LittleEndian.Uint32(record[16:20])

	iter := index.ldb.NewIterator(util.BytesPrefix([]byte{'b'}), nil)
	for iter.Next() {
		tip.IndexedBlocks++
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return tip, nil
}
