// Package blockindex persists the canonical height to block-location
// mapping as a flat file of fixed-size records. Rebuilding is cheap, so the
// format is versionless and carries no migration logic.
package blockindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/feescope/feescope/internal/types"
)

// recordSize is the on-disk size of one height entry:
// file id (4) + file offset (8) + byte size (4) + block hash (32).
const recordSize = 4 + 8 + 4 + chainhash.HashSize

// headerSize holds the single tip-height field written before the records.
const headerSize = 4

// Index maps canonical heights to block locations. Build once per
// build-index run, then read-only during iteration and export. None of the
// methods may run concurrently with Save or Load on the same instance.
type Index struct {
	blocks    map[uint32]types.BlockLocation
	tipHeight uint32
}

func New() *Index {
	return &Index{blocks: make(map[uint32]types.BlockLocation)}
}

// Insert records the location of the block at the given height,
// overwriting a superseded fork entry if one exists.
func (idx *Index) Insert(height uint32, loc types.BlockLocation) {
	idx.blocks[height] = loc
	if height > idx.tipHeight {
		idx.tipHeight = height
	}
}

// Get returns the location of the block at height.
func (idx *Index) Get(height uint32) (types.BlockLocation, bool) {
	loc, ok := idx.blocks[height]
	return loc, ok
}

// Tip returns the highest indexed height.
func (idx *Index) Tip() uint32 {
	return idx.tipHeight
}

// NumBlocks returns the number of indexed heights.
func (idx *Index) NumBlocks() int {
	return len(idx.blocks)
}

// Save writes the index. Heights must form the contiguous range
// [0, tip]; a gap means the build pass failed and the file would be
// unusable for seek-by-height access.
func (idx *Index) Save(path string) error {
	for h := uint32(0); h <= idx.tipHeight; h++ {
		if _, ok := idx.blocks[h]; !ok {
			return fmt.Errorf("index has a gap at height %d, refusing to save", h)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[:], idx.tipHeight)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	var rec [recordSize]byte
	for h := uint32(0); h <= idx.tipHeight; h++ {
		loc := idx.blocks[h]
		binary.LittleEndian.PutUint32(rec[0:4], loc.FileID)
		binary.LittleEndian.PutUint64(rec[4:12], loc.FileOffset)
		binary.LittleEndian.PutUint32(rec[12:16], loc.ByteSize)
		copy(rec[16:], loc.BlockHash[:])
		if _, err := w.Write(rec[:]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Load reads an index written by Save.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	tip := binary.LittleEndian.Uint32(header[:])

	idx := New()
	var rec [recordSize]byte
	for h := uint32(0); h <= tip; h++ {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("index file truncated at height %d: %w", h, err)
		}
		loc := types.BlockLocation{
			FileID:     binary.LittleEndian.Uint32(rec[0:4]),
			FileOffset: binary.LittleEndian.Uint64(rec[4:12]),
			ByteSize:   binary.LittleEndian.Uint32(rec[12:16]),
		}
		copy(loc.BlockHash[:], rec[16:])
		idx.blocks[h] = loc
	}
	idx.tipHeight = tip
	return idx, nil
}
