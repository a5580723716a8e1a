package blockfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/wire"

	"github.com/feescope/feescope/internal/types"
)

// Reader performs random-access reads of single blocks through locations
// recorded in the index.
type Reader struct {
	blocksDir string
	magic     wire.BitcoinNet
	deob      Deobfuscator
}

func NewReader(blocksDir string, magic wire.BitcoinNet) (*Reader, error) {
	deob, err := LoadXORKey(blocksDir)
	if err != nil {
		return nil, err
	}
	return &Reader{blocksDir: blocksDir, magic: magic, deob: deob}, nil
}

// ReadBlock seeks to the recorded location, re-checks the framing and
// decodes the full block.
func (r *Reader) ReadBlock(loc types.BlockLocation) (*wire.MsgBlock, error) {
	f, err := os.Open(BlockFilePath(r.blocksDir, loc.FileID))
	if err != nil {
		return nil, fmt.Errorf("open block file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(loc.FileOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to block: %w", err)
	}

	framing := make([]byte, framingSize)
	if _, err := io.ReadFull(f, framing); err != nil {
		return nil, fmt.Errorf("read framing: %w", err)
	}
	r.deob.Transform(framing, loc.FileOffset)

	magic := wire.BitcoinNet(binary.LittleEndian.Uint32(framing[:4]))
	size := binary.LittleEndian.Uint32(framing[4:])
	if magic != r.magic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x at file %d offset %d",
			ErrMalformedBlock, uint32(magic), loc.FileID, loc.FileOffset)
	}
	if size != loc.ByteSize {
		return nil, fmt.Errorf("%w: framed size %d does not match indexed size %d",
			ErrMalformedBlock, size, loc.ByteSize)
	}

	raw := make([]byte, size)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("read block payload: %w", err)
	}
	r.deob.Transform(raw, loc.FileOffset+framingSize)

	return DecodeBlock(raw)
}
