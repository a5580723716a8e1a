package blockfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/wire"

	"github.com/feescope/feescope/internal/logging"
	"github.com/feescope/feescope/internal/types"
)

// framingSize is the per-block prefix in a blk file: 4 magic bytes plus a
// 4-byte little-endian payload length.
const framingSize = 8

// maxBlockPayload is a sanity cap on the framed length. Anything above it is
// treated as a corrupt or in-progress tail write.
const maxBlockPayload = 32 << 20

// BlockFile is one blkNNNNN.dat container.
type BlockFile struct {
	ID   uint32
	Path string
}

// Scanner walks the blk*.dat files of a data directory, deobfuscates them
// and yields one record per magic-framed block.
type Scanner struct {
	blocksDir string
	magic     wire.BitcoinNet
	deob      Deobfuscator
}

func NewScanner(blocksDir string, magic wire.BitcoinNet) (*Scanner, error) {
	deob, err := LoadXORKey(blocksDir)
	if err != nil {
		return nil, err
	}
	if deob.Active() {
		logging.L.Info().Msg("loaded xor.dat, block files are obfuscated")
	}
	return &Scanner{blocksDir: blocksDir, magic: magic, deob: deob}, nil
}

// BlockFilePath returns the conventional path of block file n.
func BlockFilePath(blocksDir string, id uint32) string {
	return filepath.Join(blocksDir, fmt.Sprintf("blk%05d.dat", id))
}

// ListBlockFiles returns all blk*.dat containers sorted by filename, which
// is also the order the node appended them in.
func (s *Scanner) ListBlockFiles() ([]BlockFile, error) {
	entries, err := os.ReadDir(s.blocksDir)
	if err != nil {
		return nil, fmt.Errorf("read blocks directory: %w", err)
	}

	var files []BlockFile
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "blk") || !strings.HasSuffix(name, ".dat") {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "blk"), ".dat"), 10, 32)
		if err != nil {
			logging.L.Warn().Str("file", name).Msg("skipping block file with unparsable number")
			continue
		}
		files = append(files, BlockFile{ID: uint32(id), Path: filepath.Join(s.blocksDir, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

// ScanHeaders streams one file and calls fn once per framed block with the
// decoded 80-byte header and the block's location. The block body is
// skipped, which keeps the index build pass cheap.
//
// Recovery policy: zero padding, a garbled magic marker or a length running
// past end-of-file all truncate the scan of this file. A live node leaves an
// in-progress append at the tail of its last file, so this is expected.
func (s *Scanner) ScanHeaders(file BlockFile, fn func(header *wire.BlockHeader, loc types.BlockLocation) error) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("open block file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	var offset uint64

	for {
		framing := make([]byte, framingSize)
		if _, err := io.ReadFull(r, framing); err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				return fmt.Errorf("read framing at offset %d: %w", offset, err)
			}
			return nil
		}

		// zero padding marks the end of valid data; checked before
		// deobfuscation since the node pads with raw zeroes
		if isAllZero(framing) {
			return nil
		}

		s.deob.Transform(framing, offset)

		magic := wire.BitcoinNet(binary.LittleEndian.Uint32(framing[:4]))
		size := binary.LittleEndian.Uint32(framing[4:])
		if magic != s.magic || size < wire.MaxBlockHeaderPayload || size > maxBlockPayload {
			logging.L.Warn().
				Uint32("file", file.ID).
				Uint64("offset", offset).
				Msg("truncating scan, garbled framing at file tail")
			return nil
		}

		headerBytes := make([]byte, wire.MaxBlockHeaderPayload)
		if _, err := io.ReadFull(r, headerBytes); err != nil {
			logging.L.Warn().
				Uint32("file", file.ID).
				Uint64("offset", offset).
				Msg("truncating scan, incomplete block header at file tail")
			return nil
		}
		s.deob.Transform(headerBytes, offset+framingSize)

		header, err := DecodeHeader(headerBytes)
		if err != nil {
			logging.L.Warn().
				Err(err).
				Uint32("file", file.ID).
				Uint64("offset", offset).
				Msg("skipping undecodable header, truncating scan")
			return nil
		}

		remaining := int(size) - wire.MaxBlockHeaderPayload
		if _, err := r.Discard(remaining); err != nil {
			logging.L.Warn().
				Uint32("file", file.ID).
				Uint64("offset", offset).
				Msg("truncating scan, incomplete block payload at file tail")
			return nil
		}

		loc := types.BlockLocation{
			FileID:     file.ID,
			FileOffset: offset,
			ByteSize:   size,
			BlockHash:  header.BlockHash(),
		}
		if err := fn(header, loc); err != nil {
			return err
		}

		offset += framingSize + uint64(size)
	}
}

// ScanAllHeaders runs ScanHeaders over every block file in order. A file
// that cannot be opened or read is logged and skipped so one bad file
// (permissions, bad sector) never loses the rest of the scan; only a
// missing blocks directory or an error from fn aborts. Returns how many
// files were scanned cleanly.
func (s *Scanner) ScanAllHeaders(fn func(header *wire.BlockHeader, loc types.BlockLocation) error) (int, error) {
	files, err := s.ListBlockFiles()
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no block files found in %s", s.blocksDir)
	}

	scanned := 0
	for _, file := range files {
		var fnErr error
		err := s.ScanHeaders(file, func(header *wire.BlockHeader, loc types.BlockLocation) error {
			if err := fn(header, loc); err != nil {
				fnErr = err
				return err
			}
			return nil
		})
		if fnErr != nil {
			return scanned, fnErr
		}
		if err != nil {
			logging.L.Warn().
				Err(err).
				Str("file", file.Path).
				Msg("skipping unreadable block file")
			continue
		}
		scanned++
	}
	return scanned, nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
