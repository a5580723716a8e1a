package blockfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// XORKeySize is the rolling key length Bitcoin Core uses for block-file
// obfuscation (blocks/xor.dat).
const XORKeySize = 8

// ErrBadXORKey reports an xor.dat with the wrong length. A missing file is
// fine (no obfuscation), a malformed one is a configuration error.
type ErrBadXORKey struct {
	Path string
	Size int
}

func (e ErrBadXORKey) Error() string {
	return fmt.Sprintf("xor key file %s has %d bytes, want %d", e.Path, e.Size, XORKeySize)
}

// Deobfuscator applies the node's 8-byte rolling XOR key. The key position
// follows the absolute file offset, not the buffer offset, because the same
// file is read in chunks.
type Deobfuscator struct {
	key [XORKeySize]byte
}

// LoadXORKey reads blocks/xor.dat from the blocks directory. An absent file
// yields an all-zero key, which makes Transform a no-op.
func LoadXORKey(blocksDir string) (Deobfuscator, error) {
	var d Deobfuscator
	path := filepath.Join(blocksDir, "xor.dat")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	if len(data) != XORKeySize {
		return d, ErrBadXORKey{Path: path, Size: len(data)}
	}
	copy(d.key[:], data)
	return d, nil
}

// NewDeobfuscator builds a Deobfuscator from a raw key, mostly for tests.
func NewDeobfuscator(key [XORKeySize]byte) Deobfuscator {
	return Deobfuscator{key: key}
}

// Active reports whether the key does anything at all.
func (d Deobfuscator) Active() bool {
	return d.key != [XORKeySize]byte{}
}

// Transform XORs buf in place. baseOffset is the absolute file offset of
// buf[0]. Applying Transform twice with the same offsets restores the input.
func (d Deobfuscator) Transform(buf []byte, baseOffset uint64) {
	if !d.Active() {
		return
	}
	for i := range buf {
		buf[i] ^= d.key[(baseOffset+uint64(i))%XORKeySize]
	}
}
