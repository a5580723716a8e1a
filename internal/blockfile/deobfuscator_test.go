package blockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransformIsInvolution(t *testing.T) {
	key := [8]byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}
	deob := NewDeobfuscator(key)

	original := []byte("framing and payload bytes, longer than one key cycle")
	buf := append([]byte(nil), original...)

	deob.Transform(buf, 13)
	require.NotEqual(t, original, buf)
	deob.Transform(buf, 13)
	require.Equal(t, original, buf)
}

func TestTransformOffsetAlignment(t *testing.T) {
	key := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	deob := NewDeobfuscator(key)

	// transforming a whole buffer must equal transforming it in two split
	// reads at the matching absolute offsets
	whole := make([]byte, 32)
	split := make([]byte, 32)

	deob.Transform(whole, 100)
	deob.Transform(split[:11], 100)
	deob.Transform(split[11:], 111)
	require.Equal(t, whole, split)
}

func TestZeroKeyIsNoop(t *testing.T) {
	deob := NewDeobfuscator([8]byte{})
	require.False(t, deob.Active())

	buf := []byte{1, 2, 3}
	deob.Transform(buf, 7)
	require.Equal(t, []byte{1, 2, 3}, buf)
}

func TestLoadXORKey(t *testing.T) {
	dir := t.TempDir()

	// no xor.dat means unobfuscated storage
	deob, err := LoadXORKey(dir)
	require.NoError(t, err)
	require.False(t, deob.Active())

	key := [8]byte{9, 8, 7, 6, 5, 4, 3, 2}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xor.dat"), key[:], 0o644))
	deob, err = LoadXORKey(dir)
	require.NoError(t, err)
	require.True(t, deob.Active())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "xor.dat"), key[:5], 0o644))
	_, err = LoadXORKey(dir)
	var badKey ErrBadXORKey
	require.ErrorAs(t, err, &badKey)
	require.Equal(t, 5, badKey.Size)
}
