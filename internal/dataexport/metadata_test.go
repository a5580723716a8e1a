package dataexport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readMetadata(t *testing.T, dir string) Metadata {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	return meta
}

func TestDescribeDataset(t *testing.T) {
	schema, err := BuildSchema([]string{"height", "fee_rate[50,90]"})
	require.NoError(t, err)

	info := DescribeDataset("/tmp/datasets/fees.arrow", schema)
	require.Equal(t, "fees", info.Name)
	require.Equal(t, "fees.arrow", info.File)
	require.Len(t, info.Columns, 3)

	require.Equal(t, "index", info.Columns["height"].Type)
	require.Equal(t, "metric", info.Columns["fee_rate_p50"].Type)
	require.Equal(t, "sats/vbyte", info.Columns["fee_rate_p90"].Unit)
}

func TestWriteMetadataMergesDatasets(t *testing.T) {
	dir := t.TempDir()

	fees, err := BuildSchema([]string{"height", "fee_total"})
	require.NoError(t, err)
	sizes, err := BuildSchema([]string{"height", "block_size"})
	require.NoError(t, err)

	require.NoError(t, WriteMetadata(dir, BlockRange{Start: 0, End: 100}, DescribeDataset("fees.arrow", fees)))
	require.NoError(t, WriteMetadata(dir, BlockRange{Start: 50, End: 200}, DescribeDataset("sizes.arrow", sizes)))

	meta := readMetadata(t, dir)
	require.Equal(t, MetadataVersion, meta.Version)
	require.Len(t, meta.Datasets, 2)
	// range widens, never shrinks
	require.Equal(t, uint32(0), meta.BlockRange.Start)
	require.Equal(t, uint32(200), meta.BlockRange.End)

	// re-export replaces the entry instead of appending
	require.NoError(t, WriteMetadata(dir, BlockRange{Start: 0, End: 300}, DescribeDataset("fees.arrow", fees)))
	meta = readMetadata(t, dir)
	require.Len(t, meta.Datasets, 2)
	require.Equal(t, uint32(300), meta.BlockRange.End)
}
