package dataexport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MetadataVersion is bumped whenever the sidecar layout changes.
const MetadataVersion = 1

// MetadataFileName is the sidecar written next to dataset files.
const MetadataFileName = "metadata.json"

// ColumnMeta describes one dataset column for frontends. Type is "index"
// for the height column and "metric" for everything else.
type ColumnMeta struct {
	Type        string `json:"type"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// DatasetInfo describes one exported dataset file.
type DatasetInfo struct {
	Name    string                `json:"name"`
	File    string                `json:"file"`
	Columns map[string]ColumnMeta `json:"columns"`
}

// BlockRange is the inclusive height range a dataset covers.
type BlockRange struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Metadata is the sidecar document listing every dataset in a directory.
type Metadata struct {
	Version    int           `json:"version"`
	BlockRange BlockRange    `json:"block_range"`
	Datasets   []DatasetInfo `json:"datasets"`
}

// DescribeDataset builds the DatasetInfo for one exported file from its
// schema.
func DescribeDataset(file string, schema *Schema) DatasetInfo {
	name := filepath.Base(file)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	info := DatasetInfo{
		Name:    name,
		File:    filepath.Base(file),
		Columns: make(map[string]ColumnMeta, len(schema.Fields)),
	}
	for _, col := range schema.Columns {
		colType := "metric"
		if col.Spec.Name == "height" {
			colType = "index"
		}
		for _, expanded := range col.Names {
			info.Columns[expanded] = ColumnMeta{
				Type:        colType,
				Unit:        col.Def.Unit,
				Description: col.Def.Description,
			}
		}
	}
	return info
}

// WriteMetadata merges the dataset description into the sidecar in dir,
// replacing any previous entry with the same name, and widens the recorded
// block range.
func WriteMetadata(dir string, blockRange BlockRange, info DatasetInfo) error {
	path := filepath.Join(dir, MetadataFileName)

	meta := Metadata{Version: MetadataVersion, BlockRange: blockRange}
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("existing %s is not valid metadata: %w", MetadataFileName, err)
		}
		if blockRange.Start < meta.BlockRange.Start {
			meta.BlockRange.Start = blockRange.Start
		}
		if blockRange.End > meta.BlockRange.End {
			meta.BlockRange.End = blockRange.End
		}
	}

	replaced := false
	for i := range meta.Datasets {
		if meta.Datasets[i].Name == info.Name {
			meta.Datasets[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		meta.Datasets = append(meta.Datasets, info)
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
