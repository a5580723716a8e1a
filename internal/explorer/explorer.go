// Package explorer is the read side of exported datasets: it loads the
// metadata sidecar and answers what a frontend can plot.
package explorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/feescope/feescope/internal/dataexport"
)

var ErrNotLoaded = errors.New("no metadata loaded")

// MetricInfo is one plottable column of one dataset.
type MetricInfo struct {
	Name        string `json:"name"`
	Dataset     string `json:"dataset"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

type Explorer struct {
	meta *dataexport.Metadata
}

func New() *Explorer {
	return &Explorer{}
}

// LoadMetadata parses and validates a metadata sidecar document.
func (e *Explorer) LoadMetadata(raw []byte) error {
	var meta dataexport.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}
	if meta.Version != dataexport.MetadataVersion {
		return fmt.Errorf("unsupported metadata version %d, want %d", meta.Version, dataexport.MetadataVersion)
	}
	e.meta = &meta
	return nil
}

func (e *Explorer) Loaded() bool {
	return e.meta != nil
}

func (e *Explorer) BlockRange() (dataexport.BlockRange, error) {
	if e.meta == nil {
		return dataexport.BlockRange{}, ErrNotLoaded
	}
	return e.meta.BlockRange, nil
}

// AvailableMetrics lists every metric column across all datasets, in
// deterministic order: datasets as listed in the sidecar, columns sorted by
// name within each. Index columns are not metrics and are skipped.
func (e *Explorer) AvailableMetrics() ([]MetricInfo, error) {
	if e.meta == nil {
		return nil, ErrNotLoaded
	}

	var metrics []MetricInfo
	for _, ds := range e.meta.Datasets {
		names := make([]string, 0, len(ds.Columns))
		for name := range ds.Columns {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			col := ds.Columns[name]
			if col.Type != "metric" {
				continue
			}
			metrics = append(metrics, MetricInfo{
				Name:        name,
				Dataset:     ds.Name,
				Unit:        col.Unit,
				Description: col.Description,
			})
		}
	}
	return metrics, nil
}
