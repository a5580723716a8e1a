// Package dataexport turns per-block metrics into columnar dataset files
// plus a JSON metadata sidecar describing them.
package dataexport

import (
	"fmt"

	"github.com/feescope/feescope/internal/stats"
)

// SchemaError reports an invalid output schema. It is always raised before
// any file is created.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return "schema error: " + e.Msg
}

// Column is one requested metric bound to its registry definition and the
// output column names it expands to.
type Column struct {
	Spec  stats.ColumnSpec
	Def   stats.ColumnDef
	Names []string
}

// Schema is the fully expanded output layout of a dataset.
type Schema struct {
	Columns []Column
	Fields  []string // expanded column names, in output order
}

// BuildSchema parses and validates the requested column specs and expands
// percentile lists into concrete columns. Duplicate expanded names are a
// SchemaError: two requests like fees[50] and fees[50,90] would otherwise
// silently produce colliding columns.
func BuildSchema(specs []string) (*Schema, error) {
	if len(specs) == 0 {
		return nil, &SchemaError{Msg: "no columns requested"}
	}

	schema := &Schema{}
	seen := make(map[string]struct{})
	for _, raw := range specs {
		spec, err := stats.ParseColumnSpec(raw)
		if err != nil {
			return nil, &SchemaError{Msg: err.Error()}
		}
		if err := stats.ValidateSpec(spec); err != nil {
			return nil, &SchemaError{Msg: err.Error()}
		}
		def, _ := stats.LookupColumn(spec.Name)

		names := spec.Expand()
		for _, name := range names {
			if _, dup := seen[name]; dup {
				return nil, &SchemaError{Msg: fmt.Sprintf("duplicate output column %q", name)}
			}
			seen[name] = struct{}{}
		}
		schema.Columns = append(schema.Columns, Column{Spec: spec, Def: def, Names: names})
		schema.Fields = append(schema.Fields, names...)
	}
	return schema, nil
}

// NeedsUTXO reports whether any requested column depends on UTXO tracking.
func (s *Schema) NeedsUTXO() bool {
	for _, col := range s.Columns {
		if col.Def.NeedsUTXO {
			return true
		}
	}
	return false
}

// Row flattens one block's metrics into the schema's column order. valid is
// false where the metric is unavailable for this block; sinks write null
// there.
func (s *Schema) Row(bs *stats.BlockStats) (values []float64, valid []bool) {
	values = make([]float64, 0, len(s.Fields))
	valid = make([]bool, 0, len(s.Fields))

	for _, col := range s.Columns {
		if !col.Def.Distribution {
			v, ok := bs.Scalar(col.Spec.Name)
			values = append(values, v)
			valid = append(valid, ok)
			continue
		}
		sample := bs.Distribution(col.Spec.Name)
		for _, p := range col.Spec.Percentiles {
			if len(sample) == 0 {
				values = append(values, 0)
				valid = append(valid, false)
				continue
			}
			values = append(values, stats.NearestRank(sample, p))
			valid = append(valid, true)
		}
	}
	return values, valid
}
