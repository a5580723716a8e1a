package dataexport

import "fmt"

// RowSink is the common surface of the dataset writers.
type RowSink interface {
	Append(values []float64, valid []bool) error
	Close() error
}

// NewSink opens a dataset writer for the given format.
func NewSink(format, path string, schema *Schema) (RowSink, error) {
	switch format {
	case "arrow":
		return NewArrowWriter(path, schema)
	case "csv":
		return NewCSVWriter(path, schema)
	case "sqlite":
		return NewSQLiteWriter(path, schema)
	}
	return nil, fmt.Errorf("unknown export format %q, want arrow, csv or sqlite", format)
}
