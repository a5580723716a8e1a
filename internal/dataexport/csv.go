package dataexport

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// CSVWriter writes the same rows as ArrowWriter into a plain CSV file.
// Null cells become empty fields.
type CSVWriter struct {
	f *os.File
	w *csv.Writer
}

func NewCSVWriter(path string, schema *Schema) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dataset file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(schema.Fields); err != nil {
		f.Close()
		return nil, err
	}
	return &CSVWriter{f: f, w: w}, nil
}

func (c *CSVWriter) Append(values []float64, valid []bool) error {
	record := make([]string, len(values))
	for i, v := range values {
		if valid[i] {
			record[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return c.w.Write(record)
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}
