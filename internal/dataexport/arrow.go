package dataexport

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// arrowBatchRows is how many rows accumulate before a record batch is
// flushed to the IPC file.
const arrowBatchRows = 4096

// ArrowWriter streams rows into an Arrow IPC file. Every column is a
// nullable float64.
type ArrowWriter struct {
	f       *os.File
	builder *array.RecordBuilder
	writer  *ipc.FileWriter
	pending int
}

func NewArrowWriter(path string, schema *Schema) (*ArrowWriter, error) {
	fields := make([]arrow.Field, len(schema.Fields))
	for i, name := range schema.Fields {
		fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}
	}
	arrowSchema := arrow.NewSchema(fields, nil)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dataset file: %w", err)
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(arrowSchema))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ArrowWriter{
		f:       f,
		builder: array.NewRecordBuilder(memory.DefaultAllocator, arrowSchema),
		writer:  w,
	}, nil
}

func (w *ArrowWriter) Append(values []float64, valid []bool) error {
	for i := range values {
		b := w.builder.Field(i).(*array.Float64Builder)
		if valid[i] {
			b.Append(values[i])
		} else {
			b.AppendNull()
		}
	}
	w.pending++
	if w.pending >= arrowBatchRows {
		return w.flush()
	}
	return nil
}

func (w *ArrowWriter) flush() error {
	rec := w.builder.NewRecord()
	defer rec.Release()
	w.pending = 0
	return w.writer.Write(rec)
}

func (w *ArrowWriter) Close() error {
	var errs []error
	if w.pending > 0 {
		errs = append(errs, w.flush())
	}
	errs = append(errs, w.writer.Close(), w.f.Close())
	return errors.Join(errs...)
}

// ReadArrowFile loads a whole IPC dataset back into memory. Null cells come
// back as NaN with valid false. Intended for small files and tests.
func ReadArrowFile(path string) (fields []string, values [][]float64, valid [][]bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f)
	if err != nil {
		return nil, nil, nil, err
	}
	defer r.Close()

	for _, field := range r.Schema().Fields() {
		fields = append(fields, field.Name)
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		for row := 0; row < int(rec.NumRows()); row++ {
			rowVals := make([]float64, len(fields))
			rowValid := make([]bool, len(fields))
			for col := 0; col < int(rec.NumCols()); col++ {
				arr := rec.Column(col).(*array.Float64)
				if arr.IsNull(row) {
					rowVals[col] = math.NaN()
					continue
				}
				rowVals[col] = arr.Value(row)
				rowValid[col] = true
			}
			values = append(values, rowVals)
			valid = append(valid, rowValid)
		}
	}
	return fields, values, valid, nil
}
