package dataexport

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteBatchRows bounds the size of one insert transaction.
const sqliteBatchRows = 5000

// SQLiteWriter writes rows into a single-table sqlite database, for
// consumers that want SQL over the dataset instead of a columnar file.
type SQLiteWriter struct {
	db      *sql.DB
	tx      *sql.Tx
	stmt    *sql.Stmt
	insert  string
	pending int
}

func NewSQLiteWriter(path string, schema *Schema) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(off)", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite dataset: %w", err)
	}

	cols := make([]string, len(schema.Fields))
	holes := make([]string, len(schema.Fields))
	for i, name := range schema.Fields {
		// expanded names may contain dots (fee_rate_p99.9), quote them
		cols[i] = fmt.Sprintf("%q REAL", name)
		holes[i] = "?"
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE blocks (%s)", strings.Join(cols, ", "))); err != nil {
		db.Close()
		return nil, fmt.Errorf("create dataset table: %w", err)
	}

	w := &SQLiteWriter{
		db:     db,
		insert: fmt.Sprintf("INSERT INTO blocks VALUES (%s)", strings.Join(holes, ", ")),
	}
	if err := w.begin(); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) begin() error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(w.insert)
	if err != nil {
		tx.Rollback()
		return err
	}
	w.tx, w.stmt = tx, stmt
	return nil
}

func (w *SQLiteWriter) commit() error {
	w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		return err
	}
	w.pending = 0
	return nil
}

func (w *SQLiteWriter) Append(values []float64, valid []bool) error {
	args := make([]any, len(values))
	for i, v := range values {
		if valid[i] {
			args[i] = v
		}
	}
	if _, err := w.stmt.Exec(args...); err != nil {
		return err
	}
	w.pending++
	if w.pending >= sqliteBatchRows {
		if err := w.commit(); err != nil {
			return err
		}
		return w.begin()
	}
	return nil
}

func (w *SQLiteWriter) Close() error {
	if err := w.commit(); err != nil {
		w.db.Close()
		return err
	}
	return w.db.Close()
}
