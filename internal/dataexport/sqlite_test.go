package dataexport

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	schema, err := BuildSchema([]string{"height", "fee_rate[99.9]"})
	require.NoError(t, err)

	w, err := NewSQLiteWriter(path, schema)
	require.NoError(t, err)
	require.NoError(t, w.Append([]float64{0, 1.25}, []bool{true, true}))
	require.NoError(t, w.Append([]float64{1, 0}, []bool{true, false}))
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM blocks").Scan(&rows))
	require.Equal(t, 2, rows)

	var rate sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT "fee_rate_p99.9" FROM blocks WHERE height = 0`).Scan(&rate))
	require.True(t, rate.Valid)
	require.Equal(t, 1.25, rate.Float64)

	require.NoError(t, db.QueryRow(`SELECT "fee_rate_p99.9" FROM blocks WHERE height = 1`).Scan(&rate))
	require.False(t, rate.Valid)
}
