package dataexport

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/feescope/feescope/internal/stats"
	"github.com/feescope/feescope/internal/testhelpers"
)

func TestBuildSchemaExpandsQuantiles(t *testing.T) {
	schema, err := BuildSchema([]string{"height", "fee_rate[0,50,100]", "fee_total"})
	require.NoError(t, err)
	require.Equal(t,
		[]string{"height", "fee_rate_p0", "fee_rate_p50", "fee_rate_p100", "fee_total"},
		schema.Fields,
	)
	require.True(t, schema.NeedsUTXO())
}

func TestBuildSchemaWithoutUTXOColumns(t *testing.T) {
	schema, err := BuildSchema([]string{"height", "tx_count", "tx_size[50]"})
	require.NoError(t, err)
	require.False(t, schema.NeedsUTXO())
}

func TestBuildSchemaRejectsDuplicates(t *testing.T) {
	var schemaErr *SchemaError

	_, err := BuildSchema([]string{"height", "height"})
	require.ErrorAs(t, err, &schemaErr)

	// duplicates across two expansions of the same metric
	_, err = BuildSchema([]string{"fee_rate[50]", "fee_rate[50,90]"})
	require.ErrorAs(t, err, &schemaErr)

	_, err = BuildSchema(nil)
	require.ErrorAs(t, err, &schemaErr)

	_, err = BuildSchema([]string{"no_such_metric"})
	require.ErrorAs(t, err, &schemaErr)

	_, err = BuildSchema([]string{"fee_rate[50"})
	require.ErrorAs(t, err, &schemaErr)
}

func TestSchemaRow(t *testing.T) {
	schema, err := BuildSchema([]string{"height", "tx_count", "tx_size[0,100]", "fee_rate[50]"})
	require.NoError(t, err)

	// no flows: fee_rate has no sample and must come out null
	block := testhelpers.Block(chainhash.Hash{}, testhelpers.CoinbaseTx(3, 50))
	bs := stats.Compute(block, 3, nil)

	values, valid := schema.Row(bs)
	require.Len(t, values, 5)
	require.Equal(t, []bool{true, true, true, true, false}, valid)
	require.Equal(t, 3.0, values[0])
	require.Equal(t, 1.0, values[1])
	require.Equal(t, values[2], values[3]) // single tx, p0 == p100
}
