package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnSpec is one requested output column: either a scalar metric, or a
// distribution metric with a percentile list that expands into one column
// per percentile.
type ColumnSpec struct {
	Name        string
	Percentiles []float64 // nil for scalar columns
}

// ParseColumnSpec parses "name" or "name[p1,p2,...]".
func ParseColumnSpec(s string) (ColumnSpec, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if strings.ContainsAny(s, "],") {
			return ColumnSpec{}, fmt.Errorf("malformed column spec %q", s)
		}
		return ColumnSpec{Name: s}, nil
	}
	if !strings.HasSuffix(s, "]") {
		return ColumnSpec{}, fmt.Errorf("malformed column spec %q, missing closing bracket", s)
	}
	name := s[:open]
	if name == "" {
		return ColumnSpec{}, fmt.Errorf("malformed column spec %q, empty name", s)
	}
	inner := s[open+1 : len(s)-1]
	if inner == "" {
		return ColumnSpec{}, fmt.Errorf("column spec %q has an empty percentile list", s)
	}

	parts := strings.Split(inner, ",")
	percentiles := make([]float64, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return ColumnSpec{}, fmt.Errorf("column spec %q: bad percentile %q", s, part)
		}
		if p < 0 || p > 100 {
			return ColumnSpec{}, fmt.Errorf("column spec %q: percentile %v out of range [0,100]", s, p)
		}
		percentiles = append(percentiles, p)
	}
	return ColumnSpec{Name: name, Percentiles: percentiles}, nil
}

// Expand returns the output column names this spec produces. A scalar spec
// yields its own name; a distribution spec yields name_pN per percentile.
func (c ColumnSpec) Expand() []string {
	if c.Percentiles == nil {
		return []string{c.Name}
	}
	names := make([]string, len(c.Percentiles))
	for i, p := range c.Percentiles {
		names[i] = fmt.Sprintf("%s_p%s", c.Name, strconv.FormatFloat(p, 'f', -1, 64))
	}
	return names
}

// ColumnDef describes one metric the engine can compute.
type ColumnDef struct {
	Name         string
	Unit         string
	Description  string
	Distribution bool // requires a percentile list
	NeedsUTXO    bool // only available when the UTXO set is tracked
}

// Registry lists every available metric. Order matters: it is the order
// metadata and listings are emitted in.
var Registry = []ColumnDef{
	{Name: "height", Unit: "blocks", Description: "block height"},
	{Name: "timestamp", Unit: "s", Description: "block header time as unix seconds"},
	{Name: "tx_count", Unit: "txs", Description: "number of transactions in the block"},
	{Name: "block_size", Unit: "bytes", Description: "serialized block size including witness data"},
	{Name: "block_vsize", Unit: "vbytes", Description: "block virtual size"},
	{Name: "subsidy", Unit: "sats", Description: "block subsidy from the halving schedule"},
	{Name: "fee_total", Unit: "sats", Description: "total fees claimed by the coinbase"},
	{Name: "fee_avg", Unit: "sats", Description: "mean fee per non-coinbase transaction"},
	{Name: "difficulty_bits", Unit: "", Description: "compact difficulty target from the header"},
	{Name: "input_count", Unit: "inputs", Description: "non-coinbase transaction inputs"},
	{Name: "output_count", Unit: "outputs", Description: "transaction outputs including coinbase"},
	{Name: "witness_tx_count", Unit: "txs", Description: "transactions carrying witness data"},
	{Name: "op_return_count", Unit: "outputs", Description: "provably unspendable data outputs"},
	{Name: "op_return_max_size", Unit: "bytes", Description: "largest data output script in the block"},
	{Name: "fee_rate_min", Unit: "sats/vbyte", Description: "lowest resolved fee rate", NeedsUTXO: true},
	{Name: "fee_rate_max", Unit: "sats/vbyte", Description: "highest resolved fee rate", NeedsUTXO: true},
	{Name: "fee_rate_avg", Unit: "sats/vbyte", Description: "mean resolved fee rate", NeedsUTXO: true},
	{Name: "sub_1sat_count", Unit: "txs", Description: "transactions paying below 1 sat/vbyte", NeedsUTXO: true},
	{Name: "fee_rate", Unit: "sats/vbyte", Description: "fee rate distribution", Distribution: true, NeedsUTXO: true},
	{Name: "tx_size", Unit: "vbytes", Description: "transaction virtual size distribution", Distribution: true},
	{Name: "output_value", Unit: "sats", Description: "output value distribution", Distribution: true},
}

// LookupColumn finds a metric by name.
func LookupColumn(name string) (ColumnDef, bool) {
	for _, def := range Registry {
		if def.Name == name {
			return def, true
		}
	}
	return ColumnDef{}, false
}

// ValidateSpec checks a parsed spec against the registry: the metric must
// exist, distribution metrics must carry percentiles and scalar metrics
// must not.
func ValidateSpec(spec ColumnSpec) error {
	def, ok := LookupColumn(spec.Name)
	if !ok {
		return fmt.Errorf("unknown column %q", spec.Name)
	}
	if def.Distribution && spec.Percentiles == nil {
		return fmt.Errorf("column %q is a distribution, a percentile list like %s[50] is required", spec.Name, spec.Name)
	}
	if !def.Distribution && spec.Percentiles != nil {
		return fmt.Errorf("column %q is a scalar, it takes no percentile list", spec.Name)
	}
	return nil
}
