package stats

import (
	"sort"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/feescope/feescope/internal/utxo"
)

// BlockStats carries every metric computed for one block. Distribution
// slices are sorted ascending, ready for NearestRank.
type BlockStats struct {
	Height          uint32
	Timestamp       int64
	TxCount         int
	BlockSize       int
	BlockVSize      int64
	Subsidy         int64
	FeeTotal        int64
	Bits            uint32
	InputCount      int
	OutputCount     int
	WitnessTxCount  int
	OpReturnCount   int
	OpReturnMaxSize int

	// Populated only when a UTXO set was applied.
	HasFlows     bool
	Sub1SatCount int
	Unresolved   int

	FeeRates     []float64
	TxSizes      []float64
	OutputValues []float64
}

// vsize computes a transaction's virtual size from its weight, rounded up.
func vsize(tx *wire.MsgTx) int64 {
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))
	return (weight + blockchain.WitnessScaleFactor - 1) / blockchain.WitnessScaleFactor
}

// Compute derives the metrics of one block. flows is the per-transaction
// value flow from applying the block to the UTXO set, or nil when the set
// is not tracked; fee-rate metrics stay absent in that case.
func Compute(block *wire.MsgBlock, height uint32, flows []utxo.TxFlow) *BlockStats {
	bs := &BlockStats{
		Height:    height,
		Timestamp: block.Header.Timestamp.Unix(),
		TxCount:   len(block.Transactions),
		BlockSize: block.SerializeSize(),
		Subsidy:   Subsidy(height),
		Bits:      block.Header.Bits,
		HasFlows:  flows != nil,
	}

	var coinbaseOut int64
	for i, tx := range block.Transactions {
		txVSize := vsize(tx)
		bs.BlockVSize += txVSize
		bs.TxSizes = append(bs.TxSizes, float64(txVSize))

		if tx.HasWitness() {
			bs.WitnessTxCount++
		}
		if i > 0 {
			bs.InputCount += len(tx.TxIn)
		}
		for _, out := range tx.TxOut {
			bs.OutputCount++
			bs.OutputValues = append(bs.OutputValues, float64(out.Value))
			if i == 0 {
				coinbaseOut += out.Value
			}
			// same predicate the UTXO set uses to skip outputs, so the
			// counter and the set agree on what was never tracked
			if txscript.IsUnspendable(out.PkScript) {
				bs.OpReturnCount++
				if len(out.PkScript) > bs.OpReturnMaxSize {
					bs.OpReturnMaxSize = len(out.PkScript)
				}
			}
		}

		if flows == nil || i == 0 {
			continue
		}
		flow := flows[i]
		if !flow.Resolved {
			bs.Unresolved++
			continue
		}
		fee := flow.InputValue - flow.OutputValue
		rate := float64(fee) / float64(txVSize)
		bs.FeeRates = append(bs.FeeRates, rate)
		if rate < 1 {
			bs.Sub1SatCount++
		}
	}

	bs.FeeTotal = BlockFee(coinbaseOut, height)

	sort.Float64s(bs.FeeRates)
	sort.Float64s(bs.TxSizes)
	sort.Float64s(bs.OutputValues)
	return bs
}

// Scalar returns the value of a scalar metric. The boolean is false when
// the metric is unavailable for this block, e.g. a UTXO-dependent metric
// without flows or an aggregate over an empty sample; exporters emit null
// for those rows.
func (bs *BlockStats) Scalar(name string) (float64, bool) {
	switch name {
	case "height":
		return float64(bs.Height), true
	case "timestamp":
		return float64(bs.Timestamp), true
	case "tx_count":
		return float64(bs.TxCount), true
	case "block_size":
		return float64(bs.BlockSize), true
	case "block_vsize":
		return float64(bs.BlockVSize), true
	case "subsidy":
		return float64(bs.Subsidy), true
	case "fee_total":
		return float64(bs.FeeTotal), true
	case "fee_avg":
		// a coinbase-only block averages to an explicit zero, not null
		if bs.TxCount <= 1 {
			return 0, true
		}
		return float64(bs.FeeTotal) / float64(bs.TxCount-1), true
	case "difficulty_bits":
		return float64(bs.Bits), true
	case "input_count":
		return float64(bs.InputCount), true
	case "output_count":
		return float64(bs.OutputCount), true
	case "witness_tx_count":
		return float64(bs.WitnessTxCount), true
	case "op_return_count":
		return float64(bs.OpReturnCount), true
	case "op_return_max_size":
		return float64(bs.OpReturnMaxSize), true
	case "fee_rate_min":
		if len(bs.FeeRates) == 0 {
			return 0, false
		}
		return bs.FeeRates[0], true
	case "fee_rate_max":
		if len(bs.FeeRates) == 0 {
			return 0, false
		}
		return bs.FeeRates[len(bs.FeeRates)-1], true
	case "fee_rate_avg":
		if len(bs.FeeRates) == 0 {
			return 0, false
		}
		var sum float64
		for _, r := range bs.FeeRates {
			sum += r
		}
		return sum / float64(len(bs.FeeRates)), true
	case "sub_1sat_count":
		if !bs.HasFlows {
			return 0, false
		}
		return float64(bs.Sub1SatCount), true
	}
	return 0, false
}

// Distribution returns the sorted sample of a distribution metric, or nil
// when it is empty or unavailable.
func (bs *BlockStats) Distribution(name string) []float64 {
	switch name {
	case "fee_rate":
		return bs.FeeRates
	case "tx_size":
		return bs.TxSizes
	case "output_value":
		return bs.OutputValues
	}
	return nil
}
