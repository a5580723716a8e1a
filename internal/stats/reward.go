// Package stats derives per-block metrics from decoded blocks and the value
// flows recovered by the utxo package.
package stats

// Consensus subsidy schedule.
const (
	HalvingInterval = 210_000
	InitialSubsidy  = 50 * 100_000_000 // sats
)

// Subsidy returns the block reward at the given height. After 33 halvings
// the shifted amount is zero forever.
func Subsidy(height uint32) int64 {
	halvings := height / HalvingInterval
	if halvings >= 33 {
		return 0
	}
	return int64(InitialSubsidy) >> halvings
}

// BlockFee derives the total fee collected by a block from its coinbase
// output value. A miner may claim less than allowed; the difference is
// burned, so the fee is clamped at zero instead of going negative.
func BlockFee(coinbaseOut int64, height uint32) int64 {
	fee := coinbaseOut - Subsidy(height)
	if fee < 0 {
		return 0
	}
	return fee
}
