// Package pipeline drives the ordered walk over indexed blocks: read by
// height, optionally fold into the UTXO set, compute metrics, hand off.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/feescope/feescope/internal/blockfile"
	"github.com/feescope/feescope/internal/blockindex"
	"github.com/feescope/feescope/internal/logging"
	"github.com/feescope/feescope/internal/stats"
	"github.com/feescope/feescope/internal/utxo"
)

const progressEvery = 10_000

// Options selects the height range and whether the UTXO set is tracked.
type Options struct {
	StartHeight uint32
	EndHeight   uint32 // inclusive; clamped to the index tip
	TrackUTXO   bool
	// Set is a pre-warmed UTXO set, e.g. restored from a snapshot that
	// covers [0, StartHeight). Nil starts from an empty set.
	Set *utxo.Set
}

type Iterator struct {
	index  *blockindex.Index
	reader *blockfile.Reader
}

func New(index *blockindex.Index, reader *blockfile.Reader) *Iterator {
	return &Iterator{index: index, reader: reader}
}

// Run walks blocks from StartHeight through EndHeight in order, invoking fn
// with each block's metrics. Blocks that fail to decode are logged and
// skipped; the walk continues. Returns the UTXO set as of the last applied
// block so callers can snapshot it.
func (it *Iterator) Run(opts Options, fn func(*stats.BlockStats) error) (*utxo.Set, error) {
	end := opts.EndHeight
	if tip := it.index.Tip(); end > tip {
		end = tip
	}
	if opts.StartHeight > end {
		return nil, fmt.Errorf("start height %d is beyond end height %d", opts.StartHeight, end)
	}

	var set *utxo.Set
	if opts.TrackUTXO {
		set = opts.Set
		if set == nil {
			set = utxo.NewSet()
			if opts.StartHeight > 0 {
				logging.L.Warn().
					Uint32("start_height", opts.StartHeight).
					Msg("utxo tracking starts mid-chain, fees of transactions spending older outputs will be unknown")
			}
		}
	}

	for height := opts.StartHeight; height <= end; height++ {
		loc, ok := it.index.Get(height)
		if !ok {
			return set, fmt.Errorf("index has no block at height %d", height)
		}

		block, err := it.reader.ReadBlock(loc)
		if err != nil {
			if errors.Is(err, blockfile.ErrMalformedBlock) {
				logging.L.Warn().
					Uint32("height", height).
					Err(err).
					Msg("skipping malformed block")
				continue
			}
			return set, fmt.Errorf("read block at height %d: %w", height, err)
		}

		var flows []utxo.TxFlow
		if set != nil {
			flows = set.ApplyBlock(block)
		}

		if err := fn(stats.Compute(block, height, flows)); err != nil {
			return set, err
		}

		if height > 0 && height%progressEvery == 0 {
			ev := logging.L.Info().Uint32("height", height)
			if set != nil {
				ev = ev.Int("utxo_size", set.Size())
			}
			ev.Msg("iteration progress")
		}
	}
	return set, nil
}
