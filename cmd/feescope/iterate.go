package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/feescope/feescope/internal/config"
	"github.com/feescope/feescope/internal/logging"
	"github.com/feescope/feescope/internal/pipeline"
	"github.com/feescope/feescope/internal/stats"
	"github.com/feescope/feescope/internal/utxo"
)

var (
	iterStartHeight uint32
	iterEndHeight   uint32
	iterTrackUTXO   bool
	iterSnapshot    bool
)

func init() {
	iterateCmd.Flags().Uint32Var(
		&iterStartHeight,
		"start-height",
		0,
		"Height to start iterating from",
	)
	iterateCmd.Flags().Uint32Var(
		&iterEndHeight,
		"end-height",
		0,
		"Height to stop at, inclusive (default: index tip)",
	)
	iterateCmd.Flags().BoolVar(
		&iterTrackUTXO,
		"utxo",
		false,
		"Track the UTXO set while iterating to resolve per-transaction fees",
	)
	iterateCmd.Flags().BoolVar(
		&iterSnapshot,
		"snapshot",
		false,
		"Resume the UTXO set from the last snapshot and save a new one at the end",
	)
}

var iterateCmd = &cobra.Command{
	Use:   "iterate",
	Short: "Walk the indexed chain and report aggregate metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, reader, err := openIndex()
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			StartHeight: iterStartHeight,
			EndHeight:   iterEndHeight,
			TrackUTXO:   iterTrackUTXO || iterSnapshot,
		}
		if opts.EndHeight == 0 {
			opts.EndHeight = idx.Tip()
		}

		var store *utxo.SnapshotStore
		if iterSnapshot {
			store, err = utxo.OpenSnapshotStore(config.SnapshotPath)
			if err != nil {
				return err
			}
			defer store.Close()

			set, snapHeight, ok, err := store.Load()
			if err != nil {
				return err
			}
			if ok {
				if snapHeight+1 > opts.StartHeight {
					opts.StartHeight = snapHeight + 1
				}
				opts.Set = set
			}
			if opts.StartHeight > opts.EndHeight {
				logging.L.Info().Msg("snapshot already covers the requested range, nothing to do")
				return nil
			}
		}

		start := time.Now()
		var blocks, txs uint64
		var feeTotal int64
		set, err := pipeline.New(idx, reader).Run(opts, func(bs *stats.BlockStats) error {
			blocks++
			txs += uint64(bs.TxCount)
			feeTotal += bs.FeeTotal
			return nil
		})
		if err != nil {
			return err
		}

		ev := logging.L.Info().
			Uint64("blocks", blocks).
			Uint64("txs", txs).
			Int64("fee_total_sats", feeTotal).
			Str("elapsed", time.Since(start).String())
		if set != nil {
			ev = ev.Int("utxo_size", set.Size()).
				Uint64("key_collisions", set.CollisionCount()).
				Uint64("duplicate_outputs", set.DuplicateCount())
		}
		ev.Msg("iteration done")

		if store != nil && set != nil {
			if err := store.Save(set, opts.EndHeight); err != nil {
				return fmt.Errorf("save utxo snapshot: %w", err)
			}
		}
		return nil
	},
}
