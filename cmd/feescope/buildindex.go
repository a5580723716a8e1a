package main

import (
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"

	"github.com/feescope/feescope/internal/blockfile"
	"github.com/feescope/feescope/internal/blockindex"
	"github.com/feescope/feescope/internal/chain"
	"github.com/feescope/feescope/internal/config"
	"github.com/feescope/feescope/internal/logging"
	"github.com/feescope/feescope/internal/types"
)

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Scan the node's block files and build the height index",
	Long: `Scans every blk*.dat file under the bitcoin data directory, resolves the
canonical chain from the discovered headers and writes a height-indexed
location file used by iterate and export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		scanner, err := blockfile.NewScanner(config.BlocksDir, config.Magic())
		if err != nil {
			return err
		}

		resolver := chain.NewResolver()
		scanned, err := scanner.ScanAllHeaders(func(header *wire.BlockHeader, loc types.BlockLocation) error {
			resolver.Add(header, loc)
			return nil
		})
		if err != nil {
			return err
		}
		logging.L.Info().
			Int("files", scanned).
			Int("blocks", resolver.NumBlocks()).
			Str("elapsed", time.Since(start).String()).
			Msg("scan pass done")

		result, err := resolver.Resolve()
		if err != nil {
			return err
		}

		idx := blockindex.New()
		for height, loc := range result.Locations {
			idx.Insert(uint32(height), loc)
		}
		if err := idx.Save(config.IndexPath); err != nil {
			return err
		}

		logging.L.Info().
			Uint32("tip_height", result.TipHeight).
			Stringer("tip_hash", &result.TipHash).
			Int("orphaned", result.Orphaned).
			Str("path", config.IndexPath).
			Str("elapsed", time.Since(start).String()).
			Msg("index built")
		return nil
	},
}
