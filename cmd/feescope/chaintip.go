package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feescope/feescope/internal/blockindex"
	"github.com/feescope/feescope/internal/config"
	"github.com/feescope/feescope/internal/coreindex"
)

var chainTipCmd = &cobra.Command{
	Use:   "chain-tip",
	Short: "Report the chain tip from the node's own databases",
	Long: `Reads the best block hash from the node's chainstate database and its
height from the block index, and compares it with the tip of the built
height index when one exists. The node must not be running: leveldb allows
only one process at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tip, err := coreindex.ChainTip(config.BitcoinDir)
		if err != nil {
			return err
		}
		fmt.Printf("height:         %d\n", tip.Height)
		fmt.Printf("hash:           %s\n", tip.Hash)
		fmt.Printf("file:           blk%05d.dat @ %d\n", tip.FileID, tip.FileOffset)
		fmt.Printf("indexed blocks: %d\n", tip.IndexedBlocks)

		idx, err := blockindex.Load(config.IndexPath)
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("built index:    none, run build-index to compare")
			return nil
		}
		if err != nil {
			return err
		}
		ours, ok := idx.Get(idx.Tip())
		switch {
		case !ok:
			fmt.Println("built index:    empty")
		case idx.Tip() == tip.Height && ours.BlockHash == tip.Hash:
			fmt.Printf("built index:    in sync at height %d\n", idx.Tip())
		default:
			fmt.Printf("built index:    DIVERGED, height %d hash %s\n", idx.Tip(), ours.BlockHash)
		}
		return nil
	},
}
