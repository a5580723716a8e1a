package main

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/feescope/feescope/internal/blockfile"
	"github.com/feescope/feescope/internal/blockindex"
	"github.com/feescope/feescope/internal/config"
	"github.com/feescope/feescope/internal/logging"
)

var (
	Version = "0.0.0"

	// Global flags
	datadir        string
	bitcoinDatadir string
	configFile     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(
		&datadir,
		"datadir",
		config.DefaultBaseDirectory,
		"Set the base directory for feescope state. Default directory is ~/.feescope",
	)
	rootCmd.PersistentFlags().StringVar(
		&bitcoinDatadir,
		"bitcoin-datadir",
		"",
		"Path to the bitcoin core data directory (default: ~/.bitcoin)",
	)
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Path to config file (default: datadir/feescope.toml)",
	)
}

var rootCmd = &cobra.Command{
	Use:     "feescope",
	Short:   "Block file indexer and fee analytics engine",
	Long:    `feescope indexes raw block files straight from a node's data directory and derives per-block fee and size metrics into columnar datasets.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.BaseDirectory = datadir
		config.BitcoinDir = bitcoinDatadir
		config.SetDirectories()

		if err := os.MkdirAll(config.BaseDirectory, 0750); err != nil {
			return fmt.Errorf("error creating base directory: %w", err)
		}

		logging.L.Info().Msgf("base directory %s", config.BaseDirectory)

		if configFile == "" {
			configFile = path.Join(config.BaseDirectory, config.ConfigFileName)
		}
		config.LoadConfigs(configFile)
		return nil
	},
}

// openIndex loads the saved height index and a block reader for the
// configured chain.
func openIndex() (*blockindex.Index, *blockfile.Reader, error) {
	idx, err := blockindex.Load(config.IndexPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("no index at %s, run build-index first", config.IndexPath)
	}
	if err != nil {
		return nil, nil, err
	}
	reader, err := blockfile.NewReader(config.BlocksDir, config.Magic())
	if err != nil {
		return nil, nil, err
	}
	return idx, reader, nil
}

func main() {
	rootCmd.AddCommand(buildIndexCmd)
	rootCmd.AddCommand(iterateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(chainTipCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
