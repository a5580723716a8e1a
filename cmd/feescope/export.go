package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/feescope/feescope/internal/config"
	"github.com/feescope/feescope/internal/dataexport"
	"github.com/feescope/feescope/internal/logging"
	"github.com/feescope/feescope/internal/pipeline"
	"github.com/feescope/feescope/internal/stats"
)

var (
	exportStartHeight uint32
	exportMaxHeight   uint32
	exportFormat      string
	exportTrackUTXO   bool
)

func init() {
	exportCmd.Flags().Uint32Var(
		&exportStartHeight,
		"start-height",
		0,
		"Height to start exporting from",
	)
	exportCmd.Flags().Uint32Var(
		&exportMaxHeight,
		"max-height",
		0,
		"Highest height to export, inclusive (default: index tip)",
	)
	exportCmd.Flags().StringVar(
		&exportFormat,
		"format",
		"arrow",
		"Output format: arrow, csv or sqlite",
	)
	exportCmd.Flags().BoolVar(
		&exportTrackUTXO,
		"utxo",
		false,
		"Track the UTXO set, required for fee-rate columns",
	)
}

var exportCmd = &cobra.Command{
	Use:   "export FILE COLUMN...",
	Short: "Export per-block metrics into a columnar dataset file",
	Long: `Exports one row per block into FILE. Each COLUMN is either a scalar
metric like fee_total, or a distribution metric with a percentile list like
fee_rate[5,50,95], which expands into one column per percentile. Run the
metrics command for the full list.

Columns that need the UTXO set (fee rates) require --utxo, which replays the
chain from the start height.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]

		// schema problems must surface before the output file is touched
		schema, err := dataexport.BuildSchema(args[1:])
		if err != nil {
			return err
		}
		if schema.NeedsUTXO() && !exportTrackUTXO {
			return fmt.Errorf("requested columns need utxo tracking, pass --utxo")
		}

		idx, reader, err := openIndex()
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			StartHeight: exportStartHeight,
			EndHeight:   exportMaxHeight,
			TrackUTXO:   exportTrackUTXO,
		}
		if opts.EndHeight == 0 {
			opts.EndHeight = idx.Tip()
		}

		if !filepath.IsAbs(file) && filepath.Dir(file) == "." {
			if err := os.MkdirAll(config.DatasetsPath, 0750); err != nil {
				return err
			}
			file = filepath.Join(config.DatasetsPath, file)
		}

		sink, err := dataexport.NewSink(exportFormat, file, schema)
		if err != nil {
			return err
		}

		start := time.Now()
		var rows uint64
		_, err = pipeline.New(idx, reader).Run(opts, func(bs *stats.BlockStats) error {
			values, valid := schema.Row(bs)
			rows++
			return sink.Append(values, valid)
		})
		if err != nil {
			sink.Close()
			return err
		}
		if err := sink.Close(); err != nil {
			return fmt.Errorf("finalize dataset: %w", err)
		}

		blockRange := dataexport.BlockRange{Start: opts.StartHeight, End: opts.EndHeight}
		info := dataexport.DescribeDataset(file, schema)
		if err := dataexport.WriteMetadata(filepath.Dir(file), blockRange, info); err != nil {
			return fmt.Errorf("write metadata sidecar: %w", err)
		}

		logging.L.Info().
			Str("file", file).
			Uint64("rows", rows).
			Int("columns", len(schema.Fields)).
			Str("elapsed", time.Since(start).String()).
			Msg("export done")
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List every metric export can compute",
	Run: func(cmd *cobra.Command, args []string) {
		for _, def := range stats.Registry {
			kind := "scalar"
			if def.Distribution {
				kind = "distribution"
			}
			suffix := ""
			if def.NeedsUTXO {
				suffix = " (needs utxo tracking)"
			}
			fmt.Printf("%-20s %-13s %-11s %s%s\n", def.Name, kind, def.Unit, def.Description, suffix)
		}
	},
}
