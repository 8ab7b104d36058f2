package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmo-codec/pmo/pkg/pmo"
	"github.com/pmo-codec/pmo/pkg/pnm"
	"github.com/pmo-codec/pmo/pkg/util"
)

// NewEncodeCmd builds the `pmoctl encode` subcommand.
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode a PGM image into a bitstream",
		Long:  "Estimates per-pixel probability parameters, optimizes the context model, and range-codes a PGM image into a bitstream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			bitstreamPath, _ := cmd.Flags().GetString("bitstream")
			if inputPath == "" || bitstreamPath == "" {
				return fmt.Errorf("encode: --input and --bitstream are required")
			}

			cfg, ctx := buildConfig(ctx, cmd, inputPath, bitstreamPath)

			in, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("encode: opening input: %w", err)
			}
			defer in.Close()

			img, err := pnm.Decode(in)
			if err != nil {
				return fmt.Errorf("encode: %w", pmo.ErrInvalidImage)
			}

			data, err := pmo.EncodeImage(img, cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			if err := os.WriteFile(bitstreamPath, data, 0o644); err != nil {
				return fmt.Errorf("encode: writing bitstream: %w", err)
			}

			slog.InfoContext(ctx, "encode complete", "bitstream", bitstreamPath, "bytes", len(data))
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("input", "i", "", "input PGM image path")
	pf.StringP("bitstream", "b", "", "output bitstream path")

	return cmd
}

// buildConfig derives a pmo.Config from the shared tunable flags and tags
// ctx with a content-hash run id for log correlation.
func buildConfig(ctx context.Context, cmd *cobra.Command, paths ...string) (pmo.Config, context.Context) {
	exWin, exNum, prWin, prNum, csNum, tpRad, tpWgt, parallel := tunablesFromFlags(cmd)

	cfg := pmo.Config{
		SearchWindow:       exWin,
		NumExamples:        exNum,
		TrainWindow:        prWin,
		NumPredictors:      prNum,
		NumContextSegments: csNum,
		TemplateRadius:     tpRad,
		Penalty:            tpWgt,
		ParallelPredictors: parallel,
	}

	runID := util.HashUUID(struct {
		Paths []string
		Cfg   pmo.Config
	}{Paths: paths, Cfg: cfg})

	return cfg, appendRunID(ctx, runID)
}
