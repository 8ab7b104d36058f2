package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmo-codec/pmo/pkg/pmo"
	"github.com/pmo-codec/pmo/pkg/pnm"
)

// NewDecodeCmd builds the `pmoctl decode` subcommand. The estimator tunables
// (ex-win, ex-num, pr-win, pr-num, tp-wgt) are not stored in the bitstream
// header and must be supplied identically to the ones used at encode time;
// a mismatch decodes without error but silently reconstructs the wrong image.
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode a bitstream into a PGM image",
		Long:  "Range-decodes a bitstream, re-deriving the same per-pixel probability parameters the encoder used, and writes a PGM image.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bitstreamPath, _ := cmd.Flags().GetString("bitstream")
			outputPath, _ := cmd.Flags().GetString("output")
			if bitstreamPath == "" || outputPath == "" {
				return fmt.Errorf("decode: --bitstream and --output are required")
			}

			cfg, ctx := buildConfig(ctx, cmd, bitstreamPath, outputPath)

			data, err := os.ReadFile(bitstreamPath)
			if err != nil {
				return fmt.Errorf("decode: reading bitstream: %w", err)
			}

			img, err := pmo.DecodeImage(data, cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("decode: creating output: %w", err)
			}
			defer out.Close()

			if err := pnm.Encode(out, img); err != nil {
				return fmt.Errorf("decode: writing output: %w", err)
			}

			slog.InfoContext(ctx, "decode complete", "output", outputPath)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("bitstream", "b", "", "input bitstream path")
	pf.StringP("output", "o", "", "output PGM image path")

	return cmd
}
