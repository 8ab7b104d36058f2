package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmo-codec/pmo/pkg/pmo"
	"github.com/pmo-codec/pmo/pkg/pnm"
)

// NewRoundtripCmd builds the `pmoctl roundtrip` subcommand: encode, decode,
// and byte-compare against the original, mirroring the reference
// implementation's combined encoder+decoder self-test.
func NewRoundtripCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "encode, decode, and verify lossless reconstruction",
		Long:  "Encodes a PGM image, decodes the result, and reports whether the reconstruction is byte-for-byte identical to the input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			bitstreamPath, _ := cmd.Flags().GetString("bitstream")
			outputPath, _ := cmd.Flags().GetString("output")
			if inputPath == "" || bitstreamPath == "" || outputPath == "" {
				return fmt.Errorf("roundtrip: --input, --bitstream, and --output are required")
			}

			cfg, ctx := buildConfig(ctx, cmd, inputPath, bitstreamPath, outputPath)

			in, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("roundtrip: opening input: %w", err)
			}
			original, err := pnm.Decode(in)
			in.Close()
			if err != nil {
				return fmt.Errorf("roundtrip: %w", pmo.ErrInvalidImage)
			}

			data, err := pmo.EncodeImage(original, cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("roundtrip: encode: %w", err)
			}
			if err := os.WriteFile(bitstreamPath, data, 0o644); err != nil {
				return fmt.Errorf("roundtrip: writing bitstream: %w", err)
			}

			reconstructed, err := pmo.DecodeImage(data, cfg, slog.Default())
			if err != nil {
				return fmt.Errorf("roundtrip: decode: %w", err)
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("roundtrip: creating output: %w", err)
			}
			if err := pnm.Encode(out, reconstructed); err != nil {
				out.Close()
				return fmt.Errorf("roundtrip: writing output: %w", err)
			}
			out.Close()

			if imagesEqual(original, reconstructed) {
				slog.InfoContext(ctx, "successful lossless compression", "bytes", len(data))
				fmt.Println("Successful lossless compression.")
			} else {
				slog.ErrorContext(ctx, "lossless compression failed")
				fmt.Println("Sorry. Lossless compression failed.")
				return fmt.Errorf("roundtrip: reconstruction does not match input")
			}

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("input", "i", "", "input PGM image path")
	pf.StringP("bitstream", "b", "", "bitstream path (written then read back)")
	pf.StringP("output", "o", "", "output PGM image path")

	return cmd
}

func imagesEqual(a, b *image.Gray) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	return bytes.Equal(a.Pix, b.Pix)
}
