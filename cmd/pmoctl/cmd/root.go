package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pmo-codec/pmo/pkg/logging"
)

// NewRoot builds the pmoctl root command, with the encoder/decoder tunables
// registered as persistent flags shared by every subcommand so that a
// round-trip invocation can't accidentally drift the encode and decode
// sides apart.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	root := &cobra.Command{
		Use:   "pmoctl",
		Short: "a lossless grayscale image codec CLI",
		Long:  "pmoctl encodes and decodes 8-bit grayscale PGM images with a pixel-wise adaptive probability model.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}

			var w io.Writer = os.Stdout
			if logFile != "" {
				w = logging.RotatingWriter(logFile, 100, 3)
			}
			slog.SetDefault(logging.Logger(w, false, level))
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}

	root.AddCommand(
		NewVersionCmd(gitsha),
		NewEncodeCmd(ctx),
		NewDecodeCmd(ctx),
		NewRoundtripCmd(ctx),
	)

	pf := root.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "rotate logs through this file instead of writing to stdout")
	registerTunableFlags(pf)

	return root
}

// registerTunableFlags wires the estimator/coder tunables shared by encode,
// decode, and roundtrip onto fs.
func registerTunableFlags(fs *pflag.FlagSet) {
	fs.IntP("ex-win", "s", 80, "example search window size")
	fs.IntP("ex-num", "e", 64, "number of example-search candidates per pixel")
	fs.IntP("pr-win", "t", 10, "adaptive prediction training window size")
	fs.IntP("pr-num", "p", 25, "number of adaptive-prediction candidates per pixel")
	fs.IntP("cs-num", "c", 16, "number of context segments")
	fs.IntP("tp-rad", "r", 3, "template patch radius")
	fs.Float64P("tp-wgt", "w", 0.030, "example search distance penalty weight")
	fs.Bool("parallel-predictors", false, "evaluate the 25 adaptive predictors concurrently")
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

// NewVersionCmd reports the build's git SHA.
func NewVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
}
