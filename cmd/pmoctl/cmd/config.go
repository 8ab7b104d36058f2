package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pmo-codec/pmo/pkg/logging"
)

// appendRunID tags ctx with a run-correlation id, so every log line emitted
// via a *Context method during this invocation carries it.
func appendRunID(ctx context.Context, runID string) context.Context {
	return logging.AppendCtx(ctx, slog.String("run_id", runID))
}

// tunablesFromFlags reads the shared estimator/coder tunables registered by
// registerTunableFlags, as loaded onto cmd or any of its ancestors.
func tunablesFromFlags(cmd *cobra.Command) (exWin, exNum, prWin, prNum, csNum, tpRad int, tpWgt float64, parallel bool) {
	exWin, _ = cmd.Flags().GetInt("ex-win")
	exNum, _ = cmd.Flags().GetInt("ex-num")
	prWin, _ = cmd.Flags().GetInt("pr-win")
	prNum, _ = cmd.Flags().GetInt("pr-num")
	csNum, _ = cmd.Flags().GetInt("cs-num")
	tpRad, _ = cmd.Flags().GetInt("tp-rad")
	tpWgt, _ = cmd.Flags().GetFloat64("tp-wgt")
	parallel, _ = cmd.Flags().GetBool("parallel-predictors")
	return
}
