package cli

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EvanAranda/go-ext/procpool"
)

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 1, "Worker process count")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", time.Minute, "Abandon the job after this long")
	rootCmd.AddCommand(runCmd)
}

var (
	runWorkers int
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <task> [args...]",
	Short: "Run one task and print its result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runOnce,
}

func runOnce(cmd *cobra.Command, args []string) error {
	p, err := procpool.New(procpool.Options{
		Workers: runWorkers,
		Logger:  zap.NewNop(),
	})
	if err != nil {
		return err
	}
	defer p.Close()

	h, err := p.Submit(args[0], parseArgs(args[1:])...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()
	result, err := h.Await(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(result)
}

// parseArgs keeps numbers numeric and everything else a string, so
// "jobd run add 2 3" does what it looks like.
func parseArgs(raw []string) []any {
	out := make([]any, len(raw))
	for i, s := range raw {
		if n, err := strconv.Atoi(s); err == nil {
			out[i] = n
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out[i] = f
			continue
		}
		out[i] = s
	}
	return out
}
