package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/logging"
)

// addBudgetFlags registers the search budget flags shared by the
// commands that run lookups directly.
func addBudgetFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("cutoff", hfstol.DefaultSearchCutoff, "Wall-clock budget per lookup (0 disables the limit)")
	cmd.Flags().Int("max-paths", -1, "Cap on result paths per lookup (negative lifts the cap)")
	cmd.Flags().Int("max-steps", -1, "Cap on traversal steps per lookup (negative lifts the cap)")
}

// budgetOptions maps the budget flags onto transducer options.
func budgetOptions(cmd *cobra.Command, logger *slog.Logger) []hfstol.Option {
	cutoff, _ := cmd.Flags().GetDuration("cutoff")
	maxPaths, _ := cmd.Flags().GetInt("max-paths")
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	return []hfstol.Option{
		hfstol.WithSearchCutoff(cutoff),
		hfstol.WithPathLimit(maxPaths),
		hfstol.WithStepLimit(maxSteps),
		hfstol.WithLogger(logger),
	}
}

// commandLogger builds the logger for one-shot commands: silent unless
// --debug is set, and always on stderr so stdout stays parseable.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// stdinIsTerminal reports whether stdin is attached to an interactive
// terminal, which switches the lookup loop into prompt mode.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// showWeights resolves the weight column: the transducer decides unless
// --weights was given explicitly.
func showWeights(cmd *cobra.Command, t *hfstol.Transducer) bool {
	if cmd.Flags().Changed("weights") {
		v, _ := cmd.Flags().GetBool("weights")
		return v
	}
	return t.Weighted()
}
