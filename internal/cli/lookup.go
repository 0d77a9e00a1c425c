package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/UAlbertaALTLab/hfst-altlab/internal/presentation/tui"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Result is one output line of a lookup: the output tape rendering and
// the path weight.
type Result struct {
	Output string
	Weight float64
}

// Resolver maps one input line to its results. A resolver may return
// partial results together with an error wrapping fst.ErrCutoff.
type Resolver func(ctx context.Context, input string) ([]Result, error)

// LookupOptions shapes the line-oriented lookup loop.
type LookupOptions struct {
	// Words are looked up instead of reading the input stream when
	// non-empty.
	Words []string

	// Interactive prints a greeting and a prompt between lines.
	Interactive bool

	// ShowWeights appends the weight column to every line.
	ShowWeights bool

	// Source labels the transducer in the interactive greeting.
	Source string

	// Version is printed in the interactive greeting.
	Version string
}

// RunLookup drives the line-oriented lookup loop: one input per line in,
// one tab-separated block of results out, matching the output of the
// original optimized-lookup tool. Budget-truncated lookups print what
// they found and carry on; any other resolver error stops the loop.
func RunLookup(ctx context.Context, resolve Resolver, in io.Reader, out io.Writer, logger *slog.Logger, opts LookupOptions) error {
	if len(opts.Words) > 0 {
		for _, word := range opts.Words {
			if err := lookupOne(ctx, resolve, out, logger, word, opts.ShowWeights); err != nil {
				return err
			}
		}
		return nil
	}

	if opts.Interactive {
		tui.PrintGreeting(opts.Source, opts.Version)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if opts.Interactive {
			fmt.Fprint(out, tui.Prompt())
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := lookupOne(ctx, resolve, out, logger, line, opts.ShowWeights); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func lookupOne(ctx context.Context, resolve Resolver, out io.Writer, logger *slog.Logger, input string, showWeights bool) error {
	results, err := resolve(ctx, input)
	if err != nil {
		if !errors.Is(err, fst.ErrCutoff) {
			return fmt.Errorf("lookup %q: %w", input, err)
		}
		logger.Warn("lookup truncated by search budget", "input", input, "results", len(results))
	}
	printBlock(out, input, results, showWeights)
	return nil
}

// printBlock prints one result block: input and output tab separated, a
// weight column on weighted runs, `input+?` with infinite weight when
// nothing was accepted, and a blank line closing the block.
func printBlock(out io.Writer, input string, results []Result, showWeights bool) {
	if len(results) == 0 {
		if showWeights {
			fmt.Fprintf(out, "%s\t%s+?\tinf\n\n", input, input)
		} else {
			fmt.Fprintf(out, "%s\t%s+?\n\n", input, input)
		}
		return
	}
	for _, r := range results {
		if showWeights {
			fmt.Fprintf(out, "%s\t%s\t%s\n", input, r.Output, formatWeight(r.Weight))
		} else {
			fmt.Fprintf(out, "%s\t%s\n", input, r.Output)
		}
	}
	fmt.Fprintln(out)
}

// formatWeight renders weights the way the original tool printed them,
// six decimals fixed.
func formatWeight(w float64) string {
	if math.IsInf(w, 1) {
		return "inf"
	}
	return strconv.FormatFloat(w, 'f', 6, 64)
}
