// Package runtime walks parsed automata: depth-first traversal in either
// direction, flag diacritic gating, and search budgets.
package runtime

import (
	"context"
	"time"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Direction selects which tape a lookup consumes.
type Direction uint8

const (
	// Analyse consumes the input tape and emits the output tape.
	Analyse Direction = iota
	// Generate consumes the output tape and emits the input tape.
	Generate
)

func (d Direction) String() string {
	if d == Generate {
		return "generate"
	}
	return "analyse"
}

// Unlimited disables a path or step budget.
const Unlimited = -1

// Config bounds one traversal. A zero cutoff disables the clock. Path
// and step budgets of zero really mean zero; negative values disable
// them.
type Config struct {
	Cutoff   time.Duration
	MaxPaths int
	MaxSteps int
}

// Stats reports what one traversal did.
type Stats struct {
	Steps     int
	Paths     int
	Truncated bool
}

// budgetCheckInterval is how many steps pass between clock and context
// checks.
const budgetCheckInterval = 64

// Engine runs traversals over one automaton. It keeps no state between
// calls and is safe for concurrent use.
type Engine struct {
	auto *fst.Automaton
}

func NewEngine(auto *fst.Automaton) *Engine {
	return &Engine{auto: auto}
}

// Lookup tokenizes input for the direction and walks the automaton.
// Every accepted path is handed to visit; returning false ends the
// traversal early. Input that does not tokenize yields no paths and no
// error.
func (e *Engine) Lookup(ctx context.Context, dir Direction, input string, cfg Config, visit func(symbols []string, weight float64) bool) (Stats, error) {
	table := e.auto.Symbols()
	var (
		tokens []fst.SymbolCode
		ok     bool
	)
	if dir == Analyse {
		tokens, ok = table.TokenizeInput(input)
	} else {
		tokens, ok = table.TokenizeAll(input)
	}
	if !ok {
		return Stats{}, nil
	}
	return e.LookupTokens(ctx, dir, tokens, cfg, visit)
}

// chainEntry is one link of the zero-width ancestry since the last
// consumed token. Reaching a state already in the window with an equal
// flag state means the path made no progress and is abandoned.
type chainEntry struct {
	state fst.StateID
	flags fst.FlagState
}

type frame struct {
	state   fst.StateID
	pos     int
	next    int
	entered bool

	restoreEmit int
	chainBase   int
	chainLen    int

	weight float64
	flags  fst.FlagState
}

// LookupTokens is Lookup over a pre-tokenized query.
func (e *Engine) LookupTokens(ctx context.Context, dir Direction, tokens []fst.SymbolCode, cfg Config, visit func(symbols []string, weight float64) bool) (Stats, error) {
	var stats Stats
	if cfg.MaxPaths == 0 || cfg.MaxSteps == 0 {
		stats.Truncated = true
		return stats, nil
	}

	table := e.auto.Symbols()
	var deadline time.Time
	if cfg.Cutoff > 0 {
		deadline = time.Now().Add(cfg.Cutoff)
	}

	var (
		emit  []fst.SymbolCode
		chain []chainEntry
		stack []frame
	)
	rootFlags := table.NewFlagState()
	chain = append(chain, chainEntry{state: e.auto.Start(), flags: rootFlags})
	stack = append(stack, frame{state: e.auto.Start(), flags: rootFlags})

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if !f.entered {
			f.entered = true
			if f.pos == len(tokens) {
				if w, final := e.auto.IsFinal(f.state); final {
					stats.Paths++
					if !visit(e.render(emit), f.weight+float64(w)) {
						return stats, nil
					}
					if cfg.MaxPaths > 0 && stats.Paths >= cfg.MaxPaths {
						stats.Truncated = true
						return stats, nil
					}
				}
			}
		}

		arcs := e.auto.Transitions(f.state)
		pushed := false
		for f.next < len(arcs) {
			arc := arcs[f.next]
			f.next++

			matchCode := arc.In
			emitCode := arc.Out
			if dir == Generate {
				matchCode, emitCode = arc.Out, arc.In
			}
			matchSym, _ := table.Symbol(matchCode)

			var (
				nextPos   int
				nextFlags fst.FlagState
				nextBase  int
			)
			if matchSym.Class == fst.ClassOrdinary {
				if f.pos >= len(tokens) || tokens[f.pos] != matchCode {
					continue
				}
				nextPos = f.pos + 1
				nextFlags = f.flags
				nextBase = len(chain)
			} else {
				nextPos = f.pos
				nextFlags = f.flags
				if matchSym.Class == fst.ClassFlag {
					var ok bool
					nextFlags, ok = f.flags.Apply(matchSym.Flag)
					if !ok {
						continue
					}
				}
				nextBase = f.chainBase
				if revisits(chain[nextBase:], arc.Target, nextFlags) {
					continue
				}
			}

			if cfg.MaxSteps > 0 && stats.Steps >= cfg.MaxSteps {
				stats.Truncated = true
				return stats, nil
			}
			stats.Steps++
			if stats.Steps%budgetCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return stats, err
				}
				if !deadline.IsZero() && time.Now().After(deadline) {
					stats.Truncated = true
					return stats, nil
				}
			}

			restore := len(emit)
			if emitSym, ok := table.Symbol(emitCode); ok && emitSym.Class != fst.ClassEpsilon {
				emit = append(emit, emitCode)
			}
			chainRestore := len(chain)
			chain = append(chain, chainEntry{state: arc.Target, flags: nextFlags})
			stack = append(stack, frame{
				state:       arc.Target,
				pos:         nextPos,
				restoreEmit: restore,
				chainBase:   nextBase,
				chainLen:    chainRestore,
				weight:      f.weight + float64(arc.Weight),
				flags:       nextFlags,
			})
			pushed = true
			break
		}
		if pushed {
			continue
		}

		emit = emit[:f.restoreEmit]
		chain = chain[:f.chainLen]
		stack = stack[:len(stack)-1]
	}
	return stats, nil
}

func revisits(window []chainEntry, state fst.StateID, flags fst.FlagState) bool {
	for i := range window {
		if window[i].state == state && window[i].flags.Equal(flags) {
			return true
		}
	}
	return false
}

func (e *Engine) render(codes []fst.SymbolCode) []string {
	table := e.auto.Symbols()
	out := make([]string, len(codes))
	for i, c := range codes {
		sym, _ := table.Symbol(c)
		out[i] = sym.Text
	}
	return out
}
