package hfstol

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	stdruntime "runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/UAlbertaALTLab/hfst-altlab/internal/format"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/runtime"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// DefaultSearchCutoff bounds a single lookup on transducers that would
// otherwise run forever. Matches the hfst-ol convention of one minute.
const DefaultSearchCutoff = 60 * time.Second

// Unlimited lifts a budget when passed to WithPathLimit or WithStepLimit.
const Unlimited = runtime.Unlimited

// Transducer is the high-level entry point: one parsed optimized-lookup
// transducer plus the search budgets and observability wiring applied to
// every lookup. It is safe for concurrent use.
type Transducer struct {
	auto   *fst.Automaton
	engine *runtime.Engine

	logger *slog.Logger
	hooks  fst.LifecycleHooks
	cache  ports.AnalysisCache

	cutoff   time.Duration
	maxPaths int
	maxSteps int

	source      string
	fingerprint string
}

var _ ports.Morphology = (*Transducer)(nil)

// Option defines a functional option for configuring the Transducer.
type Option func(*Transducer)

// WithSearchCutoff bounds the wall-clock time of one lookup. Zero or
// negative disables the clock entirely.
func WithSearchCutoff(d time.Duration) Option {
	return func(t *Transducer) {
		t.cutoff = d
	}
}

// WithPathLimit caps how many paths one lookup may yield. Zero yields
// nothing but the truncation signal; negative lifts the limit.
func WithPathLimit(n int) Option {
	return func(t *Transducer) {
		t.maxPaths = n
	}
}

// WithStepLimit caps how many transitions one lookup may follow. Zero
// yields nothing but the truncation signal; negative lifts the limit.
func WithStepLimit(n int) Option {
	return func(t *Transducer) {
		t.maxSteps = n
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transducer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks. Repeated use chains
// the hooks in registration order.
func WithLifecycleHooks(hooks fst.LifecycleHooks) Option {
	return func(t *Transducer) {
		t.hooks = t.hooks.Merge(hooks)
	}
}

// WithCache memoises analysis result sets in the given backend. Only
// complete, untruncated result sets are stored.
func WithCache(cache ports.AnalysisCache) Option {
	return func(t *Transducer) {
		t.cache = cache
	}
}

// Load reads a transducer from a .hfstol file.
func Load(path string, opts ...Option) (*Transducer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load transducer: %w", err)
	}
	return LoadBytes(path, data, opts...)
}

// LoadReader reads a transducer stream to the end and parses it. The
// source is only used in diagnostics.
func LoadReader(source string, r io.Reader, opts ...Option) (*Transducer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("load transducer %s: %w", source, err)
	}
	return LoadBytes(source, data, opts...)
}

// LoadBytes parses an in-memory transducer image.
func LoadBytes(source string, data []byte, opts ...Option) (*Transducer, error) {
	auto, err := format.Read(source, data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	t := &Transducer{
		auto:        auto,
		engine:      runtime.NewEngine(auto),
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		cutoff:      DefaultSearchCutoff,
		maxPaths:    runtime.Unlimited,
		maxSteps:    runtime.Unlimited,
		source:      source,
		fingerprint: hex.EncodeToString(sum[:]),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.auto.Header().InfinitelyAmbiguous() {
		t.logger.Warn("transducer declares unweighted input epsilon cycles; lookups lean on the search cutoff",
			"source", source)
	}
	return t, nil
}

// Source returns the path or label the transducer was loaded from.
func (t *Transducer) Source() string { return t.source }

// Fingerprint returns the SHA-256 of the transducer image, which also
// namespaces cache keys.
func (t *Transducer) Fingerprint() string { return t.fingerprint }

// Weighted reports whether the transducer carries weights.
func (t *Transducer) Weighted() bool { return t.auto.Weighted() }

// Header returns the parsed stream header.
func (t *Transducer) Header() fst.Header { return t.auto.Header() }

// Symbols returns the transducer's alphabet.
func (t *Transducer) Symbols() *fst.SymbolTable { return t.auto.Symbols() }

// StateCount returns how many states the parsed automaton has.
func (t *Transducer) StateCount() int { return t.auto.Len() }

// Automaton exposes the parsed state arena for read-only introspection,
// diagramming and linting. Mutating it is not supported.
func (t *Transducer) Automaton() *fst.Automaton { return t.auto }

func (t *Transducer) config() runtime.Config {
	return runtime.Config{Cutoff: t.cutoff, MaxPaths: t.maxPaths, MaxSteps: t.maxSteps}
}

type rawPath struct {
	symbols []string
	weight  float64
}

func (t *Transducer) walk(ctx context.Context, dir runtime.Direction, input string) ([]rawPath, runtime.Stats, error) {
	var paths []rawPath
	stats, err := t.engine.Lookup(ctx, dir, input, t.config(), func(symbols []string, weight float64) bool {
		paths = append(paths, rawPath{symbols: symbols, weight: weight})
		return true
	})
	return paths, stats, err
}

func (t *Transducer) walkTokens(ctx context.Context, dir runtime.Direction, tokens []fst.SymbolCode) ([]rawPath, runtime.Stats, error) {
	var paths []rawPath
	stats, err := t.engine.LookupTokens(ctx, dir, tokens, t.config(), func(symbols []string, weight float64) bool {
		paths = append(paths, rawPath{symbols: symbols, weight: weight})
		return true
	})
	return paths, stats, err
}

func (t *Transducer) emitStart(ctx context.Context, direction, input string) {
	if t.hooks.OnLookupStart != nil {
		t.hooks.OnLookupStart(ctx, direction, input)
	}
}

func (t *Transducer) emitDone(ctx context.Context, ev fst.LookupEvent) {
	if t.hooks.OnLookupDone != nil {
		t.hooks.OnLookupDone(ctx, ev)
	}
}

func (t *Transducer) cacheKey(wordform string) string {
	return t.fingerprint + ":" + wordform
}

// Analyse returns the analyses of one surface wordform, deduplicated and
// sorted by weight. When the search hits a budget the partial result set
// comes back along with an error wrapping fst.ErrCutoff.
func (t *Transducer) Analyse(ctx context.Context, wordform string) ([]fst.Analysis, error) {
	started := time.Now()
	dir := runtime.Analyse
	t.emitStart(ctx, dir.String(), wordform)

	if t.cache != nil {
		cached, found, err := t.cache.Get(ctx, t.cacheKey(wordform))
		if err != nil {
			t.logger.Warn("analysis cache get failed", "err", err)
		} else if found {
			t.emitDone(ctx, fst.LookupEvent{
				Direction: dir.String(),
				Input:     wordform,
				Results:   len(cached),
				CacheHit:  true,
				Duration:  time.Since(started),
			})
			return cached, nil
		}
	}

	paths, stats, err := t.walk(ctx, dir, wordform)
	if err != nil {
		t.emitDone(ctx, fst.LookupEvent{
			Direction: dir.String(),
			Input:     wordform,
			Steps:     stats.Steps,
			Duration:  time.Since(started),
			Err:       err,
		})
		return nil, err
	}

	results := analysesFrom(paths)
	ev := fst.LookupEvent{
		Direction: dir.String(),
		Input:     wordform,
		Results:   len(results),
		Steps:     stats.Steps,
		Truncated: stats.Truncated,
		Duration:  time.Since(started),
	}
	if stats.Truncated {
		ev.Err = fmt.Errorf("analyse %q: %w", wordform, fst.ErrCutoff)
		t.emitDone(ctx, ev)
		return results, ev.Err
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, t.cacheKey(wordform), results); err != nil {
			t.logger.Warn("analysis cache set failed", "err", err)
		}
	}
	t.emitDone(ctx, ev)
	return results, nil
}

// Generate inverts the transducer: it consumes the analysis tape and
// returns the surface wordforms it reaches, deduplicated and sorted by
// weight. Budget exhaustion behaves exactly as in Analyse.
func (t *Transducer) Generate(ctx context.Context, analysis string) ([]fst.Wordform, error) {
	started := time.Now()
	t.emitStart(ctx, runtime.Generate.String(), analysis)
	paths, stats, err := t.walk(ctx, runtime.Generate, analysis)
	return t.finishGenerate(ctx, started, analysis, paths, stats, err)
}

// GenerateTags generates surface wordforms from an already-segmented
// analysis, consuming the output tape the way Generate does. Flag
// diacritics and empty strings among the tags are ignored; a tag the
// alphabet does not know yields no wordforms.
func (t *Transducer) GenerateTags(ctx context.Context, tags []string) ([]fst.Wordform, error) {
	tokens, ok := t.tagTokens(tags)
	if !ok {
		return []fst.Wordform{}, nil
	}

	started := time.Now()
	input := fst.Analysis{Symbols: tags}.Text()
	t.emitStart(ctx, runtime.Generate.String(), input)
	paths, stats, err := t.walkTokens(ctx, runtime.Generate, tokens)
	return t.finishGenerate(ctx, started, input, paths, stats, err)
}

// generateFromTags runs the tag sequence against the input tape, which
// is how a dedicated generator transducer consumes analyses.
func (t *Transducer) generateFromTags(ctx context.Context, tags []string) ([]fst.Wordform, error) {
	tokens, ok := t.tagTokens(tags)
	if !ok {
		return []fst.Wordform{}, nil
	}

	started := time.Now()
	input := fst.Analysis{Symbols: tags}.Text()
	t.emitStart(ctx, runtime.Generate.String(), input)
	paths, stats, err := t.walkTokens(ctx, runtime.Analyse, tokens)
	return t.finishGenerate(ctx, started, input, paths, stats, err)
}

// tagTokens maps analysis symbols to their codes, skipping flags and
// empty strings. ok is false when a tag is not in the alphabet.
func (t *Transducer) tagTokens(tags []string) ([]fst.SymbolCode, bool) {
	table := t.auto.Symbols()
	tokens := make([]fst.SymbolCode, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, isFlag := fst.ParseFlag(tag); isFlag {
			continue
		}
		sym, ok := table.ByText(tag)
		if !ok || sym.Class != fst.ClassOrdinary {
			return nil, false
		}
		tokens = append(tokens, sym.Code)
	}
	return tokens, true
}

func (t *Transducer) finishGenerate(ctx context.Context, started time.Time, input string, paths []rawPath, stats runtime.Stats, err error) ([]fst.Wordform, error) {
	ev := fst.LookupEvent{
		Direction: runtime.Generate.String(),
		Input:     input,
		Steps:     stats.Steps,
		Truncated: stats.Truncated,
		Duration:  time.Since(started),
	}
	if err != nil {
		ev.Err = err
		t.emitDone(ctx, ev)
		return nil, err
	}

	forms := wordformsFrom(paths)
	ev.Results = len(forms)
	ev.Duration = time.Since(started)
	if stats.Truncated {
		ev.Err = fmt.Errorf("generate %q: %w", input, fst.ErrCutoff)
		t.emitDone(ctx, ev)
		return forms, ev.Err
	}
	t.emitDone(ctx, ev)
	return forms, nil
}

// RoundTrip analyses a wordform and regenerates surface forms from every
// analysis, deduplicated and sorted by weight.
func (t *Transducer) RoundTrip(ctx context.Context, wordform string) ([]fst.Wordform, error) {
	analyses, err := t.Analyse(ctx, wordform)
	if err != nil {
		return nil, err
	}

	var union []fst.Wordform
	seen := make(map[string]struct{})
	for _, a := range analyses {
		forms, err := t.GenerateTags(ctx, a.Symbols)
		if err != nil {
			return nil, err
		}
		for _, f := range forms {
			if _, dup := seen[f.Key()]; dup {
				continue
			}
			seen[f.Key()] = struct{}{}
			union = append(union, f)
		}
	}
	fst.SortWordforms(union)
	return union, nil
}

// Lookup runs a plain analysis lookup and returns one output string per
// accepted path, in traversal order, duplicates preserved. This mirrors
// the line-oriented hfst-optimized-lookup tool.
func (t *Transducer) Lookup(ctx context.Context, input string) ([]string, error) {
	paths, stats, err := t.walk(ctx, runtime.Analyse, input)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = fst.Analysis{Symbols: p.symbols}.Text()
	}
	if stats.Truncated {
		return out, fmt.Errorf("lookup %q: %w", input, fst.ErrCutoff)
	}
	return out, nil
}

// LookupSymbols is Lookup keeping the symbol segmentation: one slice per
// accepted path with flag diacritics and epsilon markers filtered out.
func (t *Transducer) LookupSymbols(ctx context.Context, input string) ([][]string, error) {
	paths, stats, err := t.walk(ctx, runtime.Analyse, input)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(paths))
	for i, p := range paths {
		kept := make([]string, 0, len(p.symbols))
		for _, s := range p.symbols {
			if s == "" {
				continue
			}
			if _, isFlag := fst.ParseFlag(s); isFlag {
				continue
			}
			kept = append(kept, s)
		}
		out[i] = kept
	}
	if stats.Truncated {
		return out, fmt.Errorf("lookup %q: %w", input, fst.ErrCutoff)
	}
	return out, nil
}

// WalkAnalyses streams raw analyses in traversal order, without
// deduplication, caching or lifecycle hooks. Returning false from fn
// stops the walk early without error.
func (t *Transducer) WalkAnalyses(ctx context.Context, wordform string, fn func(fst.Analysis) bool) error {
	stats, err := t.engine.Lookup(ctx, runtime.Analyse, wordform, t.config(), func(symbols []string, weight float64) bool {
		return fn(fst.Analysis{Symbols: symbols, Weight: weight})
	})
	if err != nil {
		return err
	}
	if stats.Truncated {
		return fmt.Errorf("analyse %q: %w", wordform, fst.ErrCutoff)
	}
	return nil
}

// BulkLookup analyses many wordforms concurrently and returns the
// analysis strings per wordform, deduplicated and sorted.
func (t *Transducer) BulkLookup(ctx context.Context, wordforms []string) (map[string][]string, error) {
	out := make(map[string][]string, len(wordforms))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(stdruntime.GOMAXPROCS(0))
	for _, wf := range wordforms {
		g.Go(func() error {
			analyses, err := t.Analyse(ctx, wf)
			if err != nil {
				return err
			}
			texts := make([]string, 0, len(analyses))
			seen := make(map[string]struct{}, len(analyses))
			for _, a := range analyses {
				text := a.Text()
				if _, dup := seen[text]; dup {
					continue
				}
				seen[text] = struct{}{}
				texts = append(texts, text)
			}
			sort.Strings(texts)

			mu.Lock()
			out[wf] = texts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func analysesFrom(paths []rawPath) []fst.Analysis {
	out := make([]fst.Analysis, 0, len(paths))
	index := make(map[string]int, len(paths))
	for _, p := range paths {
		a := fst.Analysis{Symbols: p.symbols, Weight: p.weight}
		key := a.Key()
		if i, dup := index[key]; dup {
			if a.Weight < out[i].Weight {
				out[i].Weight = a.Weight
			}
			continue
		}
		index[key] = len(out)
		out = append(out, a)
	}
	fst.SortAnalyses(out)
	return out
}

func wordformsFrom(paths []rawPath) []fst.Wordform {
	out := make([]fst.Wordform, 0, len(paths))
	index := make(map[string]int, len(paths))
	for _, p := range paths {
		w := fst.Wordform{Symbols: p.symbols, Weight: p.weight}
		key := w.Key()
		if i, dup := index[key]; dup {
			if w.Weight < out[i].Weight {
				out[i].Weight = w.Weight
			}
			continue
		}
		index[key] = len(out)
		out = append(out, w)
	}
	fst.SortWordforms(out)
	return out
}
