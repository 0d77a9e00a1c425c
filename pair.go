package hfstol

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/UAlbertaALTLab/hfst-altlab/internal/runtime"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// Pair couples an analyser transducer with its matching generator, the
// way language models ship: one .hfstol file per direction. The pair
// standardizes analyses by regenerating them through the generator and
// can rank readings by a caller-supplied distance metric.
type Pair struct {
	Analyser  *Transducer
	Generator *Transducer

	distance func(wordform, candidate string) float64
}

var _ ports.Morphology = (*Pair)(nil)

// PairOption defines a functional option for configuring the Pair.
type PairOption func(*Pair)

// WithDistance ranks analyses by the distance between the looked-up
// wordform and each reading's standardized form, closest first.
// Readings without a standardized form sort last. Without this option
// analyses keep their weight order.
func WithDistance(fn func(wordform, candidate string) float64) PairOption {
	return func(p *Pair) {
		p.distance = fn
	}
}

// NewPair couples two loaded transducers.
func NewPair(analyser, generator *Transducer, opts ...PairOption) *Pair {
	p := &Pair{Analyser: analyser, Generator: generator}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadPair reads both transducers from disk, applying the same options
// to each.
func LoadPair(analyserPath, generatorPath string, opts ...Option) (*Pair, error) {
	analyser, err := Load(analyserPath, opts...)
	if err != nil {
		return nil, err
	}
	generator, err := Load(generatorPath, opts...)
	if err != nil {
		return nil, err
	}
	return NewPair(analyser, generator), nil
}

// Analyse looks up the wordform in the analyser, then standardizes every
// reading through the generator: when all surface forms generated from a
// reading agree, that form becomes its Standardized field.
func (p *Pair) Analyse(ctx context.Context, wordform string) ([]fst.Analysis, error) {
	analyses, err := p.Analyser.Analyse(ctx, wordform)
	if err != nil {
		return nil, err
	}

	out := make([]fst.Analysis, len(analyses))
	copy(out, analyses)
	for i := range out {
		forms, err := p.Generator.generateFromTags(ctx, out[i].Symbols)
		if err != nil {
			return nil, err
		}
		out[i].Standardized = agreedText(forms)
	}

	if p.distance != nil {
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := p.rank(wordform, out[i]), p.rank(wordform, out[j])
			if di != dj {
				return di < dj
			}
			if out[i].Weight != out[j].Weight {
				return out[i].Weight < out[j].Weight
			}
			return out[i].Key() < out[j].Key()
		})
	}
	return out, nil
}

func (p *Pair) rank(wordform string, a fst.Analysis) float64 {
	if a.Standardized == "" {
		return math.Inf(1)
	}
	return p.distance(wordform, a.Standardized)
}

func agreedText(forms []fst.Wordform) string {
	if len(forms) == 0 {
		return ""
	}
	text := forms[0].Text()
	for _, f := range forms[1:] {
		if f.Text() != text {
			return ""
		}
	}
	return text
}

// Generate runs the analysis string through the generator's input side
// and returns the surface wordforms.
func (p *Pair) Generate(ctx context.Context, analysis string) ([]fst.Wordform, error) {
	return p.Generator.GenerateFrom(ctx, analysis)
}

// RoundTrip analyses a wordform and regenerates surface forms from every
// reading through the generator, deduplicated and sorted by weight.
func (p *Pair) RoundTrip(ctx context.Context, wordform string) ([]fst.Wordform, error) {
	analyses, err := p.Analyser.Analyse(ctx, wordform)
	if err != nil {
		return nil, err
	}

	var union []fst.Wordform
	seen := make(map[string]struct{})
	for _, a := range analyses {
		forms, err := p.Generator.generateFromTags(ctx, a.Symbols)
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

// GenerateFrom runs an input-side lookup but shapes the results as
// wordforms, which is what a dedicated generator transducer emits when
// fed a tagged analysis string.
func (t *Transducer) GenerateFrom(ctx context.Context, analysis string) ([]fst.Wordform, error) {
	started := time.Now()
	t.emitStart(ctx, runtime.Generate.String(), analysis)
	paths, stats, err := t.walk(ctx, runtime.Analyse, analysis)
	return t.finishGenerate(ctx, started, analysis, paths, stats, err)
}
