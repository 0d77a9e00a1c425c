package hfstol_test

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/testutils"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

func creeAnalyser(t *testing.T, opts ...hfstol.Option) *hfstol.Transducer {
	t.Helper()
	image, err := testutils.Analyser(testutils.CreeLexicon()).Image()
	require.NoError(t, err)
	tr, err := hfstol.LoadBytes("crk-analyser", image, opts...)
	require.NoError(t, err)
	return tr
}

func creeGenerator(t *testing.T, opts ...hfstol.Option) *hfstol.Transducer {
	t.Helper()
	image, err := testutils.Generator(testutils.CreeLexicon()).Image()
	require.NoError(t, err)
	tr, err := hfstol.LoadBytes("crk-generator", image, opts...)
	require.NoError(t, err)
	return tr
}

func analysisTexts(list []fst.Analysis) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Text()
	}
	return out
}

func wordformTexts(list []fst.Wordform) []string {
	out := make([]string, len(list))
	for i, w := range list {
		out[i] = w.Text()
	}
	return out
}

func TestLoadFromFile(t *testing.T) {
	image, err := testutils.Analyser(testutils.CreeLexicon()).Image()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "crk.hfstol")
	require.NoError(t, os.WriteFile(path, image, 0o644))

	tr, err := hfstol.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, tr.Source())
	assert.Len(t, tr.Fingerprint(), 64)
	assert.False(t, tr.Weighted())

	analyses, err := tr.Analyse(context.Background(), "atim")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"atim+N+A+Sg",
		"atimêw+V+TA+Imp+Imm+2Sg+3SgO",
	}, analysisTexts(analyses))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := hfstol.Load(filepath.Join(t.TempDir(), "absent.hfstol"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadBytesRejectsGarbage(t *testing.T) {
	_, err := hfstol.LoadBytes("garbage", make([]byte, 64))
	require.Error(t, err)
	assert.ErrorIs(t, err, fst.ErrBadFormat)
}

func TestLoadBytesRejectsGzip(t *testing.T) {
	_, err := hfstol.LoadBytes("model.hfstol.gz", []byte{0x1f, 0x8b, 0x08, 0x00})
	require.Error(t, err)
	var compressed *fst.CompressedInputError
	require.ErrorAs(t, err, &compressed)
	assert.Equal(t, "model.hfstol.gz", compressed.Source)
}

func TestGenerateInverts(t *testing.T) {
	tr := creeAnalyser(t)

	forms, err := tr.Generate(context.Background(), "atim+N+A+Pl")
	require.NoError(t, err)
	assert.Equal(t, []string{"atimwak"}, wordformTexts(forms))
	assert.Zero(t, forms[0].Weight)
}

func TestGenerateTags(t *testing.T) {
	tr := creeAnalyser(t)
	ctx := context.Background()

	forms, err := tr.GenerateTags(ctx, []string{"atim", "+N", "+A", "+Pl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"atimwak"}, wordformTexts(forms))

	// Flag diacritics and empty strings among the tags are skipped.
	forms, err = tr.GenerateTags(ctx, []string{"atim", "@P.NUM.PL@", "", "+N", "+A", "+Pl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"atimwak"}, wordformTexts(forms))

	forms, err = tr.GenerateTags(ctx, []string{"atim", "+Nope"})
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestRoundTrip(t *testing.T) {
	tr := creeAnalyser(t)

	forms, err := tr.RoundTrip(context.Background(), "atim")
	require.NoError(t, err)
	assert.Equal(t, []string{"atim"}, wordformTexts(forms))
}

func TestLookupKeepsTraversalOrder(t *testing.T) {
	tr := creeAnalyser(t)

	lines, err := tr.Lookup(context.Background(), "atim")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"atim+N+A+Sg",
		"atimêw+V+TA+Imp+Imm+2Sg+3SgO",
	}, lines)

	lines, err = tr.Lookup(context.Background(), "mispon")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLookupSymbolsFiltersFlags(t *testing.T) {
	b := testutils.NewBuilder()
	one, two := b.State(), b.State()
	end := b.State()
	b.Arc(0, "@P.V.ONE@", "@P.V.ONE@", one)
	b.Arc(one, "a", "X", two)
	b.Arc(two, "@R.V.ONE@", "@R.V.ONE@", end)
	b.Final(end)
	image, err := b.Image()
	require.NoError(t, err)
	tr, err := hfstol.LoadBytes("flagged", image)
	require.NoError(t, err)

	symbols, err := tr.LookupSymbols(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"X"}}, symbols)

	lines, err := tr.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, lines)
}

func TestDistinctFlagTrajectoriesStayDistinct(t *testing.T) {
	b := testutils.NewBuilder()
	mid := b.State()
	end := b.State()
	b.Arc(0, "c", "c", mid)
	b.Arc(mid, "@U.CASE.GEN@", "@U.CASE.GEN@", end)
	b.Arc(mid, "@U.CASE.DAT@", "@U.CASE.DAT@", end)
	b.Final(end)
	image, err := b.Image()
	require.NoError(t, err)
	tr, err := hfstol.LoadBytes("cases", image)
	require.NoError(t, err)

	// Same surface, different diacritic trajectories: both survive
	// deduplication because keys cover the full symbol sequence.
	analyses, err := tr.Analyse(context.Background(), "c")
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.Equal(t, "c", analyses[0].Text())
	assert.Equal(t, "c", analyses[1].Text())
	assert.NotEqual(t, analyses[0].Key(), analyses[1].Key())
}

func TestEqualPathsKeepMinimumWeight(t *testing.T) {
	b := testutils.NewBuilder().Weighted()
	end := b.State()
	b.WeightedArc(0, "a", "a", end, 3)
	b.WeightedArc(0, "a", "a", end, 1)
	b.Final(end)
	image, err := b.Image()
	require.NoError(t, err)
	tr, err := hfstol.LoadBytes("parallel", image)
	require.NoError(t, err)

	analyses, err := tr.Analyse(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "a", analyses[0].Text())
	assert.Equal(t, 1.0, analyses[0].Weight)
}

func TestRepeatedLookupsAgree(t *testing.T) {
	tr := creeAnalyser(t)

	first, err := tr.Analyse(context.Background(), "atim")
	require.NoError(t, err)
	second, err := tr.Analyse(context.Background(), "atim")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWalkAnalysesStreams(t *testing.T) {
	tr := creeAnalyser(t)

	var got []string
	err := tr.WalkAnalyses(context.Background(), "atim", func(a fst.Analysis) bool {
		got = append(got, a.Text())
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"atim+N+A+Sg"}, got)
}

func TestBulkLookup(t *testing.T) {
	tr := creeAnalyser(t)

	got, err := tr.BulkLookup(context.Background(), []string{"atim", "atimwak", "mispon"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{
		"atim+N+A+Sg",
		"atimêw+V+TA+Imp+Imm+2Sg+3SgO",
	}, got["atim"])
	assert.Equal(t, []string{"atim+N+A+Pl"}, got["atimwak"])
	assert.Empty(t, got["mispon"])
}

func TestPathLimitReturnsPartialResults(t *testing.T) {
	tr := creeAnalyser(t, hfstol.WithPathLimit(1))

	analyses, err := tr.Analyse(context.Background(), "atim")
	require.ErrorIs(t, err, fst.ErrCutoff)
	assert.Equal(t, []string{"atim+N+A+Sg"}, analysisTexts(analyses))
}

func TestZeroBudgetTruncatesImmediately(t *testing.T) {
	tr := creeAnalyser(t, hfstol.WithStepLimit(0))

	analyses, err := tr.Analyse(context.Background(), "atim")
	require.ErrorIs(t, err, fst.ErrCutoff)
	assert.Empty(t, analyses)
}

type countingCache struct {
	mu   sync.Mutex
	data map[string][]fst.Analysis
	gets int
	sets int
	hits int
}

func newCountingCache() *countingCache {
	return &countingCache{data: make(map[string][]fst.Analysis)}
}

func (c *countingCache) Get(_ context.Context, key string) ([]fst.Analysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, analyses []fst.Analysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = analyses
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestAnalyseUsesCache(t *testing.T) {
	cache := newCountingCache()
	tr := creeAnalyser(t, hfstol.WithCache(cache))
	ctx := context.Background()

	first, err := tr.Analyse(ctx, "atim")
	require.NoError(t, err)
	second, err := tr.Analyse(ctx, "atim")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.sets)
}

func TestLifecycleHooks(t *testing.T) {
	var (
		starts []string
		events []fst.LookupEvent
	)
	hooks := fst.LifecycleHooks{
		OnLookupStart: func(_ context.Context, direction, input string) {
			starts = append(starts, direction+" "+input)
		},
		OnLookupDone: func(_ context.Context, ev fst.LookupEvent) {
			events = append(events, ev)
		},
	}
	cache := newCountingCache()
	tr := creeAnalyser(t, hfstol.WithCache(cache), hfstol.WithLifecycleHooks(hooks))
	ctx := context.Background()

	_, err := tr.Analyse(ctx, "atim")
	require.NoError(t, err)
	_, err = tr.Analyse(ctx, "atim")
	require.NoError(t, err)

	require.Equal(t, []string{"analyse atim", "analyse atim"}, starts)
	require.Len(t, events, 2)
	assert.False(t, events[0].CacheHit)
	assert.Equal(t, 2, events[0].Results)
	assert.Positive(t, events[0].Steps)
	assert.NoError(t, events[0].Err)
	assert.True(t, events[1].CacheHit)
	assert.Equal(t, 2, events[1].Results)
}

func TestInfiniteAmbiguityWarns(t *testing.T) {
	b := testutils.NewBuilder().MarkEpsilonCycles()
	one := b.State()
	b.Arc(0, "", "x", one)
	b.Arc(one, "", "y", 0)
	b.Final(0)
	image, err := b.Image()
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	_, err = hfstol.LoadBytes("cyclic", image, hfstol.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "unweighted input epsilon cycles")
}

func TestPairStandardizes(t *testing.T) {
	analyser := []testutils.Entry{
		{Surface: "color", Analysis: []string{"colour", "+N"}, Weight: 5},
		{Surface: "color", Analysis: []string{"kolor", "+Foreign"}},
	}
	generator := []testutils.Entry{
		{Surface: "colour", Analysis: []string{"colour", "+N"}},
	}

	aImage, err := testutils.Analyser(analyser).Image()
	require.NoError(t, err)
	gImage, err := testutils.Generator(generator).Image()
	require.NoError(t, err)
	a, err := hfstol.LoadBytes("analyser", aImage)
	require.NoError(t, err)
	g, err := hfstol.LoadBytes("generator", gImage)
	require.NoError(t, err)

	ctx := context.Background()

	// Weight order: the foreign reading is lighter and comes first. Its
	// lemma is unknown to the generator, so it has no standardized form.
	plain := hfstol.NewPair(a, g)
	analyses, err := plain.Analyse(ctx, "color")
	require.NoError(t, err)
	require.Equal(t, []string{"kolor+Foreign", "colour+N"}, analysisTexts(analyses))
	assert.Equal(t, "", analyses[0].Standardized)
	assert.Equal(t, "colour", analyses[1].Standardized)

	// Distance ranking puts the standardized reading first regardless of
	// weight.
	lengthGap := func(wordform, candidate string) float64 {
		d := len(candidate) - len(wordform)
		if d < 0 {
			d = -d
		}
		return float64(d)
	}
	ranked := hfstol.NewPair(a, g, hfstol.WithDistance(lengthGap))
	analyses, err = ranked.Analyse(ctx, "color")
	require.NoError(t, err)
	require.Equal(t, []string{"colour+N", "kolor+Foreign"}, analysisTexts(analyses))
}

func TestPairGenerate(t *testing.T) {
	pair := hfstol.NewPair(creeAnalyser(t), creeGenerator(t))

	forms, err := pair.Generate(context.Background(), "atim+N+A+Pl")
	require.NoError(t, err)
	assert.Equal(t, []string{"atimwak"}, wordformTexts(forms))
}

func TestPairRoundTrip(t *testing.T) {
	pair := hfstol.NewPair(creeAnalyser(t), creeGenerator(t))

	forms, err := pair.RoundTrip(context.Background(), "atim")
	require.NoError(t, err)
	assert.Equal(t, []string{"atim"}, wordformTexts(forms))
}
