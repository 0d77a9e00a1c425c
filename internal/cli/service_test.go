package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UAlbertaALTLab/hfst-altlab/internal/config"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/logging"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/testutils"
)

func writeImage(t *testing.T, dir, name string, b *testutils.Builder) string {
	t.Helper()
	img, err := b.Image()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, img, 0o644))
	return path
}

func testConfig(analyser, generator string) *config.Config {
	cfg := &config.Config{}
	cfg.Transducers.Analyser = analyser
	cfg.Transducers.Generator = generator
	cfg.Lookup.Cutoff = time.Minute
	cfg.Lookup.MaxPaths = -1
	cfg.Lookup.MaxSteps = -1
	cfg.Cache.Backend = "memory"
	cfg.Cache.MaxEntries = 100
	return cfg
}

func TestServiceServesConfiguredPair(t *testing.T) {
	dir := t.TempDir()
	analyser := writeImage(t, dir, "crk.hfstol", testutils.Analyser(testutils.CreeLexicon()))
	generator := writeImage(t, dir, "crk-gen.hfstol", testutils.Generator(testutils.CreeLexicon()))

	svc, err := NewService(context.Background(), testConfig(analyser, generator), logging.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	analyses, err := svc.Provider()().Analyse(context.Background(), "atim")
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.Equal(t, "atim+N+A+Sg", analyses[0].Text())
	assert.Equal(t, "atim", analyses[0].Standardized)

	a, g := svc.Transducers()
	require.NotNil(t, a)
	require.NotNil(t, g)
	assert.Equal(t, []string{analyser, generator}, svc.WatchPaths())
}

func TestServiceLoneAnalyser(t *testing.T) {
	dir := t.TempDir()
	analyser := writeImage(t, dir, "crk.hfstol", testutils.Analyser(testutils.CreeLexicon()))

	cfg := testConfig(analyser, "")
	cfg.Cache.Backend = "none"
	svc, err := NewService(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	analyses, err := svc.Provider()().Analyse(context.Background(), "atim")
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.Empty(t, analyses[0].Standardized)

	_, g := svc.Transducers()
	assert.Nil(t, g)
	assert.Equal(t, []string{analyser}, svc.WatchPaths())
}

func TestServiceReloadSwapsModels(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "model.hfstol", testutils.Analyser(testutils.CreeLexicon()))

	cfg := testConfig(path, "")
	cfg.Cache.Backend = "none"
	svc, err := NewService(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	before, _ := svc.Transducers()

	niska := []testutils.Entry{{Surface: "niska", Analysis: []string{"niska", "+N", "+A", "+Sg"}}}
	img, err := testutils.Analyser(niska).Image()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, img, 0o644))

	require.NoError(t, svc.Reload())

	after, _ := svc.Transducers()
	assert.NotEqual(t, before.Fingerprint(), after.Fingerprint())

	analyses, err := svc.Provider()().Analyse(context.Background(), "niska")
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "niska+N+A+Sg", analyses[0].Text())
}

func TestServiceReloadFailureKeepsModels(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "model.hfstol", testutils.Analyser(testutils.CreeLexicon()))

	cfg := testConfig(path, "")
	cfg.Cache.Backend = "none"
	svc, err := NewService(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, os.WriteFile(path, []byte("not a transducer"), 0o644))
	require.Error(t, svc.Reload())

	// Still answering from the previous model.
	analyses, err := svc.Provider()().Analyse(context.Background(), "atim")
	require.NoError(t, err)
	assert.Len(t, analyses, 2)
}

func TestServiceRejectsMissingAnalyser(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "absent.hfstol"), "")
	_, err := NewService(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load analyser")
}

func TestServiceCacheChainRoundTrip(t *testing.T) {
	dir := t.TempDir()
	analyser := writeImage(t, dir, "crk.hfstol", testutils.Analyser(testutils.CreeLexicon()))

	cfg := testConfig(analyser, "")
	cfg.Cache.Denylist = []string{"^never:"}
	cfg.Cache.EncryptionKey = strings.Repeat("ab", 32)

	svc, err := NewService(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	m := svc.Provider()()
	first, err := m.Analyse(context.Background(), "atim")
	require.NoError(t, err)

	// Second call answers from the cache through the encryption layer.
	second, err := m.Analyse(context.Background(), "atim")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
