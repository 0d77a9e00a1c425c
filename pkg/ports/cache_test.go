package ports_test

import (
	"context"
	"slices"
	"testing"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// mapCache is a minimal in-memory AnalysisCache used to exercise the
// contract itself. It copies values on both sides to simulate
// serialization, the way real backends behave.
type mapCache struct {
	data map[string][]fst.Analysis
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]fst.Analysis)}
}

func (m *mapCache) Get(_ context.Context, key string) ([]fst.Analysis, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (m *mapCache) Set(_ context.Context, key string, analyses []fst.Analysis) error {
	m.data[key] = clone(analyses)
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func clone(in []fst.Analysis) []fst.Analysis {
	out := make([]fst.Analysis, len(in))
	for i, a := range in {
		out[i] = a
		out[i].Symbols = slices.Clone(a.Symbols)
	}
	return out
}

func TestAnalysisCacheContract(t *testing.T) {
	ports.RunAnalysisCacheContract(t, newMapCache())
}
