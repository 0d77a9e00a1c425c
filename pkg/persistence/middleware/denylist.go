package middleware

import (
	"context"
	"regexp"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

type denylistMiddleware struct {
	next     ports.AnalysisCache
	patterns []*regexp.Regexp
}

// NewDenylistMiddleware creates a middleware that keeps keys matching
// any of the patterns out of the backend. Lookups for them still run,
// their results are just never persisted, so sensitive vocabulary stays
// out of shared cache instances.
func NewDenylistMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.AnalysisCache) ports.AnalysisCache {
		return &denylistMiddleware{next: next, patterns: patterns}
	}
}

func (m *denylistMiddleware) Get(ctx context.Context, key string) ([]fst.Analysis, bool, error) {
	// Denied keys read as misses even if an earlier configuration let
	// them through.
	if m.denied(key) {
		return nil, false, nil
	}
	return m.next.Get(ctx, key)
}

func (m *denylistMiddleware) Set(ctx context.Context, key string, analyses []fst.Analysis) error {
	if m.denied(key) {
		return nil
	}
	return m.next.Set(ctx, key, analyses)
}

// Delete passes through so operators can purge denied keys cached
// before the pattern existed.
func (m *denylistMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *denylistMiddleware) denied(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
