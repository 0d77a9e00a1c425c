package ports

import (
	"context"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// AnalysisCache memoises the result set of an analysis lookup. Keys are
// opaque to implementations; the engine namespaces them by transducer
// fingerprint so that swapping a model never serves stale entries.
//
// An empty result set is a valid cached value: misses are expensive to
// recompute for exactly the inputs that have no analyses.
type AnalysisCache interface {
	// Get returns the cached result set for key. found is false on a
	// cache miss; an error means the backend failed, not that the key
	// is absent.
	Get(ctx context.Context, key string) (analyses []fst.Analysis, found bool, err error)

	// Set stores the result set for key, replacing any previous value.
	Set(ctx context.Context, key string, analyses []fst.Analysis) error

	// Delete removes the entry for key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error
}
