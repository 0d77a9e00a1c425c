package ports

import (
	"context"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Morphology is the lookup surface transport adapters program against.
// This is the interface used by adapters (e.g. HTTP, MCP) so they never
// depend on how the transducers were loaded or paired.
type Morphology interface {
	// Analyse returns the analyses of one surface wordform.
	Analyse(ctx context.Context, wordform string) ([]fst.Analysis, error)

	// Generate returns the surface wordforms for one analysis string.
	Generate(ctx context.Context, analysis string) ([]fst.Wordform, error)

	// RoundTrip analyses a wordform and regenerates surface forms from
	// every analysis, deduplicated.
	RoundTrip(ctx context.Context, wordform string) ([]fst.Wordform, error)
}
