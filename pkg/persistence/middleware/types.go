package middleware

import "github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"

// Middleware allows wrapping an AnalysisCache to add behavior.
type Middleware func(ports.AnalysisCache) ports.AnalysisCache

// Chain composes middlewares so the first one listed sees operations
// first.
func Chain(mws ...Middleware) Middleware {
	return func(next ports.AnalysisCache) ports.AnalysisCache {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
