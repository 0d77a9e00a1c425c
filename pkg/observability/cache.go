package observability

import (
	"context"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

type instrumentedCache struct {
	next    ports.AnalysisCache
	metrics *Metrics
}

// InstrumentCache decorates cache so hits, misses and failures show up
// on the cache_requests_total counter.
func (m *Metrics) InstrumentCache(next ports.AnalysisCache) ports.AnalysisCache {
	return &instrumentedCache{next: next, metrics: m}
}

func (c *instrumentedCache) Get(ctx context.Context, key string) ([]fst.Analysis, bool, error) {
	analyses, found, err := c.next.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.cacheOps.WithLabelValues("get", "error").Inc()
	case found:
		c.metrics.cacheOps.WithLabelValues("get", "hit").Inc()
	default:
		c.metrics.cacheOps.WithLabelValues("get", "miss").Inc()
	}
	return analyses, found, err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, analyses []fst.Analysis) error {
	err := c.next.Set(ctx, key, analyses)
	c.metrics.cacheOps.WithLabelValues("set", resultLabel(err)).Inc()
	return err
}

func (c *instrumentedCache) Delete(ctx context.Context, key string) error {
	err := c.next.Delete(ctx, key)
	c.metrics.cacheOps.WithLabelValues("delete", resultLabel(err)).Inc()
	return err
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
