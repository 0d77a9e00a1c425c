package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/config"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/adapters/memory"
	redisadapter "github.com/UAlbertaALTLab/hfst-altlab/pkg/adapters/redis"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/observability"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/persistence/middleware"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// Service assembles the configured lookup stack: transducers, analysis
// cache, cache middlewares and metrics. The loaded models sit behind an
// atomic pointer so Reload can swap them while requests are in flight.
type Service struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   ports.AnalysisCache
	closer  io.Closer

	reloadMu sync.Mutex
	current  atomic.Pointer[loadedModels]
}

type loadedModels struct {
	morphology ports.Morphology
	analyser   *hfstol.Transducer
	generator  *hfstol.Transducer
}

// NewService builds the stack from cfg and loads the transducers once.
// The context bounds the initial cache backend connection check.
func NewService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	metrics := observability.NewMetrics()

	cache, closer, err := buildCache(ctx, cfg, metrics)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		cache:   cache,
		closer:  closer,
	}
	if err := s.Reload(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// buildCache wires the configured backend with the denylist, encryption
// and instrumentation layers. The "none" backend yields a nil cache.
func buildCache(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (ports.AnalysisCache, io.Closer, error) {
	var base ports.AnalysisCache
	var closer io.Closer

	switch cfg.Cache.Backend {
	case "none":
		return nil, nil, nil
	case "memory":
		base = memory.NewCache(cfg.Cache.MaxEntries)
	case "redis":
		rc := redisadapter.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB,
			redisadapter.WithPrefix(cfg.Cache.Redis.Prefix),
			redisadapter.WithTTL(cfg.Cache.Redis.TTL),
		)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("redis cache at %s: %w", cfg.Cache.Redis.Addr, err)
		}
		base, closer = rc, rc
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	key, err := cfg.Cache.DecodeEncryptionKey()
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.Cache.Denylist) > 0 {
		mws = append(mws, middleware.NewDenylistMiddleware(cfg.Cache.Denylist))
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	return metrics.InstrumentCache(middleware.Chain(mws...)(base)), closer, nil
}

// options assembles the load options for one transducer. Only the
// analyser gets the cache: generation already rides on cached analyses.
func (s *Service) options(withCache bool) []hfstol.Option {
	opts := s.cfg.Lookup.Options()
	opts = append(opts,
		hfstol.WithLogger(s.logger),
		hfstol.WithLifecycleHooks(s.metrics.Hooks()),
	)
	if withCache && s.cache != nil {
		opts = append(opts, hfstol.WithCache(s.cache))
	}
	return opts
}

// Reload loads the transducers from their configured paths and swaps
// them in. A failed reload leaves the service on the previous models.
func (s *Service) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	analyser, err := hfstol.Load(s.cfg.Transducers.Analyser, s.options(true)...)
	if err != nil {
		return fmt.Errorf("load analyser: %w", err)
	}

	models := &loadedModels{morphology: analyser, analyser: analyser}
	if s.cfg.Transducers.Generator != "" {
		generator, err := hfstol.Load(s.cfg.Transducers.Generator, s.options(false)...)
		if err != nil {
			return fmt.Errorf("load generator: %w", err)
		}
		models.generator = generator
		models.morphology = hfstol.NewPair(analyser, generator)
	}

	s.current.Store(models)

	s.metrics.SetTransducerInfo("analyser", analyser.Source(), analyser.Fingerprint(), analyser.Weighted())
	s.logger.Info("analyser loaded",
		"source", analyser.Source(),
		"states", analyser.StateCount(),
		"weighted", analyser.Weighted())
	if models.generator != nil {
		g := models.generator
		s.metrics.SetTransducerInfo("generator", g.Source(), g.Fingerprint(), g.Weighted())
		s.logger.Info("generator loaded",
			"source", g.Source(),
			"states", g.StateCount(),
			"weighted", g.Weighted())
	}
	return nil
}

// Provider hands out the current Morphology; adapters call it per
// request so reloads take effect without a restart.
func (s *Service) Provider() func() ports.Morphology {
	return func() ports.Morphology {
		return s.current.Load().morphology
	}
}

// Transducers returns the currently loaded models. The generator is nil
// when the service runs a lone analyser.
func (s *Service) Transducers() (*hfstol.Transducer, *hfstol.Transducer) {
	models := s.current.Load()
	return models.analyser, models.generator
}

// Metrics exposes the service metrics bundle.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// WatchPaths lists the files a reload watcher should track.
func (s *Service) WatchPaths() []string {
	paths := []string{s.cfg.Transducers.Analyser}
	if s.cfg.Transducers.Generator != "" {
		paths = append(paths, s.cfg.Transducers.Generator)
	}
	return paths
}

// Close releases the cache backend connection, if any.
func (s *Service) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
