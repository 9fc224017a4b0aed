package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds one shared section fetch.
const DefaultLoadTimeout = 10 * time.Second

// LoaderOptions configures a SectionLoader.
type LoaderOptions struct {
	Cache *SectionDataCache
	// Timeout bounds each fetch. Fetches are detached from the caller's
	// cancellation because joined callers share them.
	Timeout   time.Duration
	Telemetry Telemetry
	Logger    *zap.Logger
}

// SectionLoader fetches role-scoped records per section and caches them.
// Concurrent loads of the same section version share one network call.
type SectionLoader struct {
	registry  *Registry
	session   Session
	cache     *SectionDataCache
	group     singleflight.Group
	timeout   time.Duration
	telemetry Telemetry
	logger    *zap.Logger
}

// NewSectionLoader binds a loader to a registry and the viewer session.
func NewSectionLoader(registry *Registry, session Session, opts LoaderOptions) *SectionLoader {
	if opts.Cache == nil {
		opts.Cache = NewSectionDataCache(0)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLoadTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &SectionLoader{
		registry:  registry,
		session:   session,
		cache:     opts.Cache,
		timeout:   opts.Timeout,
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    opts.Logger,
	}
}

// Cache exposes the backing SectionDataCache to render collaborators.
func (l *SectionLoader) Cache() *SectionDataCache {
	return l.cache
}

// Load returns the entry for id, fetching it unless a ready, non-invalidated
// entry exists. Fetch failures are recorded in the entry with state error and
// are not returned; the only error is ErrSectionNotFound.
func (l *SectionLoader) Load(ctx context.Context, id string) (SectionData, error) {
	def, ok := l.registry.Section(id)
	if !ok {
		return SectionData{}, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if data, ok := l.cache.Fresh(def.ID); ok {
		l.logger.Debug("section cache hit", zap.String("section", def.ID))
		return data, nil
	}
	version := l.cache.Version(def.ID)
	key := fmt.Sprintf("%s@%d", def.ID, version)
	result, _, _ := l.group.Do(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		return l.fetch(fetchCtx, def, version), nil
	})
	return result.(SectionData), nil
}

func (l *SectionLoader) fetch(ctx context.Context, def SectionDescriptor, version uint64) SectionData {
	loader, hasLoader, err := l.registry.LoaderFor(def)
	if err != nil {
		return l.fail(ctx, def, version, err)
	}
	if !hasLoader {
		return l.cache.complete(def.ID, version, nil, nil)
	}
	l.cache.begin(def.ID, version)
	started := time.Now()
	records, err := loader.Load(ctx, LoadRequest{Section: def, Session: l.session})
	if err != nil {
		return l.fail(ctx, def, version, err)
	}
	data := l.cache.complete(def.ID, version, records, nil)
	l.logger.Debug("section loaded",
		zap.String("section", def.ID),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return data
}

func (l *SectionLoader) fail(ctx context.Context, def SectionDescriptor, version uint64, err error) SectionData {
	l.logger.Warn("section load failed", zap.String("section", def.ID), zap.Error(err))
	l.telemetry.Record(ctx, "dashboard.section.load_error", map[string]any{
		"section": def.ID,
		"error":   err.Error(),
	})
	return l.cache.complete(def.ID, version, nil, err)
}

// Invalidate marks sections stale so their next Load refetches.
func (l *SectionLoader) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	l.cache.Invalidate(ids...)
	l.telemetry.Record(ctx, "dashboard.cache.invalidate", map[string]any{"sections": ids})
}

// InvalidateResource marks every section listing resource stale and returns
// their ids.
func (l *SectionLoader) InvalidateResource(ctx context.Context, resource string) []string {
	ids := l.registry.SectionsByResource(resource)
	l.Invalidate(ctx, ids...)
	return ids
}
