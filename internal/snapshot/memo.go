package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
	"github.com/wonny/vnequity/pkg/redis"
)

type memoEntry struct {
	ds      *contracts.Dataset
	expires time.Time
}

// Memo caches a source's tables for a TTL, keyed by (source, kind).
// Entries live in process memory and, when enabled, in Redis so that
// replicas share a warm cache. Invalidate drops entries explicitly.
// ⭐ SSOT: 스냅샷 캐시 (TTL + 명시적 무효화)
type Memo struct {
	source contracts.SnapshotSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[contracts.Kind]memoEntry
}

// NewMemo wraps source. cache may be nil or disabled.
func NewMemo(source contracts.SnapshotSource, cache *redis.Cache, ttl time.Duration, logger *logger.Logger) *Memo {
	return &Memo{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[contracts.Kind]memoEntry),
	}
}

func (m *Memo) Name() string { return m.source.Name() }

// Load returns a cached table or loads it from the wrapped source
func (m *Memo) Load(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	m.mu.Lock()
	if e, ok := m.entries[kind]; ok && m.now().Before(e.expires) {
		m.mu.Unlock()
		return e.ds, nil
	}
	m.mu.Unlock()

	key := redis.SnapshotKey(m.source.Name(), string(kind))
	if m.cache != nil && m.cache.Enabled() {
		var ds contracts.Dataset
		found, err := m.cache.Get(ctx, key, &ds)
		if err != nil {
			m.logger.WithError(err).WithField("kind", kind).Warn("Snapshot cache read failed")
		}
		if found {
			m.store(kind, &ds)
			return &ds, nil
		}
	}

	start := m.now()
	ds, err := m.source.Load(ctx, kind)
	if err != nil {
		return nil, err
	}
	m.store(kind, ds)

	if m.cache != nil && m.cache.Enabled() {
		if err := m.cache.Set(ctx, key, ds, m.ttl); err != nil {
			m.logger.WithError(err).WithField("kind", kind).Warn("Snapshot cache write failed")
		}
	}

	m.logger.WithFields(map[string]interface{}{
		"source":   m.source.Name(),
		"kind":     kind,
		"rows":     ds.Len(),
		"columns":  len(ds.Columns()),
		"duration": m.now().Sub(start),
	}).Info("Snapshot loaded")

	return ds, nil
}

func (m *Memo) store(kind contracts.Kind, ds *contracts.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[kind] = memoEntry{ds: ds, expires: m.now().Add(m.ttl)}
}

// Invalidate drops cached tables; no kinds means all of them
func (m *Memo) Invalidate(ctx context.Context, kinds ...contracts.Kind) error {
	m.mu.Lock()
	if len(kinds) == 0 {
		m.entries = make(map[contracts.Kind]memoEntry)
	} else {
		for _, k := range kinds {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()

	if m.cache == nil || !m.cache.Enabled() {
		return nil
	}
	if len(kinds) == 0 {
		_, err := m.cache.DeletePrefix(ctx, redis.SnapshotPrefix(m.source.Name()))
		return err
	}
	for _, k := range kinds {
		if err := m.cache.Delete(ctx, redis.SnapshotKey(m.source.Name(), string(k))); err != nil {
			return err
		}
	}
	return nil
}
