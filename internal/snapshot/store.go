package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
)

// Store holds the market, industry and ticker tables of one source
type Store struct {
	source contracts.SnapshotSource
	logger *logger.Logger

	mu       sync.RWMutex
	tables   map[contracts.Kind]*contracts.Dataset
	loadedAt time.Time
}

// NewStore creates a store over source (usually a *Memo)
func NewStore(source contracts.SnapshotSource, logger *logger.Logger) *Store {
	return &Store{
		source: source,
		logger: logger,
		tables: make(map[contracts.Kind]*contracts.Dataset),
	}
}

// LoadAll loads every table concurrently. Tables are swapped in only when
// all loads succeed.
func (s *Store) LoadAll(ctx context.Context) error {
	kinds := contracts.AllKinds()
	loaded := make([]*contracts.Dataset, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			ds, err := s.source.Load(gctx, kind)
			if err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			loaded[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	for i, kind := range kinds {
		s.tables[kind] = loaded[i]
	}
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"source":   s.source.Name(),
		"market":   loaded[0].Len(),
		"industry": loaded[1].Len(),
		"ticker":   loaded[2].Len(),
	}).Info("Snapshots ready")
	return nil
}

// Get returns a table, loading it on first use
func (s *Store) Get(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown snapshot kind %q", kind)
	}

	s.mu.RLock()
	ds, ok := s.tables[kind]
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	ds, err := s.source.Load(ctx, kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.tables[kind] = ds
	s.mu.Unlock()
	return ds, nil
}

// Market returns the market table
func (s *Store) Market(ctx context.Context) (*contracts.Dataset, error) {
	return s.Get(ctx, contracts.KindMarket)
}

// Industry returns the industry table
func (s *Store) Industry(ctx context.Context) (*contracts.Dataset, error) {
	return s.Get(ctx, contracts.KindIndustry)
}

// Ticker returns the ticker table
func (s *Store) Ticker(ctx context.Context) (*contracts.Dataset, error) {
	return s.Get(ctx, contracts.KindTicker)
}

// LoadedAt is the time of the last successful LoadAll
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Reset forgets loaded tables so the next Get reloads through the source
func (s *Store) Reset() {
	s.mu.Lock()
	s.tables = make(map[contracts.Kind]*contracts.Dataset)
	s.mu.Unlock()
}
