package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/vnequity/internal/pipeline"
	"github.com/wonny/vnequity/pkg/logger"
	"github.com/wonny/vnequity/pkg/redis"
)

// ErrNotFound is returned for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// State is what one caller keeps between requests
type State struct {
	ID          string            `json:"id"`
	Watchlist   []string          `json:"watchlist"`
	LastRequest *pipeline.Request `json:"last_request,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Watch adds symbol to the watchlist; false when already present
func (s *State) Watch(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || s.Watching(symbol) {
		return false
	}
	s.Watchlist = append(s.Watchlist, symbol)
	sort.Strings(s.Watchlist)
	return true
}

// Unwatch removes symbol; false when absent
func (s *State) Unwatch(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for i, w := range s.Watchlist {
		if w == symbol {
			s.Watchlist = append(s.Watchlist[:i], s.Watchlist[i+1:]...)
			return true
		}
	}
	return false
}

// Watching reports whether symbol is on the watchlist
func (s *State) Watching(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	for _, w := range s.Watchlist {
		if w == symbol {
			return true
		}
	}
	return false
}

func (s *State) clone() *State {
	out := *s
	out.Watchlist = append([]string(nil), s.Watchlist...)
	if s.LastRequest != nil {
		req := *s.LastRequest
		out.LastRequest = &req
	}
	return &out
}

// Registry hands out per-session state with idle expiry. Sessions live in
// memory and, when the cache is enabled, in Redis so any replica can serve
// them.
// ⭐ SSOT: 세션 상태 (관심 종목, 마지막 요청)는 여기서만
type Registry struct {
	ttl    time.Duration
	cache  *redis.Cache
	logger *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*State
}

// NewRegistry creates a registry. cache may be nil.
func NewRegistry(ttl time.Duration, cache *redis.Cache, logger *logger.Logger) *Registry {
	return &Registry{
		ttl:      ttl,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*State),
	}
}

func (r *Registry) cacheEnabled() bool {
	return r.cache != nil && r.cache.Enabled()
}

// Create starts a new empty session
func (r *Registry) Create(ctx context.Context) (*State, error) {
	now := r.now()
	st := &State{
		ID:        uuid.New().String(),
		Watchlist: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.sessions[st.ID] = st
	r.mu.Unlock()

	if err := r.persist(ctx, st); err != nil {
		return nil, err
	}
	r.logger.WithField("session_id", st.ID).Debug("Session created")
	return st.clone(), nil
}

// Get returns a copy of the session state
func (r *Registry) Get(ctx context.Context, id string) (*State, error) {
	st, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return st.clone(), nil
}

// Update applies fn to the session under lock and persists the result
func (r *Registry) Update(ctx context.Context, id string, fn func(*State) error) (*State, error) {
	st, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if err := fn(st); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	st.UpdatedAt = r.now()
	out := st.clone()
	r.mu.Unlock()

	if err := r.persist(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete ends a session
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	if r.cacheEnabled() {
		return r.cache.Delete(ctx, redis.SessionKey(id))
	}
	return nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	n := 0
	for id, st := range r.sessions {
		if st.UpdatedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of sessions held in memory
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) lookup(ctx context.Context, id string) (*State, error) {
	r.mu.Lock()
	st, ok := r.sessions[id]
	if ok && r.now().Sub(st.UpdatedAt) > r.ttl {
		delete(r.sessions, id)
		ok = false
	}
	r.mu.Unlock()
	if ok {
		return st, nil
	}

	if !r.cacheEnabled() {
		return nil, ErrNotFound
	}
	var cached State
	found, err := r.cache.Get(ctx, redis.SessionKey(id), &cached)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = &cached
	return &cached, nil
}

func (r *Registry) persist(ctx context.Context, st *State) error {
	if !r.cacheEnabled() {
		return nil
	}
	if err := r.cache.Set(ctx, redis.SessionKey(st.ID), st, r.ttl); err != nil {
		r.logger.WithError(err).WithField("session_id", st.ID).Warn("Session persist failed")
		return err
	}
	return nil
}
