// Package querycache memoizes query results under cache keys, lets callers
// subscribe to status snapshots, collapses concurrent requests for the same
// key into one, and invalidates keys when mutations succeed.
//
// A Store is an explicit object: create one at start-up, register queries and
// the mutation → key table, and Close it on shutdown. Nothing is retried
// automatically; failures are stored on the entry and returned to callers.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Lixing-Zhang/product-catalog/internal/metrics"
)

var (
	// ErrUnknownQuery is returned for keys that were never registered.
	ErrUnknownQuery = errors.New("querycache: unknown query")

	// ErrClosed is returned once the store has been closed.
	ErrClosed = errors.New("querycache: store closed")
)

// DefaultKeepUnusedFor is how long an entry without subscribers is kept.
const DefaultKeepUnusedFor = 60 * time.Second

// Key names a query and the cache entry holding its result.
type Key string

// MutationKind names a mutation in the invalidation table.
type MutationKind string

// FetchFunc performs the request behind a query.
type FetchFunc func(ctx context.Context) (any, error)

// Listener receives a snapshot each time an entry changes. Listeners run
// outside the store's lock and may be called from any goroutine.
type Listener func(Snapshot)

// Options configures a Store.
type Options struct {
	// KeepUnusedFor is how long an entry survives after its last subscriber
	// leaves. Zero evicts immediately; negative keeps entries forever.
	KeepUnusedFor time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Collector
}

// Store is the query cache. It is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	queries     map[Key]FetchFunc
	entries     map[Key]*entry
	invalidates map[MutationKind][]Key
	nextID      uint64
	closed      bool

	group singleflight.Group
	wg    sync.WaitGroup

	// ctx bounds every request the store issues; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	keepUnusedFor time.Duration
	logger        *slog.Logger
	metrics       *metrics.Collector
}

type entry struct {
	data      any
	hasData   bool
	err       error
	fetching  bool
	stale     bool
	updatedAt time.Time
	version   uint64

	// refetchAfterFlight is set when the key is invalidated while a request
	// is in flight; that request may have read pre-mutation state.
	refetchAfterFlight bool

	listeners  map[uint64]Listener
	evictTimer *time.Timer
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		queries:       make(map[Key]FetchFunc),
		entries:       make(map[Key]*entry),
		invalidates:   make(map[MutationKind][]Key),
		ctx:           ctx,
		cancel:        cancel,
		keepUnusedFor: opts.KeepUnusedFor,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
}

// Register binds key to fetch. Each key may be registered once.
func (s *Store) Register(key Key, fetch FetchFunc) error {
	if fetch == nil {
		return fmt.Errorf("querycache: nil fetch for %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.queries[key]; exists {
		return fmt.Errorf("querycache: query %q already registered", key)
	}
	s.queries[key] = fetch
	return nil
}

// Invalidates declares that a successful mutation of the given kind makes
// keys stale. Repeated calls for the same kind accumulate.
func (s *Store) Invalidates(kind MutationKind, keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidates[kind] = append(s.invalidates[kind], keys...)
}

// InvalidatedBy returns the keys a mutation kind invalidates.
func (s *Store) InvalidatedBy(kind MutationKind) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Key(nil), s.invalidates[kind]...)
}

// Snapshot returns the current state of key without triggering a request.
func (s *Store) Snapshot(key Key) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		return e.snapshot()
	}
	return Snapshot{IsLoading: true}
}

// Fetch returns the cached result for key when it is present and not stale,
// and otherwise performs the request or joins the one already in flight.
// A flight invalidated while running is waited out and followed by a fresh
// request. ctx bounds only the wait; the request itself is not aborted.
func (s *Store) Fetch(ctx context.Context, key Key) (any, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if _, ok := s.queries[key]; !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, key)
		}
		e, ok := s.entries[key]
		if ok && e.hasData && !e.stale {
			data := e.data
			s.mu.Unlock()
			s.metrics.CacheHit(string(key))
			return data, nil
		}
		outdated := ok && e.fetching && e.refetchAfterFlight
		s.mu.Unlock()

		done := s.start(key)
		select {
		case res := <-done:
			if outdated && res.Err == nil {
				continue
			}
			return res.Val, res.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Refetch issues a background request for key regardless of staleness.
func (s *Store) Refetch(key Key) error {
	s.mu.Lock()
	_, ok := s.queries[key]
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuery, key)
	}
	s.start(key)
	return nil
}

// Focus refetches every key that has at least one subscriber. It mirrors a
// window regaining focus after being backgrounded.
func (s *Store) Focus() {
	s.mu.Lock()
	keys := make([]Key, 0, len(s.entries))
	for key, e := range s.entries {
		if len(e.listeners) > 0 {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		s.start(key)
	}
}

// RunMutation runs do. On success it calls onSuccess, then marks every key
// the kind invalidates as stale and schedules a refetch for those with
// subscribers. On failure nothing in the cache changes.
func (s *Store) RunMutation(ctx context.Context, kind MutationKind, do func(ctx context.Context) error, onSuccess func()) error {
	if err := do(ctx); err != nil {
		return err
	}
	if onSuccess != nil {
		onSuccess()
	}
	s.Invalidate(s.InvalidatedBy(kind)...)
	return nil
}

// Invalidate marks keys stale. Keys with subscribers are refetched in the
// background. A key whose request is in flight stays stale when that request
// completes, and is refetched then if it has subscribers.
func (s *Store) Invalidate(keys ...Key) {
	var refetch []Key

	s.mu.Lock()
	for _, key := range keys {
		e, ok := s.entries[key]
		if !ok {
			continue
		}
		s.metrics.CacheInvalidated(string(key))
		e.stale = true
		if e.fetching {
			e.refetchAfterFlight = true
			continue
		}
		if len(e.listeners) > 0 {
			refetch = append(refetch, key)
		}
	}
	s.mu.Unlock()

	for _, key := range refetch {
		s.logger.Debug("query invalidated", "key", key)
		s.start(key)
	}
}

// Close cancels outstanding requests, drops every listener and waits for
// background work to finish.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, e := range s.entries {
		if e.evictTimer != nil {
			e.evictTimer.Stop()
		}
		e.listeners = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// start issues the request for key, or joins the one in flight. The returned
// channel receives the result exactly once.
func (s *Store) start(key Key) <-chan singleflight.Result {
	out := make(chan singleflight.Result, 1)

	s.mu.Lock()
	fetch, ok := s.queries[key]
	if s.closed || !ok {
		s.mu.Unlock()
		err := ErrClosed
		if !ok {
			err = fmt.Errorf("%w: %q", ErrUnknownQuery, key)
		}
		out <- singleflight.Result{Err: err}
		return out
	}
	s.wg.Add(1)
	s.mu.Unlock()

	// Written by the flight's own function and read after its result is
	// delivered, so only the caller that actually ran it sees them set.
	var ran, again bool

	ch := s.group.DoChan(string(key), func() (any, error) {
		ran = true
		s.begin(key)
		data, err := fetch(s.ctx)
		again = s.finish(key, data, err)
		return data, err
	})

	go func() {
		defer s.wg.Done()
		res := <-ch
		out <- res
		if !ran {
			s.metrics.CacheSharedWait(string(key))
		}
		if again {
			s.start(key)
		}
	}()

	return out
}

func (s *Store) begin(key Key) {
	s.mu.Lock()
	e := s.entryLocked(key)
	e.fetching = true
	e.refetchAfterFlight = false
	e.version++
	snap, listeners := e.snapshot(), e.listenerList()
	s.mu.Unlock()

	notify(listeners, snap)
}

// finish stores a request's outcome and reports whether the key must be
// fetched again.
func (s *Store) finish(key Key, data any, err error) bool {
	s.metrics.CacheFetch(string(key), err)

	s.mu.Lock()
	// Once fetching is cleared, callers must start a new flight rather than
	// join this one, whose result is already published.
	s.group.Forget(string(key))
	e := s.entryLocked(key)
	e.fetching = false
	if err != nil {
		e.err = err
		s.logger.Warn("query failed", "key", key, "error", err)
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.updatedAt = time.Now()
		e.stale = e.refetchAfterFlight
	}
	again := e.refetchAfterFlight && len(e.listeners) > 0 && !s.closed
	e.refetchAfterFlight = false
	e.version++
	if len(e.listeners) == 0 {
		s.armEvictLocked(key, e)
	}
	snap, listeners := e.snapshot(), e.listenerList()
	s.mu.Unlock()

	notify(listeners, snap)
	return again
}

func (s *Store) entryLocked(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{listeners: make(map[uint64]Listener)}
		s.entries[key] = e
	}
	return e
}

// armEvictLocked schedules removal of an entry nobody is subscribed to.
func (s *Store) armEvictLocked(key Key, e *entry) {
	if s.keepUnusedFor < 0 || s.closed {
		return
	}
	if e.evictTimer != nil {
		e.evictTimer.Stop()
	}
	e.evictTimer = time.AfterFunc(s.keepUnusedFor, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		cur, ok := s.entries[key]
		if !ok || cur != e || len(e.listeners) > 0 || e.fetching {
			return
		}
		delete(s.entries, key)
		s.logger.Debug("query evicted", "key", key)
	})
}

func (e *entry) listenerList() []Listener {
	if len(e.listeners) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.listeners[id])
	}
	return out
}

func notify(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}
