package querycache

import (
	"fmt"
	"time"
)

// Snapshot is the status of one cache entry at a point in time.
type Snapshot struct {
	// Data is the last successful result. Callers must treat it as
	// read-only; it is shared with every other reader.
	Data    any
	HasData bool

	// IsLoading is true while no data has been cached yet.
	IsLoading bool
	// IsFetching is true while a request for the key is in flight.
	IsFetching bool
	// Err is the error from the last request, cleared by the next success.
	Err error
	// Stale is true once a mutation has invalidated the data.
	Stale bool

	UpdatedAt time.Time
	// Version increases with every change to the entry. Listeners can use
	// it to drop snapshots delivered out of order.
	Version uint64
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Data:       e.data,
		HasData:    e.hasData,
		IsLoading:  !e.hasData && (e.fetching || e.err == nil),
		IsFetching: e.fetching,
		Err:        e.err,
		Stale:      e.stale,
		UpdatedAt:  e.updatedAt,
		Version:    e.version,
	}
}

// Value returns the snapshot's data as T.
func Value[T any](snap Snapshot) (T, bool) {
	v, ok := snap.Data.(T)
	return v, ok && snap.HasData
}

// Subscription is a listener registered on one key.
type Subscription struct {
	store *Store
	key   Key
	id    uint64
}

// Subscribe registers listener on key and always triggers a request for it,
// joining one already in flight. Call Unsubscribe when the consumer goes away.
func (s *Store) Subscribe(key Key, listener Listener) (*Subscription, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if _, ok := s.queries[key]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, key)
	}

	e := s.entryLocked(key)
	if e.evictTimer != nil {
		e.evictTimer.Stop()
		e.evictTimer = nil
	}
	s.nextID++
	id := s.nextID
	if listener == nil {
		listener = func(Snapshot) {}
	}
	e.listeners[id] = listener
	s.mu.Unlock()

	s.logger.Debug("query subscribed", "key", key, "subscription", id)
	s.start(key)

	return &Subscription{store: s, key: key, id: id}, nil
}

// Key returns the key the subscription watches.
func (sub *Subscription) Key() Key {
	return sub.key
}

// Snapshot returns the entry's current status.
func (sub *Subscription) Snapshot() Snapshot {
	return sub.store.Snapshot(sub.key)
}

// Refetch issues a background request regardless of staleness.
func (sub *Subscription) Refetch() error {
	return sub.store.Refetch(sub.key)
}

// Unsubscribe removes the listener. Once an entry has no listeners it is
// evicted after the store's KeepUnusedFor. Calling Unsubscribe twice is safe.
func (sub *Subscription) Unsubscribe() {
	s := sub.store

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sub.key]
	if !ok {
		return
	}
	if _, ok := e.listeners[sub.id]; !ok {
		return
	}
	delete(e.listeners, sub.id)
	if len(e.listeners) == 0 {
		s.armEvictLocked(sub.key, e)
	}
}
