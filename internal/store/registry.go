package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/repository"
)

type storeKey struct {
	kind  string
	owner string
}

// Registry hands out one Store per kind and owner so that every caller of a
// collection shares the same single-writer instance.
type Registry struct {
	remote repository.RemoteBackend
	mirror repository.LocalMirror
	logger *zap.Logger
	opts   []Option

	mu       sync.Mutex
	stores   map[storeKey]*Store
	lastUsed map[storeKey]time.Time
	now      func() time.Time
}

func NewRegistry(remote repository.RemoteBackend, mirror repository.LocalMirror, logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		remote: remote,
		mirror: mirror,
		logger: logger,
		opts:     opts,
		stores:   make(map[storeKey]*Store),
		lastUsed: make(map[storeKey]time.Time),
		now:      time.Now,
	}
}

// Store returns the store for kind and owner, creating it on first use.
// The owner is ignored for kinds that are not partitioned.
func (r *Registry) Store(kind domain.Kind, owner string) *Store {
	if !kind.Partitioned() {
		owner = ""
	}
	key := storeKey{kind: kind.Name, owner: owner}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastUsed[key] = r.now()
	if s, ok := r.stores[key]; ok {
		return s
	}
	s := New(kind, owner, r.remote, r.mirror, r.logger, r.opts...)
	r.stores[key] = s
	return s
}

// EvictIdle drops partitioned stores not handed out since cutoff and returns how
// many were dropped. Their state lives on in the remote or the mirror and is
// reloaded on next use. Stores busy with an operation are kept.
func (r *Registry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, s := range r.stores {
		if s.owner == "" || !r.lastUsed[key].Before(cutoff) {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		delete(r.stores, key)
		delete(r.lastUsed, key)
		s.mu.Unlock()
		evicted++
	}
	return evicted
}

// Lookup resolves a kind by name.
func (r *Registry) Lookup(name, owner string) (*Store, error) {
	kind, ok := domain.LookupKind(name)
	if !ok {
		return nil, domain.ErrUnknownKind
	}
	return r.Store(kind, owner), nil
}

// RemoteConfigured reports whether writes currently target the remote backend.
func (r *Registry) RemoteConfigured() bool {
	return r.remote != nil && r.remote.Configured()
}
