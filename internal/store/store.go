// Package store keeps one entity collection in memory and writes it through to the
// remote table backend, falling back to the local mirror when the remote is not usable.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	appLogger "github.com/lucidportal/backend/pkg/logger"
	"github.com/lucidportal/backend/repository"
)

// DefaultPrefix namespaces mirror keys.
const DefaultPrefix = "lucid"

// AccessDeniedHint is attached to blocked bulk deletes.
const AccessDeniedHint = "the remote backend rejected the delete: grant the DELETE policy on this table " +
	"to the current role (or sign in with an account that has it) and try again"

// Source names the backend that answered the last load.
type Source string

const (
	SourceRemote Source = "remote"
	SourceMirror Source = "mirror"
)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPrefix overrides the mirror key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// Store owns the collection of one kind for one owner.
type Store struct {
	kind   domain.Kind
	owner  string
	prefix string
	remote repository.RemoteBackend
	mirror repository.LocalMirror
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	items  []domain.Entity
	loaded bool
	source Source
}

// New builds a store. remote may be nil when no remote backend is configured.
func New(kind domain.Kind, owner string, remote repository.RemoteBackend, mirror repository.LocalMirror, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kind:   kind,
		owner:  owner,
		prefix: DefaultPrefix,
		remote: remote,
		mirror: mirror,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With(zap.String("kind", kind.Name), zap.String("owner", owner))
	return s
}

func (s *Store) Kind() domain.Kind { return s.kind }

func (s *Store) Owner() string { return s.owner }

// MirrorKey is the local mirror key holding this collection.
func (s *Store) MirrorKey() string {
	return s.kind.MirrorKey(s.prefix, s.owner)
}

// Load replaces the collection with the remote rows, or with the mirror contents when
// the remote cannot answer. It never fails.
func (s *Store) Load(ctx context.Context) []domain.Entity {
	items, _ := s.LoadWithSource(ctx)
	return items
}

// LoadWithSource is Load that also reports which backend the collection came from.
func (s *Store) LoadWithSource(ctx context.Context) ([]domain.Entity, Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return s.snapshot(), s.source
}

// Ensure loads the collection once.
func (s *Store) Ensure(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.load(ctx)
	}
}

// List returns a copy of the in-memory collection.
func (s *Store) List() []domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns a copy of the entity with id.
func (s *Store) Get(id string) (domain.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return domain.Entity{}, false
}

// Create adds a new entity. The remote assigns the id when it accepts the insert,
// otherwise a local id is generated and the collection is written to the mirror.
func (s *Store) Create(ctx context.Context, fields domain.Fields) domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entity := domain.Entity{
		Fields:    domain.StripReserved(fields),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.kind.Partitioned() && s.owner != "" {
		entity.Fields[s.kind.OwnerField] = s.owner
	}

	if s.remoteReady() {
		created, err := s.insertRemote(ctx, entity)
		if err == nil {
			s.put(created)
			return created.Clone()
		}
		s.log(ctx).Warn("remote create failed, writing to local mirror", zap.Error(err))
	}

	entity.ID = s.localID(now)
	s.put(entity)
	s.persist(ctx)
	return entity.Clone()
}

// Update merges patch into the entity with id. The bool is false when id is unknown.
func (s *Store) Update(ctx context.Context, id string, patch domain.Fields) (domain.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		s.log(ctx).Warn("update of unknown entity ignored", zap.String("id", id))
		return domain.Entity{}, false
	}

	merged := s.items[i].Clone()
	patch = domain.StripReserved(patch)
	merged.Merge(patch)
	merged.Touch(s.now())

	if s.remoteReady() {
		row := repository.Row{}
		for k, v := range patch {
			row[k] = v
		}
		row[domain.FieldUpdatedAt] = merged.UpdatedAt.Format(time.RFC3339Nano)

		updated, err := s.remote.Update(ctx, s.kind.Table, id, row)
		if err == nil {
			entity, perr := domain.EntityFromRow(updated)
			if perr != nil || entity.ID != id {
				entity = merged
			}
			s.items[i] = entity
			return entity.Clone(), true
		}
		s.log(ctx).Warn("remote update failed, writing to local mirror", zap.String("id", id), zap.Error(err))
	}

	s.items[i] = merged
	s.persist(ctx)
	return merged.Clone(), true
}

// Delete removes the entity with id from memory and from every backend that holds it.
// The backends are asked even when id is not in memory, since loads may be capped.
// A row the remote does not have is not an error.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.log(ctx).Warn("delete of entity not in memory", zap.String("id", id))
	}

	if s.remoteReady() {
		err := s.remote.Delete(ctx, s.kind.Table, id)
		if err == nil || domain.IsNotFound(err) {
			// Rows created offline live only in the mirror.
			s.dropFromMirror(ctx, id)
			return
		}
		s.log(ctx).Warn("remote delete failed, writing to local mirror", zap.String("id", id), zap.Error(err))
	}
	if i < 0 {
		s.dropFromMirror(ctx, id)
		return
	}
	s.persist(ctx)
}

// DeleteAll removes the whole collection. A policy rejection from the remote is
// returned as an ACCESS_DENIED error and leaves the collection untouched, since
// a silent local fallback would hide that remote rows still exist.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remoteReady() {
		err := s.remote.DeleteWhere(ctx, s.kind.Table, s.kind.RemoteFilter(s.owner))
		if domain.IsAccessDenied(err) {
			s.log(ctx).Error("bulk delete blocked by remote policy", zap.Error(err))
			return domain.WrapError(domain.ErrCodeAccessDenied, AccessDeniedHint, err)
		}
		if err != nil {
			s.log(ctx).Warn("remote bulk delete failed, clearing local mirror", zap.Error(err))
		}
	}

	s.items = nil
	if s.mirror != nil {
		if err := s.mirror.Remove(s.MirrorKey()); err != nil {
			s.log(ctx).Warn("local mirror remove failed", zap.Error(err))
		}
	}
	return nil
}

// Save writes every entity to the remote row by row, inserting rows the remote does
// not have. The first other failure stops the sync and the collection goes to the mirror.
func (s *Store) Save(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.remoteReady() {
		s.persist(ctx)
		return
	}

	for i, entity := range s.items {
		row := entity.Row()
		delete(row, domain.FieldID)
		delete(row, domain.FieldCreatedAt)

		saved, err := s.remote.Update(ctx, s.kind.Table, entity.ID, row)
		if domain.IsNotFound(err) {
			var inserted []repository.Row
			inserted, err = s.remote.Insert(ctx, s.kind.Table, []repository.Row{entity.Row()})
			if err == nil && len(inserted) > 0 {
				saved = inserted[0]
			}
		}
		if err != nil {
			s.log(ctx).Warn("remote save failed, writing to local mirror", zap.String("id", entity.ID), zap.Error(err))
			s.persist(ctx)
			return
		}
		if parsed, perr := domain.EntityFromRow(saved); perr == nil && parsed.ID == entity.ID {
			s.items[i] = parsed
		}
	}
}

func (s *Store) load(ctx context.Context) {
	s.loaded = true
	if s.remoteReady() {
		rows, err := s.remote.Select(ctx, s.kind.Table, repository.Query{
			Filter: s.kind.RemoteFilter(s.owner),
			Order:  s.kind.Order,
			Limit:  s.kind.Limit,
		})
		if err == nil {
			s.items = s.fromRows(ctx, rows)
			s.source = SourceRemote
			return
		}
		s.log(ctx).Warn("remote load failed, reading local mirror", zap.Error(err))
	}
	s.items = s.readMirror(ctx)
	s.source = SourceMirror
}

func (s *Store) log(ctx context.Context) *zap.Logger {
	return appLogger.WithRequestID(ctx, s.logger)
}

func (s *Store) remoteReady() bool {
	return s.remote != nil && s.remote.Configured()
}

func (s *Store) insertRemote(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	rows, err := s.remote.Insert(ctx, s.kind.Table, []repository.Row{entity.Row()})
	if err != nil {
		return domain.Entity{}, err
	}
	if len(rows) == 0 {
		return domain.Entity{}, domain.NewError(domain.ErrCodeInternal, "insert returned no rows")
	}
	created, err := domain.EntityFromRow(rows[0])
	if err != nil {
		return domain.Entity{}, err
	}
	if created.ID == "" {
		return domain.Entity{}, domain.NewError(domain.ErrCodeInternal, "insert returned no id")
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt, created.UpdatedAt = entity.CreatedAt, entity.UpdatedAt
	}
	return created, nil
}

// put inserts entity at the kind's display position, replacing any entity with the same id.
func (s *Store) put(entity domain.Entity) {
	if i := s.indexOf(entity.ID); i >= 0 {
		s.items[i] = entity
		return
	}
	if s.kind.Prepend {
		s.items = append([]domain.Entity{entity}, s.items...)
		return
	}
	s.items = append(s.items, entity)
}

func (s *Store) localID(now time.Time) string {
	for {
		id := domain.NewLocalID(now)
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []domain.Entity {
	out := make([]domain.Entity, len(s.items))
	for i, e := range s.items {
		out[i] = e.Clone()
	}
	return out
}

// persist writes the whole collection to the mirror. Memory is kept even if the write fails.
func (s *Store) persist(ctx context.Context) {
	if s.mirror == nil {
		s.log(ctx).Warn("no local mirror configured, change kept in memory only")
		return
	}
	s.writeMirror(ctx, s.items)
}

// dropFromMirror removes id from the mirrored collection, leaving other entries as they are.
func (s *Store) dropFromMirror(ctx context.Context, id string) {
	if s.mirror == nil {
		return
	}
	mirrored := s.readMirror(ctx)
	kept := make([]domain.Entity, 0, len(mirrored))
	for _, e := range mirrored {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(mirrored) {
		return
	}
	s.writeMirror(ctx, kept)
}

func (s *Store) writeMirror(ctx context.Context, items []domain.Entity) {
	if items == nil {
		items = []domain.Entity{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.log(ctx).Error("encode collection failed", zap.Error(err))
		return
	}
	if err := s.mirror.Set(s.MirrorKey(), string(data)); err != nil {
		s.log(ctx).Error("local mirror write failed", zap.Error(err))
	}
}

func (s *Store) readMirror(ctx context.Context) []domain.Entity {
	if s.mirror == nil {
		return nil
	}
	raw, ok, err := s.mirror.Get(s.MirrorKey())
	if err != nil {
		s.log(ctx).Warn("local mirror read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var items []domain.Entity
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log(ctx).Warn("local mirror holds unparsable data, starting empty", zap.Error(err))
		return nil
	}
	return dedupe(items)
}

func (s *Store) fromRows(ctx context.Context, rows []repository.Row) []domain.Entity {
	items := make([]domain.Entity, 0, len(rows))
	for _, row := range rows {
		entity, err := domain.EntityFromRow(row)
		if err != nil {
			s.log(ctx).Warn("skipping malformed remote row", zap.Error(err))
			continue
		}
		items = append(items, entity)
	}
	return dedupe(items)
}

// dedupe drops entities without an id and keeps the first occurrence of each id.
func dedupe(items []domain.Entity) []domain.Entity {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, e := range items {
		if e.ID == "" {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
