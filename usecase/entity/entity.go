package entity

import (
	"context"

	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/internal/store"
	"github.com/lucidportal/backend/usecase"
)

// Scope addresses one collection: a kind name plus the owner for partitioned kinds.
type Scope struct {
	Kind  string
	Owner string
}

type UseCase struct {
	stores usecase.Collections
	logger *zap.Logger
}

func New(stores usecase.Collections, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		stores: stores,
		logger: logger,
	}
}

// List reloads the collection and hides soft-deleted entities. The source names
// the backend the rows came from.
func (uc *UseCase) List(ctx context.Context, scope Scope) ([]domain.Entity, store.Source, error) {
	s, err := uc.resolve(scope)
	if err != nil {
		return nil, "", err
	}
	items, source := s.LoadWithSource(ctx)
	return visible(s.Kind(), items), source, nil
}

func (uc *UseCase) Get(ctx context.Context, scope Scope, id string) (domain.Entity, error) {
	s, err := uc.resolve(scope)
	if err != nil {
		return domain.Entity{}, err
	}
	s.Ensure(ctx)
	e, ok := s.Get(id)
	if !ok || softDeleted(s.Kind(), e) {
		return domain.Entity{}, domain.ErrNotFound
	}
	return e, nil
}

func (uc *UseCase) Create(ctx context.Context, scope Scope, fields domain.Fields) (domain.Entity, error) {
	s, err := uc.resolve(scope)
	if err != nil {
		return domain.Entity{}, err
	}
	if err := domain.ValidateFields(fields); err != nil {
		return domain.Entity{}, err
	}
	fields = fields.Clone()
	if flag := s.Kind().SoftDeleteField; flag != "" {
		if _, set := fields[flag]; !set {
			fields[flag] = true
		}
	}
	s.Ensure(ctx)
	return s.Create(ctx, fields), nil
}

func (uc *UseCase) Update(ctx context.Context, scope Scope, id string, patch domain.Fields) (domain.Entity, error) {
	s, err := uc.resolve(scope)
	if err != nil {
		return domain.Entity{}, err
	}
	if err := domain.ValidateFields(patch); err != nil {
		return domain.Entity{}, err
	}
	s.Ensure(ctx)
	updated, ok := s.Update(ctx, id, patch)
	if !ok {
		return domain.Entity{}, domain.ErrNotFound
	}
	return updated, nil
}

// Delete removes id. Kinds with a soft-delete flag clear the flag instead.
// Unknown ids are not an error.
func (uc *UseCase) Delete(ctx context.Context, scope Scope, id string) error {
	s, err := uc.resolve(scope)
	if err != nil {
		return err
	}
	s.Ensure(ctx)
	if flag := s.Kind().SoftDeleteField; flag != "" {
		if _, ok := s.Update(ctx, id, domain.Fields{flag: false}); ok {
			uc.logger.Info("entity archived", zap.String("kind", scope.Kind), zap.String("id", id))
		}
		return nil
	}
	s.Delete(ctx, id)
	return nil
}

// DeleteAll clears the collection. An ACCESS_DENIED error means nothing was removed.
func (uc *UseCase) DeleteAll(ctx context.Context, scope Scope) error {
	s, err := uc.resolve(scope)
	if err != nil {
		return err
	}
	return s.DeleteAll(ctx)
}

// Save pushes the in-memory collection to the remote row by row.
func (uc *UseCase) Save(ctx context.Context, scope Scope) ([]domain.Entity, error) {
	s, err := uc.resolve(scope)
	if err != nil {
		return nil, err
	}
	s.Ensure(ctx)
	s.Save(ctx)
	return visible(s.Kind(), s.List()), nil
}

func (uc *UseCase) resolve(scope Scope) (*store.Store, error) {
	kind, ok := domain.LookupKind(scope.Kind)
	if !ok {
		return nil, domain.ErrUnknownKind
	}
	if kind.Partitioned() && scope.Owner == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, kind.OwnerField+" is required for "+kind.Name)
	}
	return uc.stores.Store(kind, scope.Owner), nil
}

func visible(kind domain.Kind, items []domain.Entity) []domain.Entity {
	if kind.SoftDeleteField == "" {
		return items
	}
	out := items[:0]
	for _, e := range items {
		if !softDeleted(kind, e) {
			out = append(out, e)
		}
	}
	return out
}

func softDeleted(kind domain.Kind, e domain.Entity) bool {
	if kind.SoftDeleteField == "" {
		return false
	}
	v, ok := e.Fields[kind.SoftDeleteField].(bool)
	return ok && !v
}
