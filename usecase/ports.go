package usecase

import (
	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/internal/store"
)

// Collections resolves the entity store that owns a kind's collection.
type Collections interface {
	Store(kind domain.Kind, owner string) *store.Store
	Lookup(name, owner string) (*store.Store, error)
}

var _ Collections = (*store.Registry)(nil)
