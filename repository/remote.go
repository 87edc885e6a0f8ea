package repository

import (
	"context"

	"github.com/lucidportal/backend/domain"
)

// Row is one table row as returned by a remote backend.
type Row = map[string]any

// Query narrows a select to equality filters, an ordering and a row limit.
type Query struct {
	Filter map[string]any
	Order  domain.Order
	Limit  int
}

// RemoteBackend is the hosted table-oriented data service. Implementations classify
// failures as domain errors with ACCESS_DENIED, CONNECTIVITY or NOT_FOUND codes.
type RemoteBackend interface {
	// Configured reports whether an endpoint and a credential are present.
	Configured() bool
	Ping(ctx context.Context) error
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table, id string, patch Row) (Row, error)
	Delete(ctx context.Context, table, id string) error
	// DeleteWhere removes every row matching filter. An empty filter removes the whole table.
	DeleteWhere(ctx context.Context, table string, filter map[string]any) error
}
