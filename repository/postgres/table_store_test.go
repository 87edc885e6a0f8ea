package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/repository"
)

func newMockStore(t *testing.T) (*TableStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewTableStore(mock, nil), mock
}

func TestTableStore_Select(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id := [16]byte{0x12, 0x34}

	tests := []struct {
		name    string
		query   repository.Query
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr domain.ErrorCode
		check   func(t *testing.T, rows []repository.Row)
	}{
		{
			name:  "ordered with filter and limit",
			query: repository.Query{Filter: map[string]any{"user_id": "u1"}, Order: domain.Order{Column: "created_at", Desc: true}, Limit: 50},
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "title", "created_at", "updated_at"}).
					AddRow(id, "hello", now, now)
				mock.ExpectQuery(`SELECT \* FROM "notifications" WHERE user_id = \$1 ORDER BY "created_at" DESC LIMIT 50`).
					WithArgs("u1").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, rows []repository.Row) {
				require.Len(t, rows, 1)
				assert.Equal(t, "12340000-0000-0000-0000-000000000000", rows[0]["id"])
				assert.Equal(t, "hello", rows[0]["title"])
				assert.Equal(t, now, rows[0]["created_at"])
			},
		},
		{
			name:  "policy rejection",
			query: repository.Query{},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT`).
					WillReturnError(&pgconn.PgError{Code: "42501", Message: "permission denied"})
			},
			wantErr: domain.ErrCodeAccessDenied,
		},
		{
			name:  "deadline exceeded",
			query: repository.Query{},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT`).WillReturnError(context.DeadlineExceeded)
			},
			wantErr: domain.ErrCodeConnectivity,
		},
		{
			name:    "invalid order column",
			query:   repository.Query{Order: domain.Order{Column: "x; drop"}},
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: domain.ErrCodeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setup(mock)

			table := "notifications"
			rows, err := store.Select(context.Background(), table, tt.query)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, domain.IsDomainError(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				tt.check(t, rows)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTableStore_Insert(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO "leads" \(created_at,name,tags\) VALUES \(\$1,\$2,\$3\) RETURNING \*`).
		WithArgs(now, "Acme", `["hot"]`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).AddRow("srv-1", "Acme", now))

	rows, err := store.Insert(context.Background(), "leads", []repository.Row{
		{"name": "Acme", "tags": []any{"hot"}, "created_at": now},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "srv-1", rows[0]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableStore_InsertRejectsBadColumn(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.Insert(context.Background(), "leads", []repository.Row{{"Bad Column": 1}})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableStore_Update(t *testing.T) {
	t.Run("returns updated row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE "tasks" SET status = \$1 WHERE id = \$2 RETURNING \*`).
			WithArgs("done", "t1").
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}).AddRow("t1", "done"))

		row, err := store.Update(context.Background(), "tasks", "t1", repository.Row{"status": "done", "id": "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "done", row["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE "tasks"`).
			WithArgs("done", "nope").
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}))

		_, err := store.Update(context.Background(), "tasks", "nope", repository.Row{"status": "done"})
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTableStore_DeleteWhere(t *testing.T) {
	t.Run("filters by owner", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM "project_comments" WHERE project_id = \$1`).
			WithArgs("p1").
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		require.NoError(t, store.DeleteWhere(context.Background(), "project_comments", map[string]any{"project_id": "p1"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("policy rejection surfaces access denied", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM "leads"`).
			WillReturnError(&pgconn.PgError{Code: "42501"})

		err := store.DeleteWhere(context.Background(), "leads", nil)
		assert.True(t, domain.IsAccessDenied(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTableStore_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		notFound bool
	}{
		{name: "row removed", affected: 1},
		{name: "no such row", affected: 0, notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(`DELETE FROM "leads" WHERE id = \$1`).
				WithArgs("l1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := store.Delete(context.Background(), "leads", "l1")
			if tt.notFound {
				assert.True(t, domain.IsNotFound(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTableStore_Unconfigured(t *testing.T) {
	store := NewTableStore(nil, nil)
	assert.False(t, store.Configured())

	_, err := store.Select(context.Background(), "leads", repository.Query{})
	assert.True(t, domain.IsConnectivity(err))
	assert.True(t, domain.IsConnectivity(store.Ping(context.Background())))
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil, "op", "t"))
	assert.True(t, domain.IsNotFound(mapError(pgx.ErrNoRows, "select", "t")))
	assert.True(t, domain.IsConnectivity(mapError(&pgconn.PgError{Code: "08006"}, "select", "t")))
	assert.True(t, domain.IsDomainError(mapError(errors.New("boom"), "select", "t"), domain.ErrCodeInternal))
}
