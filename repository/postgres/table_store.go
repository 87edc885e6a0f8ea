package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/repository"
)

// Querier is the subset of pgxpool.Pool used by TableStore.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// TableStore is a RemoteBackend over a Postgres database reached directly through pgx.
type TableStore struct {
	db     Querier
	logger *zap.Logger
	psql   sq.StatementBuilderType
}

var _ repository.RemoteBackend = (*TableStore)(nil)

// NewTableStore returns a TableStore. A nil querier yields an unconfigured backend.
func NewTableStore(db Querier, logger *zap.Logger) *TableStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableStore{
		db:     db,
		logger: logger,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *TableStore) Configured() bool {
	return s != nil && s.db != nil
}

func (s *TableStore) Ping(ctx context.Context) error {
	if !s.Configured() {
		return domain.ErrRemoteUnavailable
	}
	return mapError(s.db.Ping(ctx), "ping", "")
}

func (s *TableStore) Select(ctx context.Context, table string, q repository.Query) ([]repository.Row, error) {
	name, err := s.prepare(table)
	if err != nil {
		return nil, err
	}
	query := s.psql.Select("*").From(name)
	if len(q.Filter) > 0 {
		if err := validColumns(q.Filter); err != nil {
			return nil, err
		}
		query = query.Where(sq.Eq(q.Filter))
	}
	if q.Order.Column != "" {
		if !domain.ValidIdentifier(q.Order.Column) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "invalid order column")
		}
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		query = query.OrderBy(pgx.Identifier{q.Order.Column}.Sanitize() + " " + dir)
	}
	if q.Limit > 0 {
		query = query.Limit(uint64(q.Limit))
	}
	return s.queryRows(ctx, query, "select", table)
}

func (s *TableStore) Insert(ctx context.Context, table string, rows []repository.Row) ([]repository.Row, error) {
	name, err := s.prepare(table)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Row, 0, len(rows))
	for _, row := range rows {
		if err := validColumns(row); err != nil {
			return nil, err
		}
		insert := s.psql.Insert(name).SetMap(encodeRow(row)).Suffix("RETURNING *")
		inserted, err := s.queryRows(ctx, insert, "insert", table)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted...)
	}
	return out, nil
}

func (s *TableStore) Update(ctx context.Context, table, id string, patch repository.Row) (repository.Row, error) {
	name, err := s.prepare(table)
	if err != nil {
		return nil, err
	}
	if err := validColumns(patch); err != nil {
		return nil, err
	}
	set := encodeRow(patch)
	delete(set, domain.FieldID)
	if len(set) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "empty update")
	}
	update := s.psql.Update(name).
		SetMap(set).
		Where(sq.Eq{domain.FieldID: id}).
		Suffix("RETURNING *")
	rows, err := s.queryRows(ctx, update, "update", table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrCodeNotFound, "update "+table, pgx.ErrNoRows)
	}
	return rows[0], nil
}

func (s *TableStore) Delete(ctx context.Context, table, id string) error {
	name, err := s.prepare(table)
	if err != nil {
		return err
	}
	affected, err := s.exec(ctx, s.psql.Delete(name).Where(sq.Eq{domain.FieldID: id}), "delete", table)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NewError(domain.ErrCodeNotFound, "delete "+table+": no row with id "+id)
	}
	return nil
}

func (s *TableStore) DeleteWhere(ctx context.Context, table string, filter map[string]any) error {
	name, err := s.prepare(table)
	if err != nil {
		return err
	}
	del := s.psql.Delete(name)
	if len(filter) > 0 {
		if err := validColumns(filter); err != nil {
			return err
		}
		del = del.Where(sq.Eq(filter))
	}
	_, err = s.exec(ctx, del, "delete", table)
	return err
}

func (s *TableStore) prepare(table string) (string, error) {
	if !s.Configured() {
		return "", domain.ErrRemoteUnavailable
	}
	if !domain.ValidIdentifier(table) {
		return "", domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("invalid table %q", table))
	}
	return pgx.Identifier{table}.Sanitize(), nil
}

func (s *TableStore) queryRows(ctx context.Context, b sq.Sqlizer, op, table string) ([]repository.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "build "+op, err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Debug("postgres query failed", zap.String("op", op), zap.String("table", table), zap.Error(err))
		return nil, mapError(err, op, table)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError(err, op, table)
	}
	out := make([]repository.Row, 0, len(maps))
	for _, m := range maps {
		out = append(out, normalizeRow(m))
	}
	return out, nil
}

// exec runs b and returns the number of affected rows.
func (s *TableStore) exec(ctx context.Context, b sq.Sqlizer, op, table string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, domain.WrapError(domain.ErrCodeInternal, "build "+op, err)
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		s.logger.Debug("postgres exec failed", zap.String("op", op), zap.String("table", table), zap.Error(err))
		return 0, mapError(err, op, table)
	}
	return tag.RowsAffected(), nil
}
