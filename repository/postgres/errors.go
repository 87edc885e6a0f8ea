package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lucidportal/backend/domain"
)

// SQLSTATE 42501 is raised when a row-level security policy rejects the statement.
const insufficientPrivilege = "42501"

// mapError converts pgx/pgconn errors to domain errors.
func mapError(err error, op, table string) error {
	if err == nil {
		return nil
	}
	msg := op + " " + table

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WrapError(domain.ErrCodeNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == insufficientPrivilege:
			return domain.WrapError(domain.ErrCodeAccessDenied, msg, err)
		case pgErr.Code == "42P01":
			return domain.WrapError(domain.ErrCodeNotFound, msg, err)
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return domain.WrapError(domain.ErrCodeConnectivity, msg, err)
		}
		return domain.WrapError(domain.ErrCodeInternal, msg, err)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.ErrCodeConnectivity, msg, err)
	}

	return domain.WrapError(domain.ErrCodeInternal, msg, err)
}
