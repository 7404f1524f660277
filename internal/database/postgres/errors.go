package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/idwiden/internal/errs"
)

// SQLSTATE classes and codes that change how a failure is reported.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection      = "08"
	pgClassAuthorization   = "28"
	pgErrInsufficientPriv  = "42501"
	pgErrInvalidSchemaName = "3F000"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindQueryFailed
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgClassConnection:
			kind = errs.ErrKindConnectionFailed
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgClassAuthorization,
			pgErr.Code == pgErrInsufficientPriv:
			kind = errs.ErrKindPermissionDenied
		case pgErr.Code == pgErrInvalidSchemaName:
			kind = errs.ErrKindNotFound
		}
		return errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Connection-level errors (TLS, network, auth handshake)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
