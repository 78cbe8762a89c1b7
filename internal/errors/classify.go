package errors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgres SQLSTATE codes the taxonomy understands
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInvalidTextRepr     = "22P02"
)

// maps an arbitrary error into the taxonomy
// exceptions pass through unchanged; anything unrecognized becomes internal
func From(err error) *Error {
	if err == nil {
		return nil
	}

	if e, ok := As(err); ok {
		return e
	}

	// database errors (pgx-specific)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return Conflict("resource already exists").WithCause(err)
		case pgForeignKeyViolation:
			return Conflict("referenced resource does not exist").WithCause(err)
		case pgNotNullViolation, pgCheckViolation, pgInvalidTextRepr:
			return BadRequest("invalid value").WithCause(err)
		default:
			return Internal(err)
		}
	}

	// no rows found
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound("resource").WithCause(err)
	}

	// context errors
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(0).WithCause(err)
	}

	if errors.Is(err, context.Canceled) {
		return Canceled().WithCause(err)
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return PayloadTooLarge(maxBytesErr.Limit).WithCause(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return BadRequest("malformed JSON body").WithCause(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Unavailable("upstream timed out").WithCause(err)
	}

	return Internal(err)
}
