package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrorKind is the closed set of store failure categories the reconciler
// understands. Everything the backend raises is translated here, at the
// boundary, so callers never inspect driver error text.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindDuplicateKey
	ErrorKindConstraintViolation
)

// Classify translates a backend error into an ErrorKind. SQLite and
// Postgres errors are recognized by their typed codes; anything else falls
// back to the textual uniqueness-violation heuristic so opaque backends
// still dedupe correctly.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrorKindDuplicateKey
		}
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrorKindConstraintViolation
		}
		return ErrorKindUnknown
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorKindDuplicateKey
		}
		if strings.HasPrefix(pgErr.Code, "23") {
			return ErrorKindConstraintViolation
		}
		return ErrorKindUnknown
	}

	text := err.Error()
	if strings.Contains(text, "UNIQUE constraint") || strings.Contains(strings.ToLower(text), "duplicate") {
		return ErrorKindDuplicateKey
	}
	return ErrorKindUnknown
}
