package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"

	"ms-storefront/internal/apperr"
)

// IsUniqueViolation reports a unique index conflict on Postgres or sqlite.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsUnavailable reports errors that mean the database cannot be reached.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, 57P: operator intervention
		return strings.HasPrefix(string(pqErr.Code), "08") || strings.HasPrefix(string(pqErr.Code), "57P")
	}
	return strings.Contains(err.Error(), "database is closed")
}

// Translate maps driver errors onto the apperr taxonomy. what names the entity
// for not-found messages, e.g. "Order".
func Translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound(what + " not found")
	case IsUniqueViolation(err):
		return apperr.Wrap(apperr.KindValidation, what+" already exists", err)
	case IsUnavailable(err):
		return apperr.Unavailable("Database not available", err)
	default:
		return err
	}
}
