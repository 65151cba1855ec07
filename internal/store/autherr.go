package store

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

var authMessageRe = regexp.MustCompile(`(?i)jwt|authorization|not authenticated|permission denied|access denied`)

// statusCoder is implemented by errors that carry an HTTP status, such as
// those returned by REST gateways in front of the database.
type statusCoder interface {
	StatusCode() int
}

// StatusError attaches an HTTP status to an underlying error.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string   { return http.StatusText(e.Status) + ": " + e.Err.Error() }
func (e *StatusError) Unwrap() error   { return e.Err }
func (e *StatusError) StatusCode() int { return e.Status }

// IsAuthError reports whether err looks like an authentication or
// authorization failure of the data service.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusUnauthorized {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28000", "28P01", "42501":
			return true
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1142:
			return true
		}
	}
	return authMessageRe.MatchString(err.Error())
}
