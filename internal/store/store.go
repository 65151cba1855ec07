// Package store is the generic table-query client the ledger talks to.
// It knows tables by name and offers select/insert/delete with simple
// column filters and a single ordering column.
package store

import (
	"context"
	"errors"
	"regexp"
)

// Table store errors.
var (
	ErrTableNotFound = errors.New("table not found")
	ErrInvalidData   = errors.New("invalid row data for table")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrNotFound      = errors.New("no matching row")
)

// Op is a comparison operator usable in a Filter.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"
)

// Filter restricts a query to rows where Column Op Value holds.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// Order sorts a selection by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a selection. Empty Columns selects every column.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   *Order
}

// TableStore is the contract of the external relational data service.
// Every call may fail with network or authorization errors.
type TableStore interface {
	// Select loads the rows matching q into dest, a pointer to a slice of
	// the table's row type.
	Select(ctx context.Context, q Query, dest any) error

	// Insert stores row, a pointer to the table's row type, and fills in
	// the store-assigned fields.
	Insert(ctx context.Context, table string, row any) error

	// Delete removes the rows matching all filters. At least one filter is
	// required. Returns ErrNotFound when nothing matched.
	Delete(ctx context.Context, table string, filters ...Filter) error

	// Ping checks that the service is reachable.
	Ping(ctx context.Context) error
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validColumn(name string) bool { return identRe.MatchString(name) }
