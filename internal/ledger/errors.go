package ledger

import (
	"errors"
	"sort"
	"strings"

	"github.com/diewo77/go-deliveries/validation"
)

// Controller errors.
var (
	ErrNoLocationSelected = errors.New("no location selected")
	ErrLocationNotFound   = errors.New("location not in cache")
	ErrBusy               = errors.New("operation already in progress")
	ErrWriteFailed        = errors.New("store write failed")
)

// ValidationError reports rejected user input. No store call was made.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+": "+code)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}
