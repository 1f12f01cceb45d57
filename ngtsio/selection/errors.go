package selection

import "errors"

// Common error types used across selector resolution. All three are fatal:
// the call aborts with no partial result. Missing identifiers, dates, days or
// action ids are never errors; they are dropped with a diagnostic.
var (
	ErrConflictingSelector = errors.New("only one selector kind may be given per axis")
	ErrSelectorType        = errors.New("selector data type not understood")
	ErrRangeFormat         = errors.New("range format not understood")
)
