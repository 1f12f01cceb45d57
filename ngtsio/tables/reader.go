// Package tables provides read-only access to dataset bundles: directories of
// parquet files where each file is one named member. Two equivalent backends
// exist (parquet-go and apache arrow); everything above this package is
// agnostic to which one is in use.
package tables

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Common error types used across the tables package
var (
	ErrReaderBackend  = errors.New("unrecognized table reader backend")
	ErrMemberNotFound = errors.New("member not found in bundle")
	ErrColumnNotFound = errors.New("column not found in member")
	ErrRowOutOfRange  = errors.New("row index outside member")
)

// RowSpec selects which rows of a per-row member to read. The zero value is
// invalid; use AllRows or Rows. All is the select-all marker and enables the
// whole-axis fast path.
type RowSpec struct {
	All     bool
	Indices []int
}

// AllRows returns the select-all marker.
func AllRows() RowSpec { return RowSpec{All: true} }

// Rows returns an explicit-row-list RowSpec.
func Rows(indices []int) RowSpec { return RowSpec{Indices: indices} }

// Block is a rectangular slice of a per-row member: N rows of the requested
// columns. Column values are one of []float64, []int64 or []string.
type Block struct {
	N    int
	Cols map[string]any
}

// Strings returns a column as strings, if it is string-typed.
func (b *Block) Strings(col string) ([]string, bool) {
	v, ok := b.Cols[col].([]string)
	return v, ok
}

// Floats returns a column as float64 values, converting integer columns.
func (b *Block) Floats(col string) ([]float64, bool) {
	switch v := b.Cols[col].(type) {
	case []float64:
		return v, true
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	}
	return nil, false
}

// Ints returns a column as int64 values, truncating float columns.
func (b *Block) Ints(col string) ([]int64, bool) {
	switch v := b.Cols[col].(type) {
	case []int64:
		return v, true
	case []float64:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	}
	return nil, false
}

// Table is an opened dataset bundle. Per-row members (catalogue, imagelist,
// candidate lists) are read through Read; 2-D measurement members (one row per
// object, a list column of per-exposure values) are read through ReadSeries,
// which only supports contiguous row windows - sparse selections are emulated
// by the caller.
type Table interface {
	// Members lists member names in bundle order.
	Members() []string
	HasMember(name string) bool
	// Columns enumerates the column names of a per-row member.
	Columns(member string) ([]string, error)
	RowCount(member string) (int, error)
	// Read returns the requested rows and columns of a per-row member.
	// cols == nil reads every column.
	Read(member string, rows RowSpec, cols []string) (*Block, error)
	// ReadSeries reads a contiguous window of `count` object rows starting at
	// `start` from a 2-D measurement member, as a (count x nTime) matrix.
	ReadSeries(member string, start, count int) (*mat.Dense, error)
	// SeriesWidth returns the time-axis length of a measurement member.
	SeriesWidth(member string) (int, error)
	Close() error
}

// Opener opens dataset bundles. Implementations are selected by backend name
// at construction time; no other code branches on backend identity.
type Opener interface {
	Open(path string) (Table, error)
}

// NewOpener returns the Opener for the named backend ("parquet" or "arrow").
func NewOpener(backend string) (Opener, error) {
	switch backend {
	case "", "parquet":
		return &bundleOpener{codec: parquetCodec{}}, nil
	case "arrow":
		return &bundleOpener{codec: arrowCodec{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrReaderBackend, backend)
	}
}

// codec is the backend-specific part of reading a single member file.
type codec interface {
	columns(path string) ([]string, error)
	rowCount(path string) (int, error)
	read(path string, rows RowSpec, cols []string) (*Block, error)
	readSeries(path string, start, count int) (*mat.Dense, error)
	seriesWidth(path string) (int, error)
}

type bundleOpener struct {
	codec codec
}

func (o *bundleOpener) Open(path string) (Table, error) {
	b, err := openBundle(path)
	if err != nil {
		return nil, err
	}
	return &bundleTable{bundle: b, codec: o.codec}, nil
}

// bundleTable dispatches member reads to the backend codec. Member files are
// opened for the duration of one read and closed before returning, so no file
// handle outlives the call that needed it.
type bundleTable struct {
	bundle *bundle
	codec  codec
}

func (t *bundleTable) Members() []string { return t.bundle.order }

func (t *bundleTable) HasMember(name string) bool {
	_, ok := t.bundle.members[name]
	return ok
}

func (t *bundleTable) memberPath(name string) (string, error) {
	p, ok := t.bundle.members[name]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrMemberNotFound, name, t.bundle.dir)
	}
	return p, nil
}

func (t *bundleTable) Columns(member string) ([]string, error) {
	p, err := t.memberPath(member)
	if err != nil {
		return nil, err
	}
	return t.codec.columns(p)
}

func (t *bundleTable) RowCount(member string) (int, error) {
	p, err := t.memberPath(member)
	if err != nil {
		return 0, err
	}
	return t.codec.rowCount(p)
}

func (t *bundleTable) Read(member string, rows RowSpec, cols []string) (*Block, error) {
	p, err := t.memberPath(member)
	if err != nil {
		return nil, err
	}
	return t.codec.read(p, rows, cols)
}

func (t *bundleTable) ReadSeries(member string, start, count int) (*mat.Dense, error) {
	p, err := t.memberPath(member)
	if err != nil {
		return nil, err
	}
	return t.codec.readSeries(p, start, count)
}

func (t *bundleTable) SeriesWidth(member string) (int, error) {
	p, err := t.memberPath(member)
	if err != nil {
		return 0, err
	}
	return t.codec.seriesWidth(p)
}

func (t *bundleTable) Close() error { return nil }
