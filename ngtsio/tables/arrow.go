package tables

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"gonum.org/v1/gonum/mat"
)

// arrowCodec reads member files with the apache arrow parquet reader. It is
// behaviorally equivalent to parquetCodec; which one runs is decided once, at
// opener construction.
type arrowCodec struct{}

func (arrowCodec) columns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}
	defer pf.Close()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow file reader for %s: %w", path, err)
	}
	schema, err := fr.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to get arrow schema for %s: %w", path, err)
	}
	names := make([]string, 0, schema.NumFields())
	for _, fld := range schema.Fields() {
		names = append(names, fld.Name)
	}
	return names, nil
}

func (arrowCodec) rowCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	pf, err := file.NewParquetReader(f)
	if err != nil {
		return 0, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}
	defer pf.Close()
	return int(pf.NumRows()), nil
}

// readTable loads the whole member as an arrow table. The arrow record reader
// is sequential; row subsets are taken from the materialized table.
func readTable(path string) (arrow.Table, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	pf, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(readBatchSize)}, memory.DefaultAllocator)
	if err != nil {
		pf.Close()
		f.Close()
		return nil, nil, fmt.Errorf("failed to create arrow file reader for %s: %w", path, err)
	}
	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		pf.Close()
		f.Close()
		return nil, nil, fmt.Errorf("failed to read table %s: %w", path, err)
	}
	cleanup := func() {
		tbl.Release()
		pf.Close()
		f.Close()
	}
	return tbl, cleanup, nil
}

func (arrowCodec) read(path string, rows RowSpec, cols []string) (*Block, error) {
	tbl, cleanup, err := readTable(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	names := cols
	if names == nil {
		for _, fld := range tbl.Schema().Fields() {
			names = append(names, fld.Name)
		}
	}

	n := int(tbl.NumRows())
	kept := n
	if !rows.All {
		kept = len(rows.Indices)
	}

	block := &Block{N: kept, Cols: make(map[string]any, len(names))}
	for _, name := range names {
		indices := tbl.Schema().FieldIndices(name)
		if len(indices) == 0 {
			return nil, fmt.Errorf("%w: %s in %s", ErrColumnNotFound, name, path)
		}
		full, err := gatherColumn(tbl.Column(indices[0]), n)
		if err != nil {
			return nil, fmt.Errorf("column %s of %s: %w", name, path, err)
		}
		picked, err := pickRows(full, rows)
		if err != nil {
			return nil, fmt.Errorf("%w in %s", err, path)
		}
		block.Cols[name] = picked
	}
	return block, nil
}

func (arrowCodec) readSeries(path string, start, count int) (*mat.Dense, error) {
	tbl, cleanup, err := readTable(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	indices := tbl.Schema().FieldIndices("VALUES")
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: VALUES in %s", ErrColumnNotFound, path)
	}

	var out *mat.Dense
	row := 0
	filled := 0
	for _, chunk := range tbl.Column(indices[0]).Data().Chunks() {
		la, ok := chunk.(*array.List)
		if !ok {
			return nil, fmt.Errorf("series member %s: VALUES is not a list column", path)
		}
		values, ok := la.ListValues().(*array.Float64)
		if !ok {
			return nil, fmt.Errorf("series member %s: VALUES elements are not float64", path)
		}
		for i := 0; i < la.Len(); i++ {
			if row >= start && filled < count {
				s, e := la.ValueOffsets(i)
				width := int(e - s)
				if out == nil {
					out = mat.NewDense(count, width, nil)
				}
				for j := 0; j < width; j++ {
					out.Set(filled, j, values.Value(int(s)+j))
				}
				filled++
			}
			row++
		}
	}
	if filled < count {
		return nil, fmt.Errorf("short series read from %s: wanted %d rows, got %d", path, count, filled)
	}
	return out, nil
}

func (c arrowCodec) seriesWidth(path string) (int, error) {
	m, err := c.readSeries(path, 0, 1)
	if err != nil {
		return 0, err
	}
	_, w := m.Dims()
	return w, nil
}

func gatherColumn(col *arrow.Column, n int) (any, error) {
	chunks := col.Data().Chunks()
	if len(chunks) == 0 {
		return make([]float64, 0), nil
	}
	switch chunks[0].(type) {
	case *array.String:
		out := make([]string, 0, n)
		for _, c := range chunks {
			a := c.(*array.String)
			for i := 0; i < a.Len(); i++ {
				out = append(out, a.Value(i))
			}
		}
		return out, nil
	case *array.Int64:
		out := make([]int64, 0, n)
		for _, c := range chunks {
			a := c.(*array.Int64)
			for i := 0; i < a.Len(); i++ {
				out = append(out, a.Value(i))
			}
		}
		return out, nil
	case *array.Int32:
		out := make([]int64, 0, n)
		for _, c := range chunks {
			a := c.(*array.Int32)
			for i := 0; i < a.Len(); i++ {
				out = append(out, int64(a.Value(i)))
			}
		}
		return out, nil
	case *array.Float64:
		out := make([]float64, 0, n)
		for _, c := range chunks {
			a := c.(*array.Float64)
			for i := 0; i < a.Len(); i++ {
				out = append(out, a.Value(i))
			}
		}
		return out, nil
	case *array.Float32:
		out := make([]float64, 0, n)
		for _, c := range chunks {
			a := c.(*array.Float32)
			for i := 0; i < a.Len(); i++ {
				out = append(out, float64(a.Value(i)))
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported arrow column type %s", chunks[0].DataType())
	}
}

// pickRows selects the requested rows out of a fully-gathered column, in
// request order, duplicates preserved.
func pickRows(full any, rows RowSpec) (any, error) {
	if rows.All {
		return full, nil
	}
	switch v := full.(type) {
	case []string:
		out := make([]string, 0, len(rows.Indices))
		for _, i := range rows.Indices {
			if i < 0 || i >= len(v) {
				return nil, fmt.Errorf("%w: row %d of %d", ErrRowOutOfRange, i, len(v))
			}
			out = append(out, v[i])
		}
		return out, nil
	case []int64:
		out := make([]int64, 0, len(rows.Indices))
		for _, i := range rows.Indices {
			if i < 0 || i >= len(v) {
				return nil, fmt.Errorf("%w: row %d of %d", ErrRowOutOfRange, i, len(v))
			}
			out = append(out, v[i])
		}
		return out, nil
	case []float64:
		out := make([]float64, 0, len(rows.Indices))
		for _, i := range rows.Indices {
			if i < 0 || i >= len(v) {
				return nil, fmt.Errorf("%w: row %d of %d", ErrRowOutOfRange, i, len(v))
			}
			out = append(out, v[i])
		}
		return out, nil
	}
	return full, nil
}
