package tables

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"gonum.org/v1/gonum/mat"
)

const readBatchSize = 1024

// parquetCodec reads member files with the parquet-go library.
type parquetCodec struct{}

// seriesRow is the row shape of a 2-D measurement member: one object per row,
// the per-exposure values in a single list column.
type seriesRow struct {
	Values []float64 `parquet:"VALUES"`
}

func openParquet(path string) (*os.File, *parquet.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}
	return f, pf, nil
}

func (parquetCodec) columns(path string) ([]string, error) {
	f, pf, err := openParquet(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields := pf.Schema().Fields()
	names := make([]string, 0, len(fields))
	for _, fld := range fields {
		names = append(names, fld.Name())
	}
	return names, nil
}

func (parquetCodec) rowCount(path string) (int, error) {
	f, pf, err := openParquet(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return int(pf.NumRows()), nil
}

func (parquetCodec) read(path string, rows RowSpec, cols []string) (*Block, error) {
	f, pf, err := openParquet(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[map[string]any](pf, pf.Schema())
	defer reader.Close()

	want := make(map[int]bool, len(rows.Indices))
	if !rows.All {
		for _, i := range rows.Indices {
			if i < 0 {
				return nil, fmt.Errorf("%w: row %d in %s", ErrRowOutOfRange, i, path)
			}
			want[i] = true
		}
	}

	raw := make(map[string][]any)
	// The reader is sequential, so explicit-row-list reads buffer matched rows
	// by index first and emit them in request order afterwards.
	kept := make(map[int]map[string]any, len(want))
	buf := make([]map[string]any, readBatchSize)
	for i := range buf {
		buf[i] = make(map[string]any)
	}

	rowIdx := 0
	for {
		for i := range buf {
			for k := range buf[i] {
				delete(buf[i], k)
			}
		}
		n, err := reader.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parquet reader error for %s: %w", path, err)
		}
		for i := 0; i < n; i++ {
			switch {
			case rows.All:
				for k, v := range buf[i] {
					raw[k] = append(raw[k], v)
				}
			case want[rowIdx]:
				row := make(map[string]any, len(buf[i]))
				for k, v := range buf[i] {
					row[k] = v
				}
				kept[rowIdx] = row
			}
			rowIdx++
		}
		if errors.Is(err, io.EOF) || n == 0 {
			break
		}
	}

	if rows.All {
		return buildBlock(raw, cols, rowIdx)
	}
	for _, idx := range rows.Indices {
		row, ok := kept[idx]
		if !ok {
			return nil, fmt.Errorf("%w: row %d of %d in %s", ErrRowOutOfRange, idx, rowIdx, path)
		}
		for k, v := range row {
			raw[k] = append(raw[k], v)
		}
	}
	return buildBlock(raw, cols, len(rows.Indices))
}

func (parquetCodec) readSeries(path string, start, count int) (*mat.Dense, error) {
	f, pf, err := openParquet(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[seriesRow](pf, pf.Schema())
	defer reader.Close()

	if start > 0 {
		if err := reader.SeekToRow(int64(start)); err != nil {
			return nil, fmt.Errorf("failed to seek to row %d in %s: %w", start, path, err)
		}
	}

	var out *mat.Dense
	buf := make([]seriesRow, readBatchSize)
	filled := 0
	for filled < count {
		n, err := reader.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parquet reader error for %s: %w", path, err)
		}
		for i := 0; i < n && filled < count; i++ {
			vals := buf[i].Values
			if out == nil {
				out = mat.NewDense(count, len(vals), nil)
			}
			out.SetRow(filled, vals)
			filled++
		}
		if errors.Is(err, io.EOF) || n == 0 {
			break
		}
	}
	if filled < count {
		return nil, fmt.Errorf("short series read from %s: wanted %d rows, got %d", path, count, filled)
	}
	return out, nil
}

func (c parquetCodec) seriesWidth(path string) (int, error) {
	m, err := c.readSeries(path, 0, 1)
	if err != nil {
		return 0, err
	}
	_, w := m.Dims()
	return w, nil
}

// buildBlock materializes per-column []any accumulators into typed slices.
// The first non-nil value decides the column type.
func buildBlock(raw map[string][]any, cols []string, n int) (*Block, error) {
	block := &Block{N: n, Cols: make(map[string]any)}

	names := cols
	if names == nil {
		names = make([]string, 0, len(raw))
		for k := range raw {
			names = append(names, k)
		}
	}

	for _, name := range names {
		vals, ok := raw[name]
		if !ok {
			if cols != nil {
				return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
			}
			continue
		}
		block.Cols[name] = materializeColumn(vals)
	}
	return block, nil
}

func materializeColumn(vals []any) any {
	for _, v := range vals {
		switch v.(type) {
		case string, []byte:
			out := make([]string, len(vals))
			for i, x := range vals {
				switch s := x.(type) {
				case string:
					out[i] = s
				case []byte:
					out[i] = string(s)
				}
			}
			return out
		case int32, int64:
			out := make([]int64, len(vals))
			for i, x := range vals {
				switch n := x.(type) {
				case int32:
					out[i] = int64(n)
				case int64:
					out[i] = n
				case float64:
					out[i] = int64(n)
				}
			}
			return out
		case float32, float64:
			out := make([]float64, len(vals))
			for i, x := range vals {
				switch n := x.(type) {
				case float32:
					out[i] = float64(n)
				case float64:
					out[i] = n
				case int64:
					out[i] = float64(n)
				case int32:
					out[i] = float64(n)
				}
			}
			return out
		case nil:
			continue
		}
		break
	}
	// all nil or unsupported: empty float column keeps downstream code total
	return make([]float64, len(vals))
}
