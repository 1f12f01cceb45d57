package fetch

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cjduffy/ngtsio/ngtsio/selection"
)

// flaggedFields are the 2-D measurement fields whose cells are invalidated
// where the quality flag matrix is non-zero. The time field itself is never
// invalidated; a flagged exposure still happened at a real time.
var flaggedFields = []string{
	"FLUX", "FLUX_ERR",
	"FLUX3", "FLUX3_ERR",
	"FLUX4", "FLUX4_ERR",
	"FLUX5", "FLUX5_ERR",
	"SYSREM_FLUX3", "SYSREM_FLUX3_ERR",
	"DECORR_FLUX3", "DECORR_FLUX3_ERR",
	"CCDX", "CCDX_ERR",
	"CCDY", "CCDY_ERR",
	"CENTDX", "CENTDX_ERR",
	"CENTDY", "CENTDY_ERR",
}

// InvalidateFlagged overwrites measurement cells with NaN wherever the quality
// flag matrix is non-zero. Fields whose shape does not match the flag matrix
// are left alone.
func InvalidateFlagged(fields map[string]any) {
	flags, ok := fields[colFlags].(*mat.Dense)
	if !ok {
		return
	}
	fr, fc := flags.Dims()

	for _, key := range flaggedFields {
		m, ok := fields[key].(*mat.Dense)
		if !ok {
			continue
		}
		r, c := m.Dims()
		if r != fr || c != fc {
			continue
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if flags.At(i, j) != 0 {
					m.Set(i, j, math.NaN())
				}
			}
		}
	}
}

// Simplify collapses degenerate dimensions in place: a 1x1 matrix becomes a
// scalar, a single-row or single-column matrix becomes a slice, and a
// single-element slice becomes a scalar.
func Simplify(fields map[string]any) {
	for key, v := range fields {
		switch val := v.(type) {
		case *mat.Dense:
			r, c := val.Dims()
			switch {
			case r == 1 && c == 1:
				fields[key] = val.At(0, 0)
			case r == 1:
				row := make([]float64, c)
				mat.Row(row, 0, val)
				fields[key] = row
			case c == 1:
				col := make([]float64, r)
				mat.Col(col, 0, val)
				fields[key] = col
			}
		case []float64:
			if len(val) == 1 {
				fields[key] = val[0]
			}
		case []int64:
			if len(val) == 1 {
				fields[key] = val[0]
			}
		case []string:
			if len(val) == 1 {
				fields[key] = val[0]
			}
		}
	}
}

// CheckCompleteness reports every requested key that did not make it into the
// result. Missing keys are diagnostics, not errors; partial results are valid.
func CheckCompleteness(fields map[string]any, requested []string, d *selection.Diagnostics) {
	for _, key := range requested {
		if _, ok := fields[key]; !ok {
			d.Warnf("key %s could not be read from any configured source", key)
		}
	}
}
