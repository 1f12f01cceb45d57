package fetch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cjduffy/ngtsio/ngtsio/selection"
)

func TestInvalidateFlagged(t *testing.T) {
	fields := map[string]any{
		"FLUX": mat.NewDense(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		}),
		"HJD": mat.NewDense(2, 3, []float64{
			10, 20, 30,
			10, 20, 30,
		}),
		colFlags: mat.NewDense(2, 3, []float64{
			0, 1, 0,
			1, 0, 0,
		}),
	}

	InvalidateFlagged(fields)

	flux := fields["FLUX"].(*mat.Dense)
	assert.Equal(t, 1.0, flux.At(0, 0))
	assert.True(t, math.IsNaN(flux.At(0, 1)))
	assert.True(t, math.IsNaN(flux.At(1, 0)))
	assert.Equal(t, 6.0, flux.At(1, 2))

	// Time is never invalidated; a flagged exposure still has a timestamp.
	hjd := fields["HJD"].(*mat.Dense)
	assert.Equal(t, 20.0, hjd.At(0, 1))
}

func TestInvalidateFlaggedShapeMismatch(t *testing.T) {
	fields := map[string]any{
		"FLUX":   mat.NewDense(1, 2, []float64{1, 2}),
		colFlags: mat.NewDense(2, 3, nil),
	}
	InvalidateFlagged(fields)
	assert.Equal(t, 1.0, fields["FLUX"].(*mat.Dense).At(0, 0))
}

func TestInvalidateFlaggedWithoutFlags(t *testing.T) {
	fields := map[string]any{"FLUX": mat.NewDense(1, 1, []float64{7})}
	InvalidateFlagged(fields)
	assert.Equal(t, 7.0, fields["FLUX"].(*mat.Dense).At(0, 0))
}

func TestSimplify(t *testing.T) {
	fields := map[string]any{
		"SCALAR":  mat.NewDense(1, 1, []float64{42}),
		"ROW":     mat.NewDense(1, 3, []float64{1, 2, 3}),
		"COL":     mat.NewDense(3, 1, []float64{4, 5, 6}),
		"MATRIX":  mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		"FLOATS":  []float64{3.5},
		"INTS":    []int64{9},
		"STRINGS": []string{"000046"},
		"KEEP":    []float64{1, 2},
	}

	Simplify(fields)

	assert.Equal(t, 42.0, fields["SCALAR"])
	assert.Equal(t, []float64{1, 2, 3}, fields["ROW"])
	assert.Equal(t, []float64{4, 5, 6}, fields["COL"])
	assert.IsType(t, &mat.Dense{}, fields["MATRIX"], "full matrices keep both dimensions")
	assert.Equal(t, 3.5, fields["FLOATS"])
	assert.Equal(t, int64(9), fields["INTS"])
	assert.Equal(t, "000046", fields["STRINGS"])
	assert.Equal(t, []float64{1, 2}, fields["KEEP"])
}

func TestCheckCompleteness(t *testing.T) {
	d := selection.NewDiagnostics()
	fields := map[string]any{"HJD": []float64{1}}

	CheckCompleteness(fields, []string{"HJD", "CANVAS_PERIOD"}, d)

	require.Len(t, d.Messages(), 1)
	assert.Contains(t, d.Messages()[0], "CANVAS_PERIOD")
}
