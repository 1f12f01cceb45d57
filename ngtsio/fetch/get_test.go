package fetch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cjduffy/ngtsio/ngtsio/config"
	"github.com/cjduffy/ngtsio/ngtsio/selection"
	"github.com/cjduffy/ngtsio/ngtsio/tables"
)

func TestGetNoDataset(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Root = t.TempDir()

	_, err := Get(Request{
		Field:   "NG0304-1115",
		Version: "TEST18",
		Keys:    []string{"HJD"},
		Config:  cfg,
	})
	assert.ErrorContains(t, err, "no dataset found")
}

func TestGetConflictingSelectors(t *testing.T) {
	_, err := Get(Request{
		Field:     "NG0304-1115",
		Version:   "TEST18",
		Keys:      []string{"HJD"},
		ObjID:     "000046",
		ObjRow:    1,
		Locations: &tables.Locations{Nights: t.TempDir()},
	})
	assert.ErrorIs(t, err, selection.ErrConflictingSelector)
}

func TestGetUnknownBackend(t *testing.T) {
	_, err := Get(Request{
		Field:     "NG0304-1115",
		Version:   "TEST18",
		Keys:      []string{"HJD"},
		Backend:   "hdf5",
		Locations: &tables.Locations{Nights: t.TempDir()},
	})
	assert.ErrorIs(t, err, tables.ErrReaderBackend)
}

func TestFinalizeDetrendedAlias(t *testing.T) {
	loc := &tables.Locations{Megafile: "mega"}
	cfg := config.Default()

	t.Run("flux serves the detrended key and vanishes", func(t *testing.T) {
		fields := map[string]any{
			keyFlux: mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		}
		req := Request{Field: "NG0304-1115", Version: "CYCLE1807", Keys: []string{keySysremFlux}}
		d := selection.NewDiagnostics()

		finalize(fields, req, loc, cfg, []string{keySysremFlux, colObjID, keyFlux}, d)

		require.Contains(t, fields, keySysremFlux)
		assert.NotContains(t, fields, keyFlux)
		assert.Empty(t, d.Messages(), "a served alias is complete, not a diagnostic")
	})

	t.Run("flux survives when requested alongside", func(t *testing.T) {
		fields := map[string]any{
			keyFlux: mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		}
		req := Request{Field: "NG0304-1115", Version: "CYCLE1807", Keys: []string{keySysremFlux, keyFlux}}
		d := selection.NewDiagnostics()

		finalize(fields, req, loc, cfg, []string{keySysremFlux, keyFlux, colObjID}, d)

		assert.Contains(t, fields, keySysremFlux)
		assert.Contains(t, fields, keyFlux)
	})
}

func TestFinalizeStripsForcedExtras(t *testing.T) {
	loc := &tables.Locations{Nights: "nights"}
	cfg := config.Default()

	fields := map[string]any{
		colObjID: []string{"000046", "000113"},
		"FLUX": mat.NewDense(2, 2, []float64{
			1, 2,
			3, 4,
		}),
		colFlags: mat.NewDense(2, 2, []float64{
			0, 1,
			0, 0,
		}),
	}
	req := Request{Field: "NG0304-1115", Version: "CYCLE1807", Keys: []string{"FLUX"}, SetNaN: true}
	d := selection.NewDiagnostics()

	finalize(fields, req, loc, cfg, []string{"FLUX", colObjID, colFlags}, d)

	assert.NotContains(t, fields, colObjID, "forced identifier column is stripped unless requested")
	assert.NotContains(t, fields, colFlags, "forced flag matrix is stripped unless requested")

	flux := fields["FLUX"].(*mat.Dense)
	assert.True(t, math.IsNaN(flux.At(0, 1)), "invalidation runs before the flag matrix is stripped")
	assert.Equal(t, 1.0, flux.At(0, 0))
}

func TestFinalizeRadianPolicy(t *testing.T) {
	cfg := config.Default()
	req := Request{Field: "NG0304-1115", Version: "TEST18", Keys: []string{"RA", "DEC"}}

	t.Run("decomposed historic version converts to degrees", func(t *testing.T) {
		fields := map[string]any{
			"RA":  []float64{math.Pi, math.Pi / 2},
			"DEC": []float64{-math.Pi / 4, 0},
		}
		finalize(fields, req, &tables.Locations{Nights: "nights"}, cfg, req.Keys, selection.NewDiagnostics())

		assert.InDelta(t, 180.0, fields["RA"].([]float64)[0], 1e-9)
		assert.InDelta(t, 90.0, fields["RA"].([]float64)[1], 1e-9)
		assert.InDelta(t, -45.0, fields["DEC"].([]float64)[0], 1e-9)
	})

	t.Run("consolidated products are already in degrees", func(t *testing.T) {
		fields := map[string]any{"RA": []float64{math.Pi, math.Pi}}
		finalize(fields, req, &tables.Locations{Megafile: "mega"}, cfg, req.Keys, selection.NewDiagnostics())
		assert.Equal(t, math.Pi, fields["RA"].([]float64)[0])
	})

	t.Run("modern versions are already in degrees", func(t *testing.T) {
		modern := Request{Field: "NG0304-1115", Version: "CYCLE1807", Keys: []string{"RA"}}
		fields := map[string]any{"RA": []float64{math.Pi, math.Pi}}
		finalize(fields, modern, &tables.Locations{Nights: "nights"}, cfg, modern.Keys, selection.NewDiagnostics())
		assert.Equal(t, math.Pi, fields["RA"].([]float64)[0])
	})
}

func TestFinalizeSimplifyAndEchoKeys(t *testing.T) {
	loc := &tables.Locations{Nights: "nights"}
	cfg := config.Default()

	t.Run("degenerate axes collapse by default", func(t *testing.T) {
		fields := map[string]any{"FLUX": mat.NewDense(1, 1, []float64{7})}
		req := Request{Field: "NG0304-1115", Version: "CYCLE1807", Keys: []string{"FLUX"}}
		finalize(fields, req, loc, cfg, req.Keys, selection.NewDiagnostics())

		assert.Equal(t, 7.0, fields["FLUX"])
		assert.Equal(t, "NG0304-1115", fields[keyFieldname])
		assert.Equal(t, "CYCLE1807", fields[keyNGTSVersion])
	})

	t.Run("NoSimplify keeps every axis", func(t *testing.T) {
		fields := map[string]any{"FLUX": mat.NewDense(1, 1, []float64{7})}
		req := Request{Field: "NG0304-1115", Version: "CYCLE1807", Keys: []string{"FLUX"}, NoSimplify: true}
		finalize(fields, req, loc, cfg, req.Keys, selection.NewDiagnostics())

		assert.IsType(t, &mat.Dense{}, fields["FLUX"])
	})

	t.Run("unread keys surface as diagnostics", func(t *testing.T) {
		fields := map[string]any{}
		req := Request{Field: "NG0304-1115", Version: "CYCLE1807", Keys: []string{"CANVAS_PERIOD"}}
		d := selection.NewDiagnostics()
		finalize(fields, req, loc, cfg, req.Keys, d)

		require.Len(t, d.Messages(), 1)
		assert.Contains(t, d.Messages()[0], "CANVAS_PERIOD")
	})
}
