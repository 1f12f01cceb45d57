package fetch

import (
	"fmt"
	"math"

	"github.com/cjduffy/ngtsio/ngtsio/config"
	"github.com/cjduffy/ngtsio/ngtsio/selection"
	"github.com/cjduffy/ngtsio/ngtsio/tables"
)

// Field names with aliasing or deprecation behavior.
const (
	keyFlux        = "FLUX"
	keySysremFlux  = "SYSREM_FLUX3"
	keyFieldname   = "FIELDNAME"
	keyNGTSVersion = "NGTS_VERSION"
)

// Request describes one retrieval call. Selector fields accept a literal, a
// slice, or a path to a file of values; object ids additionally accept the
// "bls" and "canvas" keywords. At most one object selector and one time
// selector may be set; nil selects everything along that axis.
type Request struct {
	// Field and Version name the dataset, e.g. "NG0304-1115" and "TEST18".
	Field   string
	Version string

	// Keys lists the fields to retrieve.
	Keys []string

	ObjID  any
	ObjRow any

	TimeIndex    any
	TimeDate     any
	TimeHJD      any
	TimeActionID any

	// BLSRank selects which detection rank candidate parameters are read at.
	// Zero means rank 1.
	BLSRank int

	// Indexing is the row-number convention for ObjRow and defaults to
	// counting from 1.
	Indexing string

	// Backend overrides the configured table reader backend.
	Backend string

	// SetNaN invalidates flagged measurement cells.
	SetNaN bool

	// NoSimplify keeps degenerate dimensions instead of collapsing them.
	NoSimplify bool

	// Silent collapses per-value time-match diagnostics into one summary.
	Silent bool

	// Locations overrides the standard archive layout. When nil the layout is
	// resolved from the configured dataset root.
	Locations *tables.Locations

	// Config overrides the loaded configuration. When nil package defaults
	// apply.
	Config *config.Config
}

// Get resolves the request's selectors, joins every configured source and
// returns the assembled result. A selection that matches no catalogue object
// returns (nil, nil) with the reason recorded in the logs; errors are reserved
// for malformed requests and unreadable primary data.
func Get(req Request) (*Result, error) {
	d := selection.NewDiagnostics()

	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	loc := req.Locations
	if loc == nil {
		loc = tables.StandardLocations(cfg.Dataset.Root, req.Field, req.Version)
	}
	if loc.Primary() == "" {
		return nil, fmt.Errorf("no dataset found for field %s version %s under %s", req.Field, req.Version, cfg.Dataset.Root)
	}

	indexing := req.Indexing
	if indexing == "" {
		indexing = selection.IndexingNative
	}
	blsRank := req.BLSRank
	if blsRank == 0 {
		blsRank = 1
	}

	if containsKey(req.Keys, keyFlux) && !loc.Consolidated() {
		d.Warnf("key %s is deprecated for decomposed datasets; request %s instead", keyFlux, keySysremFlux)
	}

	// Forced extras join the working key list but never the requested set, so
	// they are stripped again before the result is returned.
	keys := make([]string, 0, len(req.Keys)+3)
	keys = append(keys, req.Keys...)
	if !containsKey(keys, colObjID) {
		keys = append(keys, colObjID)
	}
	// Consolidated bundles store the detrended flux under the plain flux name.
	if loc.Consolidated() && containsKey(keys, keySysremFlux) && !containsKey(keys, keyFlux) {
		keys = append(keys, keyFlux)
	}
	if req.SetNaN && !containsKey(keys, colFlags) {
		keys = append(keys, colFlags)
	}

	engine, err := NewEngine(req.Backend, loc, cfg)
	if err != nil {
		return nil, err
	}

	objs, err := selection.ResolveObjects(engine.ObjectSources(), req.ObjID, req.ObjRow, indexing, d)
	if err != nil {
		return nil, err
	}
	if !objs.All && len(objs.Indices) == 0 {
		d.Warnf("none of the given objects were found in the catalogue")
		return nil, nil
	}

	times, err := selection.ResolveTime(engine.TimeSources(), req.TimeIndex, req.TimeDate, req.TimeHJD, req.TimeActionID, req.Silent, d)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if !times.All && len(times.Indices) == 0 {
		d.Warnf("none of the given times were found in the metadata table")
		fields = make(map[string]any)
	} else {
		fields, err = engine.Fetch(objs, times, keys, blsRank, d)
		if err != nil {
			return nil, err
		}
	}

	finalize(fields, req, loc, cfg, keys, d)

	return &Result{
		Fields:      fields,
		ObjectIDs:   objs.IDs,
		Diagnostics: d.Messages(),
	}, nil
}

// finalize applies the post-join steps: detrended-flux aliasing, forced-extra
// stripping, unit policy corrections, simplification, echo keys and the
// completeness check. keys is the working key list including forced extras.
func finalize(fields map[string]any, req Request, loc *tables.Locations, cfg *config.Config, keys []string, d *selection.Diagnostics) {
	if loc.Consolidated() {
		if m, ok := fields[keyFlux]; ok && containsKey(keys, keySysremFlux) {
			if _, done := fields[keySysremFlux]; !done {
				fields[keySysremFlux] = m
			}
			if !containsKey(req.Keys, keyFlux) {
				delete(fields, keyFlux)
			}
		}
	}

	if req.SetNaN {
		InvalidateFlagged(fields)
		if !containsKey(req.Keys, colFlags) {
			delete(fields, colFlags)
		}
	}
	if !containsKey(req.Keys, colObjID) {
		delete(fields, colObjID)
	}

	// Historic decomposed products stored sky coordinates in radians.
	if !loc.Consolidated() && cfg.Corrections.RadianVersion(req.Version) {
		for _, key := range []string{"RA", "DEC"} {
			if v, ok := fields[key].([]float64); ok {
				for i := range v {
					v[i] *= 180 / math.Pi
				}
			}
		}
	}

	if !req.NoSimplify {
		Simplify(fields)
	}

	fields[keyFieldname] = req.Field
	fields[keyNGTSVersion] = req.Version

	CheckCompleteness(fields, req.Keys, d)
}
