// Package fetch joins the resolved object and time selections against every
// configured dataset source and assembles the result field map. Sources other
// than the primary bundle are best-effort: a source that fails to open is
// reported through diagnostics and skipped, never fatal.
package fetch

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/assert-lib"
	"gonum.org/v1/gonum/mat"

	"github.com/cjduffy/ngtsio/ngtsio/config"
	"github.com/cjduffy/ngtsio/ngtsio/selection"
	"github.com/cjduffy/ngtsio/ngtsio/tables"
)

// Canonical member names inside dataset bundles.
const (
	memberCatalogue  = "CATALOGUE"
	memberImagelist  = "IMAGELIST"
	memberCandidates = "CANDIDATES"
	memberHJD        = "HJD"

	colObjID    = "OBJ_ID"
	colRank     = "RANK"
	colFlags    = "FLAGS"
	colDateObs  = "DATE-OBS"
	colActionID = "ACTIONID"
)

const secondsPerDay = 86400

// Engine joins selections against the dataset sources named by a Locations
// value. It is stateless between calls; member files are opened per read.
type Engine struct {
	opener  tables.Opener
	loc     *tables.Locations
	cfg     *config.Config
	asserts *assert.AssertHandler
}

// NewEngine builds an engine for the given source locations. An empty backend
// name falls back to the configured default.
func NewEngine(backend string, loc *tables.Locations, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if backend == "" {
		backend = cfg.Dataset.Backend
	}
	opener, err := tables.NewOpener(backend)
	if err != nil {
		return nil, err
	}
	return &Engine{
		opener:  opener,
		loc:     loc,
		cfg:     cfg,
		asserts: assert.NewAssertHandler(),
	}, nil
}

// ObjectSources exposes the identifier columns object selectors resolve
// against. The candidate and companion sources are nil when not configured.
func (e *Engine) ObjectSources() selection.ObjectSources {
	src := selection.ObjectSources{CatalogueIDs: e.catalogueIDs}
	if e.loc.BLS != "" {
		src.CandidateIDs = e.candidateIDs
	}
	if e.loc.Canvas != "" {
		src.CompanionIDs = e.companionIDs
	}
	return src
}

// TimeSources exposes the metadata columns time selectors resolve against.
func (e *Engine) TimeSources() selection.TimeSources {
	return selection.TimeSources{
		Dates:     e.exposureDates,
		ActionIDs: e.exposureActionIDs,
		HJDDays:   e.exposureDayNumbers,
		AxisSize:  e.timeAxisSize,
	}
}

// timeAxisSize returns the number of exposures: the imagelist row count, or
// the width of the continuous time member when no imagelist exists.
func (e *Engine) timeAxisSize() (int, error) {
	tbl, err := e.opener.Open(e.loc.Primary())
	if err != nil {
		return 0, err
	}
	defer tbl.Close()

	if tbl.HasMember(memberImagelist) {
		return tbl.RowCount(memberImagelist)
	}
	return tbl.SeriesWidth(memberHJD)
}

func (e *Engine) catalogueIDs() ([]string, error) {
	tbl, err := e.opener.Open(e.loc.Primary())
	if err != nil {
		return nil, err
	}
	defer tbl.Close()

	blk, err := tbl.Read(memberCatalogue, tables.AllRows(), []string{colObjID})
	if err != nil {
		return nil, err
	}
	ids, ok := blk.Strings(colObjID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", tables.ErrColumnNotFound, colObjID, memberCatalogue)
	}
	return ids, nil
}

func (e *Engine) candidateIDs() ([]string, error) {
	tbl, err := e.opener.Open(e.loc.BLS)
	if err != nil {
		return nil, err
	}
	defer tbl.Close()

	blk, err := tbl.Read(memberCandidates, tables.AllRows(), []string{colObjID})
	if err != nil {
		return nil, err
	}
	ids, ok := blk.Strings(colObjID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", tables.ErrColumnNotFound, colObjID, memberCandidates)
	}
	// Ranked candidate tables hold one row per detection; collapse to unique ids.
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range selection.PadIDs(ids) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func (e *Engine) companionIDs() ([]string, error) {
	ct, err := tables.ReadCanvas(e.loc.Canvas)
	if err != nil {
		return nil, err
	}
	return selection.PadIDs(ct.IDs), nil
}

func (e *Engine) exposureDates() ([]string, error) {
	tbl, err := e.opener.Open(e.loc.Primary())
	if err != nil {
		return nil, err
	}
	defer tbl.Close()

	blk, err := tbl.Read(memberImagelist, tables.AllRows(), []string{colDateObs})
	if err != nil {
		return nil, err
	}
	dates, ok := blk.Strings(colDateObs)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", tables.ErrColumnNotFound, colDateObs, memberImagelist)
	}
	return dates, nil
}

func (e *Engine) exposureActionIDs() ([]int64, error) {
	tbl, err := e.opener.Open(e.loc.Primary())
	if err != nil {
		return nil, err
	}
	defer tbl.Close()

	blk, err := tbl.Read(memberImagelist, tables.AllRows(), []string{colActionID})
	if err != nil {
		return nil, err
	}
	ids, ok := blk.Ints(colActionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", tables.ErrColumnNotFound, colActionID, memberImagelist)
	}
	return ids, nil
}

// exposureDayNumbers reads one object row of the continuous time member and
// truncates seconds to whole day numbers.
func (e *Engine) exposureDayNumbers() ([]int64, error) {
	tbl, err := e.opener.Open(e.loc.Primary())
	if err != nil {
		return nil, err
	}
	defer tbl.Close()

	row, err := tbl.ReadSeries(memberHJD, 0, 1)
	if err != nil {
		return nil, err
	}
	_, width := row.Dims()
	days := make([]int64, width)
	for j := 0; j < width; j++ {
		days[j] = int64(row.At(0, j) / secondsPerDay)
	}
	return days, nil
}

// Fetch reads every requested key out of the configured sources and returns
// the assembled field map. keys must already include any forced extras.
func (e *Engine) Fetch(objs *selection.ObjectSelection, times *selection.TimeSelection, keys []string, blsRank int, d *selection.Diagnostics) (map[string]any, error) {
	fields := make(map[string]any)

	if err := e.fetchPrimary(fields, objs, times, keys); err != nil {
		return nil, err
	}
	e.fetchSecondarySeries(fields, e.loc.Sysrem, "", objs, times, keys, d)
	e.fetchSecondarySeries(fields, e.loc.Decorr, "3", objs, times, keys, d)
	e.fetchCandidateProducts(fields, objs, keys, blsRank, d)
	e.fetchDilution(fields, objs, keys, d)
	e.fetchCanvas(fields, objs, keys, d)
	e.fetchSysremImagelist(fields, times, keys, d)
	e.applyScaleCorrections(fields)

	return fields, nil
}

// fetchPrimary reads the catalogue, imagelist and 2-D measurement members of
// the primary bundle. Failures here are fatal: without the primary bundle
// there is nothing to join against.
func (e *Engine) fetchPrimary(fields map[string]any, objs *selection.ObjectSelection, times *selection.TimeSelection, keys []string) error {
	tbl, err := e.opener.Open(e.loc.Primary())
	if err != nil {
		return fmt.Errorf("failed to open primary bundle %s: %w", e.loc.Primary(), err)
	}
	defer tbl.Close()

	if err := e.fetchPerRow(tbl, memberCatalogue, rowSpecObjects(objs), keys, nil, fields); err != nil {
		return err
	}
	if tbl.HasMember(memberImagelist) {
		if err := e.fetchPerRow(tbl, memberImagelist, rowSpecTimes(times), keys, nil, fields); err != nil {
			return err
		}
	}

	for _, key := range keys {
		if _, done := fields[key]; done {
			continue
		}
		if !tbl.HasMember(key) {
			continue
		}
		m, err := e.fetchSeries(tbl, key, objs, times)
		if err != nil {
			return err
		}
		fields[key] = m
	}
	return nil
}

// fetchPerRow copies the requested columns of a per-row member into fields,
// skipping columns already populated by an earlier source.
func (e *Engine) fetchPerRow(tbl tables.Table, member string, rows tables.RowSpec, keys []string, exclude map[string]bool, fields map[string]any) error {
	cols, err := tbl.Columns(member)
	if err != nil {
		return err
	}
	sub := intersect(cols, keys, exclude)
	if len(sub) == 0 {
		return nil
	}
	blk, err := tbl.Read(member, rows, sub)
	if err != nil {
		return err
	}
	for name, v := range blk.Cols {
		if _, done := fields[name]; done {
			continue
		}
		fields[name] = cleanColumn(name, v)
	}
	return nil
}

// fetchSeries reads one 2-D measurement member for the selection. The reader
// only supports contiguous windows on both axes, so explicit time selections
// over-fetch the covering window and re-select the exact exposures afterwards.
func (e *Engine) fetchSeries(tbl tables.Table, member string, objs *selection.ObjectSelection, times *selection.TimeSelection) (*mat.Dense, error) {
	width, err := tbl.SeriesWidth(member)
	if err != nil {
		return nil, err
	}
	t0, t1 := times.Window(width)

	var raw *mat.Dense
	switch objs.Strategy() {
	case selection.FetchAllObjects:
		n, err := tbl.RowCount(member)
		if err != nil {
			return nil, err
		}
		full, err := tbl.ReadSeries(member, 0, n)
		if err != nil {
			return nil, err
		}
		raw = full.Slice(0, n, t0, t1).(*mat.Dense)
	default:
		raw = mat.NewDense(len(objs.Indices), t1-t0, nil)
		for i, row := range objs.Indices {
			one, err := tbl.ReadSeries(member, row, 1)
			if err != nil {
				return nil, err
			}
			raw.SetRow(i, one.RawRowView(0)[t0:t1])
		}
	}

	if times.All {
		return raw, nil
	}
	// Pick the exact requested exposures out of the covering window, in
	// request order.
	nRows, _ := raw.Dims()
	out := mat.NewDense(nRows, len(times.Indices), nil)
	for j, t := range times.Indices {
		for i := 0; i < nRows; i++ {
			out.Set(i, j, raw.At(i, t-t0))
		}
	}
	return out, nil
}

func rowSpecObjects(objs *selection.ObjectSelection) tables.RowSpec {
	if objs.All {
		return tables.AllRows()
	}
	return tables.Rows(objs.Indices)
}

func rowSpecTimes(times *selection.TimeSelection) tables.RowSpec {
	if times.All {
		return tables.AllRows()
	}
	return tables.Rows(times.Indices)
}

// intersect filters cols down to the requested keys, preserving key order.
func intersect(cols, keys []string, exclude map[string]bool) []string {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	var out []string
	for _, k := range keys {
		if have[k] && !exclude[k] {
			out = append(out, k)
		}
	}
	return out
}

// cleanColumn normalizes raw column values: string cells are trimmed and the
// identifier column is zero-padded to canonical width.
func cleanColumn(name string, v any) any {
	s, ok := v.([]string)
	if !ok {
		return v
	}
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = strings.TrimSpace(x)
	}
	if name == colObjID {
		return selection.PadIDs(out)
	}
	return out
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
