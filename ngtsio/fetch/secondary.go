package fetch

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/cjduffy/ngtsio/ngtsio/config"
	"github.com/cjduffy/ngtsio/ngtsio/selection"
	"github.com/cjduffy/ngtsio/ngtsio/tables"
)

// Canvas column names published with a unit rescale.
const (
	canvasPrefix    = "CANVAS_"
	canvasPeriodCol = "PERIOD"
	canvasWidthCol  = "WIDTH"
)

// fetchSecondarySeries reads requested 2-D measurement members out of a
// secondary bundle. suffix is appended to the stored member name to form the
// published key, so a detrended bundle can serve keys named one generation
// later than its files.
func (e *Engine) fetchSecondarySeries(fields map[string]any, path, suffix string, objs *selection.ObjectSelection, times *selection.TimeSelection, keys []string, d *selection.Diagnostics) {
	if path == "" {
		return
	}
	tbl, err := e.opener.Open(path)
	if err != nil {
		d.Warnf("secondary bundle %s could not be opened: %v", path, err)
		return
	}
	defer tbl.Close()

	for _, member := range tbl.Members() {
		if member == memberCatalogue || member == memberImagelist {
			continue
		}
		key := member + suffix
		if !containsKey(keys, key) {
			continue
		}
		if _, done := fields[key]; done {
			continue
		}
		m, err := e.fetchSeries(tbl, member, objs, times)
		if err != nil {
			d.Warnf("failed to read %s from %s: %v", member, path, err)
			continue
		}
		fields[key] = m
	}
}

// fetchCandidateProducts reads the ranked-candidate bundle: per-object scalars
// from its catalogue member and rank-filtered detection parameters from the
// candidate member. Candidate rows only exist for detected objects, so
// undetected selected objects read as NaN.
func (e *Engine) fetchCandidateProducts(fields map[string]any, objs *selection.ObjectSelection, keys []string, blsRank int, d *selection.Diagnostics) {
	if e.loc.BLS == "" {
		return
	}
	tbl, err := e.opener.Open(e.loc.BLS)
	if err != nil {
		d.Warnf("candidate bundle %s could not be opened: %v", e.loc.BLS, err)
		return
	}
	defer tbl.Close()

	// The identifier and flag columns of candidate products never override the
	// primary bundle's.
	exclude := map[string]bool{colObjID: true, colFlags: true}

	if tbl.HasMember(memberCatalogue) {
		if err := e.fetchPerRow(tbl, memberCatalogue, rowSpecObjects(objs), keys, exclude, fields); err != nil {
			d.Warnf("failed to read candidate catalogue: %v", err)
		}
	}
	if !tbl.HasMember(memberCandidates) {
		return
	}

	cols, err := tbl.Columns(memberCandidates)
	if err != nil {
		d.Warnf("failed to list candidate columns: %v", err)
		return
	}
	var sub []string
	for _, k := range keys {
		if exclude[k] {
			continue
		}
		if _, done := fields[k]; done {
			continue
		}
		if containsKey(cols, k) {
			sub = append(sub, k)
		}
	}
	if len(sub) == 0 {
		return
	}

	blk, err := tbl.Read(memberCandidates, tables.AllRows(), append([]string{colObjID, colRank}, sub...))
	if err != nil {
		d.Warnf("failed to read candidate member: %v", err)
		return
	}
	candIDs, idOK := blk.Strings(colObjID)
	ranks, rankOK := blk.Ints(colRank)
	if !idOK || !rankOK {
		d.Warnf("candidate member lacks usable %s/%s columns", colObjID, colRank)
		return
	}

	pos := make(map[string]int, len(objs.IDs))
	for i, id := range objs.IDs {
		pos[id] = i
	}
	for _, key := range sub {
		col, ok := blk.Floats(key)
		if !ok {
			continue
		}
		out := nanSlice(len(objs.IDs))
		for row := range ranks {
			if int(ranks[row]) != blsRank {
				continue
			}
			if i, ok := pos[selection.PadID(candIDs[row])]; ok {
				out[i] = col[row]
			}
		}
		fields[key] = out
	}
}

// fetchDilution reads per-object dilution estimates. The bundle stores its
// columns lowercase; they match requested keys case-insensitively and publish
// upper-cased.
func (e *Engine) fetchDilution(fields map[string]any, objs *selection.ObjectSelection, keys []string, d *selection.Diagnostics) {
	if e.loc.Dilution == "" {
		return
	}
	tbl, err := e.opener.Open(e.loc.Dilution)
	if err != nil {
		d.Warnf("dilution bundle %s could not be opened: %v", e.loc.Dilution, err)
		return
	}
	defer tbl.Close()

	members := tbl.Members()
	if len(members) == 0 {
		return
	}
	member := members[0]

	cols, err := tbl.Columns(member)
	if err != nil {
		d.Warnf("failed to list dilution columns: %v", err)
		return
	}
	var sub []string
	names := make(map[string]string)
	for _, c := range cols {
		key := strings.ToUpper(c)
		if key == colObjID || !containsKey(keys, key) {
			continue
		}
		if _, done := fields[key]; done {
			continue
		}
		sub = append(sub, c)
		names[c] = key
	}
	if len(sub) == 0 {
		return
	}

	blk, err := tbl.Read(member, rowSpecObjects(objs), sub)
	if err != nil {
		d.Warnf("failed to read dilution member: %v", err)
		return
	}
	for c, key := range names {
		if v, ok := blk.Cols[c]; ok {
			fields[key] = v
		}
	}
}

// fetchCanvas joins the companion table by object identifier. Period comes in
// days and is published in seconds; width comes as a fraction of the period
// and is published as a duration in seconds. Objects without a companion row
// read as NaN.
func (e *Engine) fetchCanvas(fields map[string]any, objs *selection.ObjectSelection, keys []string, d *selection.Diagnostics) {
	if e.loc.Canvas == "" {
		return
	}
	wanted := false
	for _, k := range keys {
		if strings.HasPrefix(k, canvasPrefix) {
			wanted = true
			break
		}
	}
	if !wanted {
		return
	}

	ct, err := tables.ReadCanvas(e.loc.Canvas)
	if err != nil {
		d.Warnf("companion table %s could not be read: %v", e.loc.Canvas, err)
		return
	}
	row := make(map[string]int, len(ct.IDs))
	for i, id := range ct.IDs {
		row[selection.PadID(id)] = i
	}
	periods := ct.Columns[canvasPeriodCol]

	for _, col := range ct.ColumnNames() {
		key := canvasPrefix + col
		if !containsKey(keys, key) {
			continue
		}
		src := ct.Columns[col]
		out := nanSlice(len(objs.IDs))
		for i, id := range objs.IDs {
			r, ok := row[id]
			if !ok {
				continue
			}
			switch col {
			case canvasPeriodCol:
				out[i] = src[r] * secondsPerDay
			case canvasWidthCol:
				if periods != nil {
					out[i] = src[r] * periods[r] * secondsPerDay
				}
			default:
				out[i] = src[r]
			}
		}
		fields[key] = out
	}
}

// fetchSysremImagelist reads per-exposure metadata recorded by the detrending
// stage, aligned on the same time axis as the primary imagelist.
func (e *Engine) fetchSysremImagelist(fields map[string]any, times *selection.TimeSelection, keys []string, d *selection.Diagnostics) {
	if e.loc.SysremImagelist == "" {
		return
	}
	tbl, err := e.opener.Open(e.loc.SysremImagelist)
	if err != nil {
		d.Warnf("detrend imagelist %s could not be opened: %v", e.loc.SysremImagelist, err)
		return
	}
	defer tbl.Close()

	member := memberImagelist
	if !tbl.HasMember(member) {
		members := tbl.Members()
		if len(members) == 0 {
			return
		}
		member = members[0]
	}
	if err := e.fetchPerRow(tbl, member, rowSpecTimes(times), keys, map[string]bool{colFlags: true}, fields); err != nil {
		d.Warnf("failed to read detrend imagelist: %v", err)
	}
}

// applyScaleCorrections converts raw fixed-point pixel coordinates into pixel
// units using the configured zero offset and precision.
func (e *Engine) applyScaleCorrections(fields map[string]any) {
	rescale := func(keys []string, c config.ScaleCorrection) {
		for _, k := range keys {
			m, ok := fields[k].(*mat.Dense)
			if !ok {
				continue
			}
			m.Apply(func(_, _ int, v float64) float64 {
				return (v + c.ZeroOffset) / c.Precision
			}, m)
		}
	}
	rescale([]string{"CCDX", "CCDY"}, e.cfg.Corrections.CCD)
	rescale([]string{"CENTDX", "CENTDY", "CENTDX_ERR", "CENTDY_ERR"}, e.cfg.Corrections.Centroid)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
