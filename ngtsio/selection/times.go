package selection

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSelection is the resolved time half of a selection: either the
// select-all marker or an explicit row-index set. Unlike objects, no canonical
// time identifiers are surfaced back; matching scans the metadata table in
// storage order, so matched indices come out ascending.
type TimeSelection struct {
	All     bool
	Indices []int
}

// Count returns the number of selected exposures given the time-axis length.
func (s *TimeSelection) Count(timeAxisSize int) int {
	if s.All {
		return timeAxisSize
	}
	return len(s.Indices)
}

// Window returns the contiguous [start, end) window covering the selection,
// for readers that only support windowed 2-D reads.
func (s *TimeSelection) Window(timeAxisSize int) (int, int) {
	if s.All || len(s.Indices) == 0 {
		return 0, timeAxisSize
	}
	lo, hi := s.Indices[0], s.Indices[0]
	for _, i := range s.Indices[1:] {
		if i < lo {
			lo = i
		}
		if i > hi {
			hi = i
		}
	}
	return lo, hi + 1
}

// TimeSources supplies the metadata columns time selectors match against.
// Dates returns the calendar date column, ActionIDs the acquisition batch
// column, HJDDays the continuous time column truncated to whole days, and
// AxisSize the time-axis length raw indices are bounds-checked against.
type TimeSources struct {
	Dates     func() ([]string, error)
	ActionIDs func() ([]int64, error)
	HJDDays   func() ([]int64, error)
	AxisSize  func() (int, error)
}

// ResolveTime canonicalizes exactly one of the four time selectors into a
// TimeSelection. Supplying more than one is a conflict.
func ResolveTime(src TimeSources, timeIndex, timeDate, timeHJD, timeActionID any, silent bool, d *Diagnostics) (*TimeSelection, error) {
	given := 0
	for _, v := range []any{timeIndex, timeDate, timeHJD, timeActionID} {
		if v != nil {
			given++
		}
	}
	if given > 1 {
		return nil, fmt.Errorf("%w: use only one of time index, date, hjd or action id", ErrConflictingSelector)
	}

	switch {
	case given == 0:
		return &TimeSelection{All: true}, nil
	case timeIndex != nil:
		return resolveTimeIndex(src, timeIndex, d)
	case timeDate != nil:
		return resolveTimeDate(src, timeDate, d)
	case timeHJD != nil:
		return resolveTimeHJD(src, timeHJD, silent, d)
	default:
		return resolveTimeActionID(src, timeActionID, d)
	}
}

func resolveTimeIndex(src TimeSources, v any, d *Diagnostics) (*TimeSelection, error) {
	form, err := classify(v, nil)
	if err != nil {
		return nil, err
	}
	var rows []int
	if form == FormFilePath {
		fields, err := loadValueFile(v.(string))
		if err != nil {
			return nil, err
		}
		rows, err = asInts(fields)
		if err != nil {
			return nil, err
		}
	} else {
		rows, err = asInts(v)
		if err != nil {
			return nil, err
		}
	}

	size, err := src.AxisSize()
	if err != nil {
		return nil, fmt.Errorf("failed to read time axis size: %w", err)
	}
	// Indices survive in request order; out-of-range values drop with a
	// diagnostic, the same policy as object rows.
	sel := &TimeSelection{}
	for _, r := range rows {
		if r < 0 || r >= size {
			d.Warnf("time index %d outside time axis (size %d)", r, size)
			continue
		}
		sel.Indices = append(sel.Indices, r)
	}
	return sel, nil
}

func resolveTimeDate(src TimeSources, v any, d *Diagnostics) (*TimeSelection, error) {
	form, err := classify(v, nil)
	if err != nil {
		return nil, err
	}

	var raw []string
	switch form {
	case FormFilePath:
		raw, err = loadValueFile(v.(string))
		if err != nil {
			return nil, err
		}
	case FormLiteral:
		if s, ok := v.(string); ok && len(s) > 10 {
			// Compact range, e.g. "2015-11-04:2016-01-01" or "20151104:20160101".
			raw, err = ExpandDateRange(s)
			if err != nil {
				return nil, err
			}
			break
		}
		raw, err = asStrings(v)
		if err != nil {
			return nil, err
		}
	default:
		raw, err = asStrings(v)
		if err != nil {
			return nil, err
		}
	}

	wanted := make([]string, 0, len(raw))
	for _, s := range raw {
		norm, err := normalizeDate(s)
		if err != nil {
			return nil, err
		}
		wanted = append(wanted, norm)
	}

	dates, err := src.Dates()
	if err != nil {
		return nil, fmt.Errorf("failed to read date column: %w", err)
	}

	want := make(map[string]bool, len(wanted))
	for _, s := range wanted {
		want[s] = true
	}
	found := make(map[string]bool, len(wanted))
	sel := &TimeSelection{}
	for i, date := range dates {
		date = strings.TrimSpace(date)
		if want[date] {
			sel.Indices = append(sel.Indices, i)
			found[date] = true
		}
	}
	for _, s := range wanted {
		if !found[s] {
			d.Warnf("date %s not found in metadata table", s)
		}
	}
	return sel, nil
}

func resolveTimeHJD(src TimeSources, v any, silent bool, d *Diagnostics) (*TimeSelection, error) {
	form, err := classify(v, nil)
	if err != nil {
		return nil, err
	}
	var days []int
	if form == FormFilePath {
		fields, err := loadValueFile(v.(string))
		if err != nil {
			return nil, err
		}
		days, err = asInts(fields)
		if err != nil {
			return nil, err
		}
	} else {
		days, err = asInts(v)
		if err != nil {
			return nil, err
		}
	}

	all, err := src.HJDDays()
	if err != nil {
		return nil, fmt.Errorf("failed to derive day numbers: %w", err)
	}

	want := make(map[int64]bool, len(days))
	for _, day := range days {
		want[int64(day)] = true
	}
	found := make(map[int64]bool, len(days))
	sel := &TimeSelection{}
	for i, day := range all {
		if want[day] {
			sel.Indices = append(sel.Indices, i)
			found[day] = true
		}
	}

	missing := 0
	for _, day := range days {
		if !found[int64(day)] {
			missing++
			if !silent {
				d.Warnf("day number %d not found in metadata table", day)
			}
		}
	}
	if silent && missing > 0 {
		d.Warnf("%d day numbers not found in metadata table", missing)
	}
	return sel, nil
}

func resolveTimeActionID(src TimeSources, v any, d *Diagnostics) (*TimeSelection, error) {
	form, err := classify(v, nil)
	if err != nil {
		return nil, err
	}

	var ids []int
	switch form {
	case FormFilePath:
		fields, err := loadValueFile(v.(string))
		if err != nil {
			return nil, err
		}
		ids, err = asInts(fields)
		if err != nil {
			return nil, err
		}
	case FormLiteral:
		if s, ok := v.(string); ok && len(s) > 6 {
			// Compact range, e.g. "108583:108600".
			ids, err = ExpandActionIDRange(s)
			if err != nil {
				return nil, err
			}
			break
		}
		ids, err = asInts(v)
		if err != nil {
			return nil, err
		}
	default:
		ids, err = asInts(v)
		if err != nil {
			return nil, err
		}
	}

	all, err := src.ActionIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to read action id column: %w", err)
	}

	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[int64(id)] = true
	}
	found := make(map[int64]bool, len(ids))
	sel := &TimeSelection{}
	for i, id := range all {
		if want[id] {
			sel.Indices = append(sel.Indices, i)
			found[id] = true
		}
	}
	for _, id := range ids {
		if !found[int64(id)] {
			d.Warnf("action id %d not found in metadata table", id)
		}
	}
	return sel, nil
}

// normalizeDate canonicalizes a calendar date to YYYY-MM-DD. 8-digit and
// 10-character forms are accepted; anything longer must have been expanded as
// a range before reaching here.
func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 8:
		if _, err := strconv.Atoi(s); err != nil {
			return "", fmt.Errorf("%w: date %q", ErrSelectorType, s)
		}
		return s[0:4] + "-" + s[4:6] + "-" + s[6:8], nil
	case 10:
		return strings.ReplaceAll(s, "/", "-"), nil
	default:
		return "", fmt.Errorf("%w: date %q", ErrSelectorType, s)
	}
}
