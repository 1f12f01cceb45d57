package selection

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const rangeDelimiter = ":"

// SplitRange splits a compact "A:B" range string into its endpoints.
func SplitRange(s string) (string, string, error) {
	parts := strings.Split(s, rangeDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrRangeFormat, s)
	}
	return parts[0], parts[1], nil
}

// ExpandDateRange enumerates every whole day from the start date up to but
// excluding the end date, as normalized YYYY-MM-DD strings. Endpoints accept
// the same 8-digit and 10-character forms as single date selectors.
func ExpandDateRange(s string) ([]string, error) {
	startStr, endStr, err := SplitRange(s)
	if err != nil {
		return nil, err
	}
	start, err := parseRangeDate(startStr)
	if err != nil {
		return nil, err
	}
	end, err := parseRangeDate(endStr)
	if err != nil {
		return nil, err
	}

	var out []string
	for cur := start; cur.Before(end); cur = cur.AddDate(0, 0, 1) {
		out = append(out, cur.Format("2006-01-02"))
	}
	return out, nil
}

// ExpandActionIDRange enumerates every integer from A through B inclusive.
// The asymmetry with date ranges (inclusive vs exclusive end) is deliberate.
func ExpandActionIDRange(s string) ([]int, error) {
	startStr, endStr, err := SplitRange(s)
	if err != nil {
		return nil, err
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRangeFormat, s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRangeFormat, s)
	}

	var out []int
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out, nil
}

func parseRangeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 8:
		t, err := time.Parse("20060102", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrRangeFormat, s)
		}
		return t, nil
	case 10:
		t, err := time.Parse("2006-01-02", strings.ReplaceAll(s, "/", "-"))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrRangeFormat, s)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrRangeFormat, s)
	}
}
