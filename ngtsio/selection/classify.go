package selection

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Form is the canonical shape of a selector value. Classification happens
// exactly once, before any matching; nothing downstream probes types again.
type Form int

const (
	FormAbsent Form = iota
	FormLiteral
	FormSequence
	FormFilePath
	FormKeyword
)

// Indexing conventions for row-number selectors.
const (
	// IndexingNative counts rows from 1, the way the source tables do.
	IndexingNative = "native"
	// IndexingZero counts rows from 0.
	IndexingZero = "zero"
)

// IDWidth is the canonical width of an object identifier.
const IDWidth = 6

// classify assigns a selector value one of the five input forms. A string is a
// file path when it names an existing file, a keyword when it appears in
// keywords, and a literal otherwise.
func classify(v any, keywords map[string]bool) (Form, error) {
	switch val := v.(type) {
	case nil:
		return FormAbsent, nil
	case string:
		if _, err := os.Stat(val); err == nil {
			return FormFilePath, nil
		}
		if keywords[val] {
			return FormKeyword, nil
		}
		return FormLiteral, nil
	case int, int32, int64, float32, float64:
		return FormLiteral, nil
	case []string, []int, []int64, []float64, []any:
		return FormSequence, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrSelectorType, v)
	}
}

// PadID canonicalizes one object identifier: trims whitespace and left-pads
// with zeros to IDWidth. '46' -> '000046'.
func PadID(id string) string {
	id = strings.TrimSpace(id)
	for len(id) < IDWidth {
		id = "0" + id
	}
	return id
}

// PadIDs canonicalizes a batch of identifiers.
func PadIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = PadID(id)
	}
	return out
}

// asStrings coerces a literal or sequence selector value to strings. Numeric
// values take their integer string form, so they pad the same way text does.
func asStrings(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case int:
		return []string{strconv.Itoa(val)}, nil
	case int32:
		return []string{strconv.FormatInt(int64(val), 10)}, nil
	case int64:
		return []string{strconv.FormatInt(val, 10)}, nil
	case float32:
		return []string{strconv.FormatInt(int64(val), 10)}, nil
	case float64:
		return []string{strconv.FormatInt(int64(val), 10)}, nil
	case []string:
		return val, nil
	case []int:
		out := make([]string, len(val))
		for i, x := range val {
			out[i] = strconv.Itoa(x)
		}
		return out, nil
	case []int64:
		out := make([]string, len(val))
		for i, x := range val {
			out[i] = strconv.FormatInt(x, 10)
		}
		return out, nil
	case []float64:
		out := make([]string, len(val))
		for i, x := range val {
			out[i] = strconv.FormatInt(int64(x), 10)
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, x := range val {
			s, err := asStrings(x)
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrSelectorType, v)
	}
}

// asInts coerces a literal or sequence selector value to ints. Strings must
// parse as integers.
func asInts(v any) ([]int, error) {
	switch val := v.(type) {
	case int:
		return []int{val}, nil
	case int32:
		return []int{int(val)}, nil
	case int64:
		return []int{int(val)}, nil
	case float32:
		return []int{int(val)}, nil
	case float64:
		return []int{int(val)}, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrSelectorType, val)
		}
		return []int{n}, nil
	case []int:
		return val, nil
	case []int64:
		out := make([]int, len(val))
		for i, x := range val {
			out[i] = int(x)
		}
		return out, nil
	case []float64:
		out := make([]int, len(val))
		for i, x := range val {
			out[i] = int(x)
		}
		return out, nil
	case []string:
		out := make([]int, len(val))
		for i, x := range val {
			n, err := strconv.Atoi(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an integer", ErrSelectorType, x)
			}
			out[i] = n
		}
		return out, nil
	case []any:
		out := make([]int, 0, len(val))
		for _, x := range val {
			n, err := asInts(x)
			if err != nil {
				return nil, err
			}
			out = append(out, n...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrSelectorType, v)
	}
}

// loadValueFile reads a file of whitespace/line-delimited literals. File input
// is purely a source-of-values distinction; the returned fields go through the
// same matching as inline input.
func loadValueFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read selector file %s: %w", path, err)
	}
	return strings.Fields(string(data)), nil
}
