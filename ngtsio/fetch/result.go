package fetch

import "sort"

// Result is the terminal artifact of a Get call: requested field names mapped
// to their values. Value kinds are *mat.Dense for (object x time) fields,
// []float64 / []int64 / []string for per-object or per-exposure fields, and
// float64 / int64 / string scalars after singleton simplification.
type Result struct {
	Fields      map[string]any
	ObjectIDs   []string
	Diagnostics []string
}

// Has reports whether a field made it into the result.
func (r *Result) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// Keys returns the populated field names, sorted.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
