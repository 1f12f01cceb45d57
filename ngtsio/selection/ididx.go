package selection

import (
	radix "github.com/armon/go-radix"
)

// IDIndex maps canonical object identifiers to catalogue row indices using a
// compressed radix tree, giving O(k) exact lookups during cross-referencing.
type IDIndex struct {
	tree *radix.Tree
}

// NewIDIndex builds the index from identifiers in canonical row order. The
// inputs are canonicalized before insertion.
func NewIDIndex(ids []string) *IDIndex {
	t := radix.New()
	for i, id := range ids {
		t.Insert(PadID(id), i)
	}
	return &IDIndex{tree: t}
}

// Lookup returns the catalogue row index of a canonical identifier.
func (x *IDIndex) Lookup(id string) (int, bool) {
	v, ok := x.tree.Get(PadID(id))
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// Len returns the number of indexed identifiers.
func (x *IDIndex) Len() int { return x.tree.Len() }
