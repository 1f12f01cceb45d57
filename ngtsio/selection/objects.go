package selection

import (
	"fmt"
	"sort"

	roaring "github.com/RoaringBitmap/roaring"
)

// Object selector keywords. KeywordCandidates selects every object with a row
// in the ranked-candidate table; KeywordCompanion selects every object present
// in the companion dataset.
const (
	KeywordCandidates = "bls"
	KeywordCompanion  = "canvas"
)

var objectKeywords = map[string]bool{
	KeywordCandidates: true,
	KeywordCompanion:  true,
}

// FetchStrategy tells the join engine how to read 2-D measurement members.
type FetchStrategy int

const (
	// FetchAllObjects reads the whole object axis in one wide read.
	FetchAllObjects FetchStrategy = iota
	// FetchSparse reads one window per selected object row.
	FetchSparse
)

// ObjectSelection is the resolved object half of a selection. When All is set
// Indices is nil and IDs still holds every canonical identifier, so downstream
// consumers always receive identifiers. Otherwise Indices and IDs have equal
// length, both sorted ascending with pairwise correspondence.
//
// The pairing step assumes catalogue rows are stored in identifier-sorted
// order; a catalogue with a different row order yields mismatched pairs. This
// is a documented limitation, not silently corrected.
type ObjectSelection struct {
	All     bool
	Indices []int
	IDs     []string
}

// Strategy chooses the 2-D read strategy for this selection.
func (s *ObjectSelection) Strategy() FetchStrategy {
	if s.All {
		return FetchAllObjects
	}
	return FetchSparse
}

// Count returns the number of selected objects given the catalogue size.
func (s *ObjectSelection) Count(catalogueSize int) int {
	if s.All {
		return catalogueSize
	}
	return len(s.Indices)
}

// ObjectSources supplies the identifier columns selector resolution matches
// against. CandidateIDs and CompanionIDs may be nil when the backing source is
// not configured; keyword resolution then degrades to a literal with a
// diagnostic.
type ObjectSources struct {
	CatalogueIDs func() ([]string, error)
	CandidateIDs func() ([]string, error)
	CompanionIDs func() ([]string, error)
}

// ResolveObjects canonicalizes an object selector (objID or objRow, never
// both) into an ObjectSelection against the catalogue identifier column.
func ResolveObjects(src ObjectSources, objID, objRow any, indexing string, d *Diagnostics) (*ObjectSelection, error) {
	if objID != nil && objRow != nil {
		return nil, fmt.Errorf("%w: use either object ids or object rows", ErrConflictingSelector)
	}

	catIDs, err := src.CatalogueIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue identifiers: %w", err)
	}
	catIDs = PadIDs(catIDs)

	if objID == nil && objRow == nil {
		// Select-all marker; identifiers are still fetched eagerly.
		return &ObjectSelection{All: true, IDs: catIDs}, nil
	}

	set := roaring.New()
	if objID != nil {
		if err := resolveByID(src, catIDs, objID, set, d); err != nil {
			return nil, err
		}
	} else {
		if err := resolveByRow(catIDs, objRow, indexing, set, d); err != nil {
			return nil, err
		}
	}

	sel := &ObjectSelection{}
	for _, row := range set.ToArray() {
		sel.Indices = append(sel.Indices, int(row))
		sel.IDs = append(sel.IDs, catIDs[row])
	}
	// Identifiers sort independently of indices; both end up ascending, paired
	// under the identifier-sorted catalogue assumption above.
	sort.Strings(sel.IDs)
	return sel, nil
}

func resolveByID(src ObjectSources, catIDs []string, objID any, set *roaring.Bitmap, d *Diagnostics) error {
	form, err := classify(objID, objectKeywords)
	if err != nil {
		return err
	}

	var ids []string
	switch form {
	case FormKeyword:
		ids = resolveKeyword(src, objID.(string), d)
	case FormFilePath:
		ids, err = loadValueFile(objID.(string))
		if err != nil {
			return err
		}
	default:
		ids, err = asStrings(objID)
		if err != nil {
			return err
		}
	}
	ids = PadIDs(ids)

	idx := NewIDIndex(catIDs)
	for _, id := range ids {
		row, ok := idx.Lookup(id)
		if !ok {
			d.Warnf("object id %s not found in catalogue", id)
			continue
		}
		set.Add(uint32(row))
	}
	return nil
}

func resolveKeyword(src ObjectSources, keyword string, d *Diagnostics) []string {
	var fetch func() ([]string, error)
	switch keyword {
	case KeywordCandidates:
		fetch = src.CandidateIDs
	case KeywordCompanion:
		fetch = src.CompanionIDs
	}
	if fetch == nil {
		d.Warnf("%s source not found or could not be loaded", keyword)
		return []string{keyword}
	}
	ids, err := fetch()
	if err != nil {
		d.Warnf("%s source not found or could not be loaded: %v", keyword, err)
		return []string{keyword}
	}
	return ids
}

func resolveByRow(catIDs []string, objRow any, indexing string, set *roaring.Bitmap, d *Diagnostics) error {
	form, err := classify(objRow, nil)
	if err != nil {
		return err
	}

	var rows []int
	if form == FormFilePath {
		fields, err := loadValueFile(objRow.(string))
		if err != nil {
			return err
		}
		rows, err = asInts(fields)
		if err != nil {
			return err
		}
	} else {
		// Keywords classify as literals here (no keyword set for rows) and
		// fail integer coercion below.
		rows, err = asInts(objRow)
		if err != nil {
			return err
		}
	}

	if indexing == IndexingNative {
		for _, r := range rows {
			if r == 0 {
				d.Warnf("indexing is %q (counting from 1) but a row value of 0 was given; switching to %q for this call", IndexingNative, IndexingZero)
				indexing = IndexingZero
				break
			}
		}
	}

	for _, r := range rows {
		if indexing == IndexingNative {
			r--
		}
		if r < 0 || r >= len(catIDs) {
			d.Warnf("object row %d outside catalogue (size %d)", r, len(catIDs))
			continue
		}
		set.Add(uint32(r))
	}
	return nil
}
