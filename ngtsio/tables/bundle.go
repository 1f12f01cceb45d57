package tables

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const memberExt = ".parquet"

// bundle maps member names to the parquet files backing them. A bundle is a
// directory of parquet files; a path that names a single parquet file is
// treated as a bundle with exactly one member.
type bundle struct {
	dir     string
	order   []string
	members map[string]string
}

func openBundle(path string) (*bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle %s: %w", path, err)
	}

	b := &bundle{dir: path, members: make(map[string]string)}

	if !info.IsDir() {
		name := memberName(path)
		b.members[name] = path
		b.order = []string{name}
		return b, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundle %s: %w", path, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), memberExt) {
			continue
		}
		name := memberName(e.Name())
		b.members[name] = filepath.Join(path, e.Name())
		b.order = append(b.order, name)
	}
	sort.Strings(b.order)
	if len(b.order) == 0 {
		return nil, fmt.Errorf("bundle %s contains no members", path)
	}
	return b, nil
}

// memberName derives the member name from a file name: the upper-cased stem,
// e.g. "catalogue.parquet" -> "CATALOGUE".
func memberName(p string) string {
	base := filepath.Base(p)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
