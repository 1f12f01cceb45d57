package tables

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// CanvasTable is a free-form whitespace-delimited companion table keyed by
// object identifier. The first line is the header; non-numeric cells read as
// NaN. Identifiers are kept verbatim; callers canonicalize them.
type CanvasTable struct {
	IDs     []string
	Columns map[string][]float64
	order   []string
}

const canvasIDColumn = "OBJ_ID"

// ReadCanvas parses the companion file at path.
func ReadCanvas(path string) (*CanvasTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open companion table %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("companion table %s is empty", path)
	}
	header := strings.Fields(strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "#"))
	if len(header) == 0 {
		return nil, fmt.Errorf("companion table %s has no header", path)
	}

	idCol := -1
	for i, name := range header {
		if name == canvasIDColumn {
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("companion table %s has no %s column", path, canvasIDColumn)
	}

	ct := &CanvasTable{Columns: make(map[string][]float64)}
	for _, name := range header {
		if name != canvasIDColumn {
			ct.order = append(ct.order, name)
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(header) {
			return nil, fmt.Errorf("companion table %s: row has %d fields, header has %d", path, len(fields), len(header))
		}
		ct.IDs = append(ct.IDs, fields[idCol])
		for i, name := range header {
			if i == idCol {
				continue
			}
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				v = math.NaN()
			}
			ct.Columns[name] = append(ct.Columns[name], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read companion table %s: %w", path, err)
	}
	return ct, nil
}

// ColumnNames lists the data columns in header order, identifier excluded.
func (ct *CanvasTable) ColumnNames() []string { return ct.order }
