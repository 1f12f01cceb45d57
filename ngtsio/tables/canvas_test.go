package tables

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCanvas(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canvas.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCanvas(t *testing.T) {
	path := writeCanvas(t, `# OBJ_ID PERIOD WIDTH DEPTH
000046 2.5 0.1 0.02
000113 1.0 0.05 n/a

# trailing comment
000207 3.25 0.2 0.01
`)

	ct, err := ReadCanvas(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"000046", "000113", "000207"}, ct.IDs)
	assert.Equal(t, []string{"PERIOD", "WIDTH", "DEPTH"}, ct.ColumnNames())
	assert.Equal(t, []float64{2.5, 1.0, 3.25}, ct.Columns["PERIOD"])

	depth := ct.Columns["DEPTH"]
	require.Len(t, depth, 3)
	assert.Equal(t, 0.02, depth[0])
	assert.True(t, math.IsNaN(depth[1]), "non-numeric cells read as NaN")
}

func TestReadCanvasIDColumnAnywhere(t *testing.T) {
	path := writeCanvas(t, `PERIOD OBJ_ID
2.5 000046
`)
	ct, err := ReadCanvas(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"000046"}, ct.IDs)
	assert.Equal(t, []float64{2.5}, ct.Columns["PERIOD"])
}

func TestReadCanvasErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadCanvas(filepath.Join(t.TempDir(), "missing.txt"))
		assert.Error(t, err)
	})

	t.Run("no identifier column", func(t *testing.T) {
		path := writeCanvas(t, "PERIOD WIDTH\n2.5 0.1\n")
		_, err := ReadCanvas(path)
		assert.ErrorContains(t, err, "OBJ_ID")
	})

	t.Run("ragged row", func(t *testing.T) {
		path := writeCanvas(t, "OBJ_ID PERIOD\n000046 2.5 99\n")
		_, err := ReadCanvas(path)
		assert.ErrorContains(t, err, "fields")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeCanvas(t, "")
		_, err := ReadCanvas(path)
		assert.Error(t, err)
	})
}
