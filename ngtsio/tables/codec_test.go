package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codecFixtureRow struct {
	Name string  `parquet:"NAME"`
	Val  float64 `parquet:"VAL"`
}

// writeCodecFixture writes a small three-row member file both backends can
// read, so their row-selection behavior can be compared directly.
func writeCodecFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogue.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[codecFixtureRow](f)
	_, err = w.Write([]codecFixtureRow{
		{Name: "a", Val: 1.1},
		{Name: "b", Val: 1.2},
		{Name: "c", Val: 1.3},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func codecsUnderTest() map[string]codec {
	return map[string]codec{
		"parquet": parquetCodec{},
		"arrow":   arrowCodec{},
	}
}

func TestCodecReadRequestOrder(t *testing.T) {
	path := writeCodecFixture(t)

	for name, c := range codecsUnderTest() {
		t.Run(name, func(t *testing.T) {
			blk, err := c.read(path, Rows([]int{2, 0}), []string{"NAME", "VAL"})
			require.NoError(t, err)
			require.Equal(t, 2, blk.N)

			names, ok := blk.Strings("NAME")
			require.True(t, ok)
			assert.Equal(t, []string{"c", "a"}, names, "rows come back in request order, not storage order")

			vals, ok := blk.Floats("VAL")
			require.True(t, ok)
			assert.Equal(t, []float64{1.3, 1.1}, vals)
		})
	}
}

func TestCodecReadDuplicateRows(t *testing.T) {
	path := writeCodecFixture(t)

	for name, c := range codecsUnderTest() {
		t.Run(name, func(t *testing.T) {
			blk, err := c.read(path, Rows([]int{1, 1}), []string{"VAL"})
			require.NoError(t, err)
			require.Equal(t, 2, blk.N)

			vals, ok := blk.Floats("VAL")
			require.True(t, ok)
			assert.Equal(t, []float64{1.2, 1.2}, vals, "a repeated index yields the row twice")
		})
	}
}

func TestCodecReadRowOutOfRange(t *testing.T) {
	path := writeCodecFixture(t)

	for name, c := range codecsUnderTest() {
		t.Run(name, func(t *testing.T) {
			_, err := c.read(path, Rows([]int{1, 7}), []string{"VAL"})
			assert.ErrorIs(t, err, ErrRowOutOfRange)

			_, err = c.read(path, Rows([]int{-1}), []string{"VAL"})
			assert.ErrorIs(t, err, ErrRowOutOfRange)
		})
	}
}
