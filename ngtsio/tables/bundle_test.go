package tables

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
	return path
}

func TestNewOpener(t *testing.T) {
	for _, backend := range []string{"", "parquet", "arrow"} {
		op, err := NewOpener(backend)
		require.NoError(t, err, "backend %q", backend)
		assert.NotNil(t, op)
	}

	_, err := NewOpener("hdf5")
	assert.ErrorIs(t, err, ErrReaderBackend)
}

func TestOpenBundleDirectory(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "catalogue.parquet")
	writeStub(t, dir, "hjd.parquet")
	writeStub(t, dir, "flux.parquet")
	writeStub(t, dir, "notes.txt") // non-member files are ignored

	op, err := NewOpener("parquet")
	require.NoError(t, err)
	tbl, err := op.Open(dir)
	require.NoError(t, err)
	defer tbl.Close()

	assert.Equal(t, []string{"CATALOGUE", "FLUX", "HJD"}, tbl.Members())
	assert.True(t, tbl.HasMember("HJD"))
	assert.False(t, tbl.HasMember("NOTES"))
}

func TestOpenBundleSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeStub(t, dir, "dilution.parquet")

	op, err := NewOpener("parquet")
	require.NoError(t, err)
	tbl, err := op.Open(path)
	require.NoError(t, err)
	defer tbl.Close()

	assert.Equal(t, []string{"DILUTION"}, tbl.Members())
}

func TestOpenBundleErrors(t *testing.T) {
	op, err := NewOpener("parquet")
	require.NoError(t, err)

	_, err = op.Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = op.Open(t.TempDir())
	assert.Error(t, err, "a directory with no members is not a bundle")
}

func TestMemberNotFound(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "hjd.parquet")

	op, err := NewOpener("parquet")
	require.NoError(t, err)
	tbl, err := op.Open(dir)
	require.NoError(t, err)
	defer tbl.Close()

	_, err = tbl.Columns("CATALOGUE")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "CATALOGUE", memberName("/data/bundle/catalogue.parquet"))
	assert.Equal(t, "SYSREM_FLUX3", memberName("sysrem_flux3.parquet"))
}
