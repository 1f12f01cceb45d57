package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDIndex(t *testing.T) {
	idx := NewIDIndex([]string{"46", "000113", "207"})

	row, ok := idx.Lookup("000046")
	assert.True(t, ok)
	assert.Equal(t, 0, row)

	// Lookups canonicalize the query the same way insertion did.
	row, ok = idx.Lookup("113")
	assert.True(t, ok)
	assert.Equal(t, 1, row)

	_, ok = idx.Lookup("999999")
	assert.False(t, ok)

	assert.Equal(t, 3, idx.Len())
}
