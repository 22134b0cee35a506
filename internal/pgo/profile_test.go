package pgo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/cscript/internal/models"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCountsParsesPairs(t *testing.T) {
	path := writeProfile(t, "add 120\nmul 3\nparse 999\n")
	counts := ReadCounts(path)

	assert.Equal(t, models.ProfileCounts{"add": 120, "mul": 3, "parse": 999}, counts)
}

func TestReadCountsSumsDuplicates(t *testing.T) {
	path := writeProfile(t, "add 10\nadd 5\n")
	counts := ReadCounts(path)

	assert.Equal(t, uint64(15), counts["add"])
}

func TestReadCountsMissingFileIsEmpty(t *testing.T) {
	counts := ReadCounts(filepath.Join(t.TempDir(), "nope.txt"))

	assert.Empty(t, counts)
}

func TestReadCountsToleratesRaggedWhitespace(t *testing.T) {
	path := writeProfile(t, "  add   12\n\n\tmul 7  ")
	counts := ReadCounts(path)

	assert.Equal(t, uint64(12), counts["add"])
	assert.Equal(t, uint64(7), counts["mul"])
}

func TestSelectHotTopNByCount(t *testing.T) {
	counts := models.ProfileCounts{"a": 5, "b": 50, "c": 500, "d": 1}
	hot := SelectHot(counts, 2)

	assert.True(t, hot.Has("c"))
	assert.True(t, hot.Has("b"))
	assert.False(t, hot.Has("a"))
	assert.False(t, hot.Has("d"))
}

func TestSelectHotExcludesZeroCounts(t *testing.T) {
	counts := models.ProfileCounts{"cold": 0, "warm": 1}
	hot := SelectHot(counts, HotFunctionLimit)

	assert.False(t, hot.Has("cold"))
	assert.True(t, hot.Has("warm"))
	assert.Len(t, hot, 1)
}

func TestSelectHotDeterministicOnTies(t *testing.T) {
	counts := models.ProfileCounts{"zz": 10, "aa": 10, "mm": 10}
	first := SelectHot(counts, 2)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, SelectHot(counts, 2))
	}
	// Ties break by name.
	assert.True(t, first.Has("aa"))
	assert.True(t, first.Has("mm"))
}
