package symgroup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterAnchoredMatch(t *testing.T) {
	f, err := NewFilter([]string{"add"})
	require.NoError(t, err)

	assert.True(t, f.Match("add"))
	assert.False(t, f.Match("adder"))
	assert.False(t, f.Match("badd"))
}

func TestFilterHitCounters(t *testing.T) {
	f, err := NewFilter([]string{"add.*", "sub", "never_.*"})
	require.NoError(t, err)

	f.Match("add")
	f.Match("adder")
	f.Match("sub")
	f.Match("unrelated")

	stats := f.Stats()
	require.Len(t, stats, 3)
	assert.Equal(t, PatternStat{Pattern: "add.*", Hits: 2}, stats[0])
	assert.Equal(t, PatternStat{Pattern: "sub", Hits: 1}, stats[1])
	assert.Equal(t, PatternStat{Pattern: "never_.*", Hits: 0}, stats[2])
}

func TestFilterAllMatchingPatternsCount(t *testing.T) {
	f, err := NewFilter([]string{"a.*", ".*b"})
	require.NoError(t, err)

	assert.True(t, f.Match("ab"))
	stats := f.Stats()
	assert.Equal(t, 1, stats[0].Hits)
	assert.Equal(t, 1, stats[1].Hits)
}

func TestFilterBadPattern(t *testing.T) {
	_, err := NewFilter([]string{"("})
	assert.Error(t, err)
}

func TestLoadFilterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.txt")
	require.NoError(t, os.WriteFile(path, []byte("add.*\n\nmul\n"), 0o644))

	f, err := LoadFilter(path)
	require.NoError(t, err)
	assert.True(t, f.Match("add2"))
	assert.True(t, f.Match("mul"))
	assert.False(t, f.Match("div"))
	require.Len(t, f.Stats(), 2)
}

func TestLoadFilterMissingFile(t *testing.T) {
	_, err := LoadFilter(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
