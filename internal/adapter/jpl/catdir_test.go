package jpl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatdir = ` 28001 CO              91    2.0369  1.9123  1.7370  1.4386  1.1429  0.8526  0.5733   4
 18003 H2O            505    2.2507  2.1111  1.9175  1.5984  1.2801  0.9882  0.7166   5
 32003 CH3OH        19887    3.5837  3.3879  3.1219  2.6348  2.2261  1.8741  1.5452   4
`

func TestParseCatdir(t *testing.T) {
	table, err := ParseCatdir([]byte(testCatdir))
	require.NoError(t, err)

	assert.Equal(t, []float64{300, 225, 150, 75, 37.5, 18.75, 9.375}, table.Temperatures)
	require.Len(t, table.Entries, 3)

	co := table.Entries[0]
	assert.Equal(t, 28001, co.Tag)
	assert.Equal(t, "CO", co.Name)
	assert.Equal(t, 91, co.LineCount)
	require.Len(t, co.LogQ, 7)
	assert.Equal(t, 2.0369, co.LogQ[0])
	assert.Equal(t, 0.5733, co.LogQ[6])

	assert.Equal(t, "H2O", table.Entries[1].Name)
	assert.Equal(t, 19887, table.Entries[2].LineCount)
}

func TestParseCatdir_ResolvesAndSeeds(t *testing.T) {
	table, err := ParseCatdir([]byte(testCatdir))
	require.NoError(t, err)

	entry, err := table.ResolveTag(-28001)
	require.NoError(t, err)
	assert.Equal(t, "CO", entry.Name)

	temps, values := table.PartitionSeed(entry)
	require.Len(t, temps, 7)
	assert.Equal(t, 9.375, temps[0])
	assert.Equal(t, 300.0, temps[6])
	assert.InEpsilon(t, 108.87, values[6], 1e-3) // 10^2.0369
}

func TestParseCatdir_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ParseCatdir([]byte("\n  \n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no entries")
	})

	t.Run("short line", func(t *testing.T) {
		_, err := ParseCatdir([]byte(" 28001 CO\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("bad tag", func(t *testing.T) {
		bad := strings.Replace(testCatdir, " 28001", "abcdef", 1)
		_, err := ParseCatdir([]byte(bad))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tag")
	})

	t.Run("missing lg(Q) columns", func(t *testing.T) {
		_, err := ParseCatdir([]byte(" 28001 CO              91    2.0369  1.9123\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lg(Q)")
	})

	t.Run("bad lg(Q) value", func(t *testing.T) {
		bad := strings.Replace(testCatdir, "1.9123", "x.9123", 1)
		_, err := ParseCatdir([]byte(bad))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lg(Q) column 2")
	})
}
