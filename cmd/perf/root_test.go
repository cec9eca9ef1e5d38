package perf

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dSer/cmd/sample"
	"github.com/ValentinKolb/dSer/lib/backend"
	"github.com/ValentinKolb/dSer/lib/config"
	"github.com/ValentinKolb/dSer/lib/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldSkip(t *testing.T) {
	perfSkip = []string{"fastlocal", " zstd ", ""}
	t.Cleanup(func() { perfSkip = nil })

	assert.True(t, shouldSkip(backend.FastID))
	assert.True(t, shouldSkip("zstd"))
	assert.False(t, shouldSkip(backend.PortableID))
	assert.False(t, shouldSkip(""))
}

func TestBenchmarkCase(t *testing.T) {
	if testing.Short() {
		t.Skip("runs real benchmarks")
	}
	perfSkip = []string{string(stats.OpDeserialize)}
	t.Cleanup(func() { perfSkip = nil })

	conf := &config.Config{Backend: backend.StringID, Compression: "lz4"}
	readings := []sample.Reading{sample.NewReading(0), sample.NewReading(1)}
	rec := stats.NewRecorder()

	results, err := benchmarkCase(conf, readings, rec)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "String/lz4 serialize", results[0].name)
	assert.Equal(t, stats.OpSerialize, results[0].op)
	assert.Positive(t, rec.Calls(stats.OpSerialize, "String/lz4"))
	assert.Zero(t, rec.Errors(stats.OpSerialize, "String/lz4"))

	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, writeResultsToCSV(path, results, len(readings)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Test", rows[0][0])
	assert.Equal(t, []string{"String/lz4 serialize", "String", "lz4", "serialize"}, rows[1][:4])
	assert.Equal(t, "2", rows[1][len(rows[1])-1])
}
