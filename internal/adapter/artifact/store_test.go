package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	return NewStore()
}

func sampleTable(rows int) domain.DrawsTable {
	t := domain.DrawsTable{Columns: []string{"location_id", "sex_id", "age_group_id", "draw_0"}}
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, []float64{1, float64(i%2 + 1), 2, float64(i) / 10})
	}
	return t
}

func TestStore_WriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Global_exposure.pickle")
	want := sampleTable(4)

	require.NoError(t, testStore().Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_WriteCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "India_rr.pkl")

	require.NoError(t, testStore().Write(path, sampleTable(1)))
	assert.FileExists(t, path)
}

func TestStore_WriteFullyReplacesLargerOldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Global_exposure.pickle")
	old := bytes.Repeat([]byte("stale-bytes-"), 10_000)
	require.NoError(t, os.WriteFile(path, old, 0o644))

	small := sampleTable(1)
	require.NoError(t, testStore().Write(path, small))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Less(t, len(data), len(old))
	assert.NotContains(t, string(data), "stale-bytes-")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, small, got)
}

func TestStore_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, testStore().Write(filepath.Join(dir, "x.pickle"), sampleTable(2)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.pickle", entries[0].Name())
	assert.False(t, strings.HasSuffix(entries[0].Name(), ".tmp"))
}

func TestStore_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Global_exposure.pickle")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	s := testStore()
	existed, err := s.Remove(path)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.NoFileExists(t, path)

	existed, err = s.Remove(path)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.pickle"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRead_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pickle")
	require.NoError(t, os.WriteFile(path, []byte{0xc1}, 0o644))

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode artifact")
}
