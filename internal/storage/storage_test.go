package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"demand-dashboard/internal/dataset"
)

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	// Check if database file was created
	dbPath := filepath.Join(tempDir, "dataset.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir"))
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Failed to close store: %v", err)
	}
}

func TestStore_ImportAndPage(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Source()
	assert.Error(t, err, "nothing imported yet")

	tbl := dataset.SampleTable(40, 3)
	require.NoError(t, store.Import(tbl, ImportMeta{Source: "mem"}))

	src, err := store.Source()
	require.NoError(t, err)
	assert.Equal(t, 40, src.Len())
	assert.Equal(t, tbl.Columns, src.Columns())

	mem := dataset.NewMemory(tbl)
	for _, n := range []int{-1, 1, 2, 3, 4} {
		got, err := src.Page(n, 15)
		require.NoError(t, err)
		want, err := mem.Page(n, 15)
		require.NoError(t, err)
		assert.Equal(t, want, got, "page %d", n)
	}

	_, err = src.Page(1, 0)
	assert.Error(t, err)
}

func TestStore_ImportReplacesRows(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Import(dataset.SampleTable(30, 1), ImportMeta{}))
	small := dataset.Table{Columns: []string{"A"}, Rows: [][]string{{"1"}, {"2"}}}
	require.NoError(t, store.Import(small, ImportMeta{}))

	src, err := store.Source()
	require.NoError(t, err)
	p, err := src.Page(1, 15)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}, {"2"}}, p.Rows)
	assert.Equal(t, 1, p.Pages)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)
	tbl := dataset.SampleTable(20, 9)
	require.NoError(t, store.Import(tbl, ImportMeta{Source: "x.csv", Size: 10}))
	require.NoError(t, store.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	defer reopened.Close()

	meta, ok, err := reopened.Meta()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20, meta.Rows)
	assert.Equal(t, "x.csv", meta.Source)
}

func TestStore_Sync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "DataSet.csv")
	writeCSV(t, path, dataset.SampleTable(25, 5))

	store, err := New(dir)
	require.NoError(t, err)
	defer store.Close()

	meta, imported, err := store.Sync(path, "")
	require.NoError(t, err)
	assert.True(t, imported)
	assert.Equal(t, 25, meta.Rows)
	assert.Equal(t, 25, meta.Summary.Rows)
	assert.False(t, meta.Summary.HourlySample)

	// unchanged file is not imported again
	meta2, imported, err := store.Sync(path, "")
	require.NoError(t, err)
	assert.False(t, imported)
	assert.Equal(t, meta.Summary, meta2.Summary)

	// a new revision is picked up
	writeCSV(t, path, dataset.SampleTable(10, 6))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	meta3, imported, err := store.Sync(path, "")
	require.NoError(t, err)
	assert.True(t, imported)
	assert.Equal(t, 10, meta3.Rows)

	src, err := store.Source()
	require.NoError(t, err)
	assert.Equal(t, 10, src.Len())
}

func TestStore_SyncSheetChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "DataSet.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"A"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"1"}))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]interface{}{"B"}))
	require.NoError(t, f.SetSheetRow("Other", "A2", &[]interface{}{"2"}))
	require.NoError(t, f.SetSheetRow("Other", "A3", &[]interface{}{"3"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	store, err := New(dir)
	require.NoError(t, err)
	defer store.Close()

	meta, imported, err := store.Sync(path, "Sheet1")
	require.NoError(t, err)
	assert.True(t, imported)
	assert.Equal(t, "Sheet1", meta.Sheet)
	assert.Equal(t, []string{"A"}, meta.Columns)

	// same workbook revision, different sheet
	meta, imported, err = store.Sync(path, "Other")
	require.NoError(t, err)
	assert.True(t, imported)
	assert.Equal(t, []string{"B"}, meta.Columns)
	assert.Equal(t, 2, meta.Rows)

	_, imported, err = store.Sync(path, "Other")
	require.NoError(t, err)
	assert.False(t, imported)

	src, err := store.Source()
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, src.Columns())
	assert.Equal(t, 2, src.Len())
}

func TestImportMeta_Matches(t *testing.T) {
	mod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := ImportMeta{Source: "/data/DataSet.xlsx", Sheet: "Sheet1", Size: 100, ModTime: mod}

	assert.True(t, m.Matches("/data/DataSet.xlsx", "Sheet1", 100, mod))
	assert.False(t, m.Matches("/data/DataSet.xlsx", "Other", 100, mod))
	assert.False(t, m.Matches("/data/DataSet.xlsx", "Sheet1", 101, mod))
	assert.False(t, m.Matches("/data/DataSet.xlsx", "Sheet1", 100, mod.Add(time.Second)))
	assert.False(t, m.Matches("/data/Other.xlsx", "Sheet1", 100, mod))
}

func TestStore_SyncMissingFile(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, _, err = store.Sync(filepath.Join(t.TempDir(), "DataSet.xlsx"), "")
	assert.Error(t, err)
}

func writeCSV(t *testing.T, path string, tbl dataset.Table) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dataset.WriteCSV(&buf, tbl))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
