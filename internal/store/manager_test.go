package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/models"
)

func testManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(t.TempDir(), testLogger())
	require.NoError(t, err)
	return m
}

func testMeta(reportID string) *models.IndexMetadata {
	return &models.IndexMetadata{
		FormatVersion: FormatVersion,
		ReportID:      reportID,
		SourcePath:    "/tmp/bugreport.zip",
		SourceSize:    1024,
		TotalRows:     2,
		MinTs:         "08-24 14:22:33.123",
		MaxTs:         "08-24 14:22:34.000",
		Levels:        map[models.Level]int64{models.LevelError: 1, models.LevelInfo: 1},
	}
}

func TestReportIDDeterministic(t *testing.T) {
	t.Parallel()

	a, err := ReportID("/tmp/bugreport.zip")
	require.NoError(t, err)
	b, err := ReportID("/tmp/bugreport.zip")
	require.NoError(t, err)
	c, err := ReportID("/tmp/other.zip")
	require.NoError(t, err)

	assert.Equal(t, a, b, "same path, same cache slot")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16, "fnv64a hex")
}

func TestMetaRoundtrip(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	meta := testMeta("00aa00aa00aa00aa")

	require.NoError(t, os.MkdirAll(m.ReportDir(meta.ReportID), 0755))
	require.NoError(t, m.WriteMeta(meta))

	loaded, err := m.LoadMeta(meta.ReportID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, meta.TotalRows, loaded.TotalRows)
	assert.Equal(t, meta.Levels, loaded.Levels)
}

func TestLoadMetaMissingIsNoCache(t *testing.T) {
	t.Parallel()

	m := testManager(t)

	meta, err := m.LoadMeta("deadbeefdeadbeef")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestLoadMetaCorruptSelfHeals(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	reportID := "00aa00aa00aa00aa"

	require.NoError(t, os.MkdirAll(m.ReportDir(reportID), 0755))
	require.NoError(t, os.WriteFile(m.MetaPath(reportID), []byte("{not json"), 0644))

	meta, err := m.LoadMeta(reportID)
	require.NoError(t, err, "corrupt metadata must not surface as an error")
	assert.Nil(t, meta)

	_, statErr := os.Stat(m.MetaPath(reportID))
	assert.True(t, os.IsNotExist(statErr), "corrupt sidecar must be removed")
}

func TestLoadMetaOldFormatVersionIsStale(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	meta := testMeta("00aa00aa00aa00aa")
	meta.FormatVersion = FormatVersion - 1

	require.NoError(t, os.MkdirAll(m.ReportDir(meta.ReportID), 0755))
	require.NoError(t, m.WriteMeta(meta))

	loaded, err := m.LoadMeta(meta.ReportID)
	require.NoError(t, err)
	assert.Nil(t, loaded, "old format must read as no cache")
}

func TestListReportsSkipsIncompleteEntries(t *testing.T) {
	t.Parallel()

	m := testManager(t)

	// Complete entry: sidecar + index file.
	complete := testMeta("1111111111111111")
	require.NoError(t, os.MkdirAll(m.ReportDir(complete.ReportID), 0755))
	require.NoError(t, m.WriteMeta(complete))
	require.NoError(t, os.WriteFile(m.DBPath(complete.ReportID), []byte("db"), 0644))

	// Sidecar without index: treated as no cache.
	orphanMeta := testMeta("2222222222222222")
	require.NoError(t, os.MkdirAll(m.ReportDir(orphanMeta.ReportID), 0755))
	require.NoError(t, m.WriteMeta(orphanMeta))

	// Index without sidecar: same.
	require.NoError(t, os.MkdirAll(m.ReportDir("3333333333333333"), 0755))
	require.NoError(t, os.WriteFile(m.DBPath("3333333333333333"), []byte("db"), 0644))

	reports, err := m.ListReports()
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, complete.ReportID, reports[0].ReportID)
}

func TestDeleteReportSafetyCheck(t *testing.T) {
	t.Parallel()

	m := testManager(t)

	err := m.DeleteReport("../..")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrValidation))

	err = m.DeleteReport("")
	require.Error(t, err)
}

func TestDeleteIndexRemovesWALCompanions(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	reportID := "00aa00aa00aa00aa"
	require.NoError(t, os.MkdirAll(m.ReportDir(reportID), 0755))

	base := m.DBPath(reportID)
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	require.NoError(t, m.DeleteIndex(reportID))

	entries, err := os.ReadDir(m.ReportDir(reportID))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenReadMissingIndex(t *testing.T) {
	t.Parallel()

	m := testManager(t)

	_, err := m.OpenRead("deadbeefdeadbeef")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrIndexNotFound))
}

func TestNewManagerCreatesLayout(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "nested", "cache")
	m, err := NewManager(root, testLogger())
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(m.RootDir, ReportsDir))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
