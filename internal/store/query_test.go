package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidscope/logdex/internal/config"
	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/models"
)

func testQueryConfig() config.QueryConfig {
	return config.QueryConfig{DefaultLimit: 200, MaxLimit: 500}
}

func openFixtureEngine(t *testing.T) *QueryEngine {
	t.Helper()

	dbPath := buildFixture(t, mixedBugreport)
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewQueryEngine(db, testQueryConfig())
}

func TestQueryNoFiltersReturnsAllOrdered(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	page, err := engine.Query(models.FilterSpec{}, 0, 0)
	require.NoError(t, err)

	require.Len(t, page.Rows, 7)
	assert.False(t, page.HasMore)

	for i := 1; i < len(page.Rows); i++ {
		prev, cur := page.Rows[i-1], page.Rows[i]
		ordered := prev.TsKey < cur.TsKey || (prev.TsKey == cur.TsKey && prev.ID < cur.ID)
		assert.True(t, ordered, "rows %d/%d out of order", i-1, i)
	}
}

func TestQueryLevelFilterExact(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	page, err := engine.Query(models.FilterSpec{Levels: []string{"E"}}, 0, 0)
	require.NoError(t, err)

	require.Len(t, page.Rows, 1)
	for _, row := range page.Rows {
		assert.Equal(t, models.LevelError, row.Level)
	}
	assert.Equal(t, "ANR in com.foo", page.Rows[0].Msg)
}

func TestQueryTagAndPid(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)
	pid := 1234

	page, err := engine.Query(models.FilterSpec{Tag: "ActivityManager", PID: &pid}, 0, 0)
	require.NoError(t, err)

	require.Len(t, page.Rows, 3)
	for _, row := range page.Rows {
		assert.Equal(t, "ActivityManager", row.Tag)
		assert.Equal(t, 1234, row.PID)
	}
}

func TestQueryTimeRange(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	page, err := engine.Query(models.FilterSpec{
		StartTs: "08-24 14:22:32.000",
		EndTs:   "08-24 14:22:34.000",
	}, 0, 0)
	require.NoError(t, err)

	require.Len(t, page.Rows, 3)
	assert.Equal(t, "08-24 14:22:32.250", page.Rows[0].TsRaw)
	assert.Equal(t, "08-24 14:22:34.000", page.Rows[2].TsRaw)
}

func TestQueryTextIncludeAndExcludeAreComplementary(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	all, err := engine.Query(models.FilterSpec{}, 0, 0)
	require.NoError(t, err)

	with, err := engine.Query(models.FilterSpec{TextTerms: []string{"Bluetooth"}}, 0, 0)
	require.NoError(t, err)
	without, err := engine.Query(models.FilterSpec{TextExcludes: []string{"Bluetooth"}}, 0, 0)
	require.NoError(t, err)

	require.Len(t, with.Rows, 1)
	assert.Equal(t, "BluetoothAdapter", with.Rows[0].Tag)
	assert.Equal(t, len(all.Rows), len(with.Rows)+len(without.Rows))

	for _, row := range without.Rows {
		assert.NotContains(t, row.RawLine, "Bluetooth")
	}
}

func TestQueryLegacyTextAlias(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	viaAlias, err := engine.Query(models.FilterSpec{Text: "Bluetooth"}, 0, 0)
	require.NoError(t, err)
	viaTerms, err := engine.Query(models.FilterSpec{TextTerms: []string{"Bluetooth"}}, 0, 0)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(viaTerms, viaAlias))
}

func TestQueryPaginationIsContiguous(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	first, err := engine.Query(models.FilterSpec{}, 0, 3)
	require.NoError(t, err)
	require.Len(t, first.Rows, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, int64(3), first.NextOffset)

	second, err := engine.Query(models.FilterSpec{}, first.NextOffset, 3)
	require.NoError(t, err)
	require.Len(t, second.Rows, 3)
	assert.True(t, second.HasMore)

	both, err := engine.Query(models.FilterSpec{}, 0, 6)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(both.Rows, append(append([]models.LogRecord{}, first.Rows...), second.Rows...)))
}

func TestQueryLastPageHasNoMore(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	page, err := engine.Query(models.FilterSpec{}, 6, 3)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, int64(7), page.NextOffset)
}

func TestQueryLimitClamping(t *testing.T) {
	t.Parallel()

	engine := NewQueryEngine(nil, config.QueryConfig{DefaultLimit: 200, MaxLimit: 500})

	assert.Equal(t, int64(200), engine.clampLimit(0))
	assert.Equal(t, int64(200), engine.clampLimit(-5))
	assert.Equal(t, int64(500), engine.clampLimit(9999))
	assert.Equal(t, int64(42), engine.clampLimit(42))
}

func TestQueryInjectionInTermsIsHarmless(t *testing.T) {
	t.Parallel()

	engine := openFixtureEngine(t)

	// FTS syntax in user terms must not produce a query error.
	for _, term := range []string{`msg:ANR`, `NEAR(a b)`, `"ANR`, `ANR OR *`} {
		_, err := engine.Query(models.FilterSpec{TextTerms: []string{term}}, 0, 0)
		assert.NoError(t, err, "term %q", term)
	}
}

func TestQueryMissingIndexErrorKind(t *testing.T) {
	t.Parallel()

	// OpenRead is tested in manager_test; here we just pin the sentinel
	// so the API layer can rely on it.
	assert.True(t, errors.Is(errs.ErrIndexNotFound, errs.ErrQuery))
}
