package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/models"
)

func TestCompileFilterEmpty(t *testing.T) {
	t.Parallel()

	q, err := compileFilter(models.FilterSpec{}, 0, 201)
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "WHERE")
	assert.NotContains(t, q.SQL, "JOIN")
	assert.Contains(t, q.SQL, "ORDER BY logs.ts_key ASC, logs.id ASC")
	assert.Equal(t, []interface{}{int64(201), int64(0)}, q.Args)
}

func TestCompileFilterLevels(t *testing.T) {
	t.Parallel()

	q, err := compileFilter(models.FilterSpec{
		Levels: []string{"e", "WARN", "bogus", "E"},
	}, 0, 11)
	require.NoError(t, err)

	// "bogus" dropped, "E" deduped, names normalized to letters.
	assert.Contains(t, q.SQL, "logs.level IN (?,?)")
	assert.Equal(t, []interface{}{"E", "W", int64(11), int64(0)}, q.Args)
}

func TestCompileFilterAllUnknownLevelsMeansNoClause(t *testing.T) {
	t.Parallel()

	q, err := compileFilter(models.FilterSpec{Levels: []string{"bogus", "nope"}}, 0, 11)
	require.NoError(t, err)

	// The projection always selects logs.level; only the WHERE clause
	// must be absent.
	assert.NotContains(t, q.SQL, "logs.level IN")
	assert.NotContains(t, q.SQL, "WHERE")
}

func TestCompileFilterTagPidRange(t *testing.T) {
	t.Parallel()

	pid := 1234
	q, err := compileFilter(models.FilterSpec{
		Tag:     "ActivityManager",
		PID:     &pid,
		StartTs: "08-24 14:00:00.000",
		EndTs:   "08-24 15:00:00.000",
	}, 40, 21)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "logs.tag = ?")
	assert.Contains(t, q.SQL, "logs.pid = ?")
	assert.Contains(t, q.SQL, "logs.ts_key >= ?")
	assert.Contains(t, q.SQL, "logs.ts_key <= ?")

	startKey, ok := mustKey("08-24 14:00:00.000")
	require.True(t, ok)
	endKey, _ := mustKey("08-24 15:00:00.000")
	assert.Equal(t, []interface{}{"ActivityManager", 1234, startKey, endKey, int64(21), int64(40)}, q.Args)
}

func TestCompileFilterBadRangeTimestamp(t *testing.T) {
	t.Parallel()

	_, err := compileFilter(models.FilterSpec{StartTs: "yesterday"}, 0, 11)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = compileFilter(models.FilterSpec{EndTs: "2026-08-24"}, 0, 11)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestCompileFilterIncludeTermsJoinFTS(t *testing.T) {
	t.Parallel()

	q, err := compileFilter(models.FilterSpec{TextTerms: []string{"Bluetooth", "wifi scan"}}, 0, 11)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "JOIN logs_fts ON logs_fts.rowid = logs.id")
	assert.Contains(t, q.SQL, "logs_fts MATCH ?")
	assert.Equal(t, `("Bluetooth") OR ("wifi" "scan")`, q.Args[0])
}

func TestCompileFilterLegacyTextAlias(t *testing.T) {
	t.Parallel()

	q, err := compileFilter(models.FilterSpec{Text: "Bluetooth"}, 0, 11)
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "logs_fts MATCH ?")
	assert.Equal(t, `("Bluetooth")`, q.Args[0])
}

func TestCompileFilterExcludeTermsWithoutInclude(t *testing.T) {
	t.Parallel()

	// The NOT IN subquery must appear even when no include-join exists.
	q, err := compileFilter(models.FilterSpec{TextExcludes: []string{"chatty"}}, 0, 11)
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "JOIN")
	assert.Contains(t, q.SQL, "logs.id NOT IN (SELECT rowid FROM logs_fts WHERE logs_fts MATCH ?)")
	assert.Equal(t, `("chatty")`, q.Args[0])
}

func TestCompileFilterIncludeAndExclude(t *testing.T) {
	t.Parallel()

	q, err := compileFilter(models.FilterSpec{
		TextTerms:    []string{"Bluetooth"},
		TextExcludes: []string{"chatty"},
	}, 0, 11)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "JOIN logs_fts")
	assert.Contains(t, q.SQL, "NOT IN (SELECT rowid FROM logs_fts")
}

func TestMatchExprNeutralizesFTSSyntax(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		term string
	}{
		{"column filter", "msg:secret"},
		{"near operator", "NEAR(a b)"},
		{"prefix star", "blue*"},
		{"negation", "-Bluetooth"},
		{"quote escape", `a"b`},
		{"parens", "(OR)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			expr := matchExpr([]string{tt.term})

			// Every token must come out double-quoted inside parens, so
			// FTS operators never reach the parser as syntax.
			for _, part := range strings.Split(expr, " OR ") {
				assert.True(t, strings.HasPrefix(part, `("`), "part %q not quoted", part)
				assert.True(t, strings.HasSuffix(part, `")`), "part %q not quoted", part)
			}
		})
	}
}

func TestMatchExprPurePunctuation(t *testing.T) {
	t.Parallel()

	// Nothing tokenizable: must compile to a match-nothing phrase, not
	// an FTS syntax error.
	assert.Equal(t, `""`, matchExpr([]string{"***"}))
}

func mustKey(ts string) (uint64, bool) {
	q, err := compileFilter(models.FilterSpec{StartTs: ts}, 0, 1)
	if err != nil {
		return 0, false
	}
	return q.Args[0].(uint64), true
}
