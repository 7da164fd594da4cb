package store

import (
	"strings"

	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/logcat"
	"github.com/droidscope/logdex/internal/models"
)

// Filter compilation is kept apart from execution so it can be unit
// tested without a database: a FilterSpec compiles to an ordered clause
// list plus a positional parameter vector, nothing engine-specific.

// compiledQuery is the SQL a FilterSpec compiles down to.
type compiledQuery struct {
	SQL  string
	Args []interface{}
}

// whereBuilder collects conjunctive clauses with positional args.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *whereBuilder) where() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// compileFilter turns a FilterSpec into the paged SELECT for one index.
// fetchLimit should already include the +1 lookahead row.
func compileFilter(f models.FilterSpec, offset, fetchLimit int64) (compiledQuery, error) {
	var w whereBuilder

	// 1. Levels: normalize against the known set, drop unknowns.
	// An input set that normalizes to empty means "no restriction".
	if levels := normalizeLevels(f.Levels); len(levels) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(levels)), ",")
		w.add("logs.level IN ("+placeholders+")")
		for _, l := range levels {
			w.args = append(w.args, string(l))
		}
	}

	// 2. Exact matches
	if f.Tag != "" {
		w.add("logs.tag = ?", f.Tag)
	}
	if f.PID != nil {
		w.add("logs.pid = ?", *f.PID)
	}

	// 3. Time range, re-encoded through the same key encoder the
	// builder used, so string comparison never enters the picture.
	if f.StartTs != "" {
		key, ok := logcat.EncodeTsKey(f.StartTs)
		if !ok {
			return compiledQuery{}, errs.Validation("invalid start_ts %q (want MM-DD HH:MM:SS.mmm)", f.StartTs)
		}
		w.add("logs.ts_key >= ?", key)
	}
	if f.EndTs != "" {
		key, ok := logcat.EncodeTsKey(f.EndTs)
		if !ok {
			return compiledQuery{}, errs.Validation("invalid end_ts %q (want MM-DD HH:MM:SS.mmm)", f.EndTs)
		}
		w.add("logs.ts_key <= ?", key)
	}

	// 4. Full-text includes: join the FTS table and MATCH an OR of
	// per-term expressions. Terms are quoted token-by-token so user
	// input can't smuggle FTS query syntax in.
	join := ""
	if include := f.IncludeTerms(); len(include) > 0 {
		join = " JOIN logs_fts ON logs_fts.rowid = logs.id"
		w.add("logs_fts MATCH ?", matchExpr(include))
	}

	// 5. Full-text excludes: subquery NOT IN, independent of whether an
	// include-join was added.
	if len(f.TextExcludes) > 0 {
		w.add("logs.id NOT IN (SELECT rowid FROM logs_fts WHERE logs_fts MATCH ?)",
			matchExpr(f.TextExcludes))
	}

	sqlText := `SELECT logs.id, logs.ts_key, logs.ts_raw, logs.level, logs.tag, logs.pid, logs.tid, logs.msg, logs.raw_line FROM logs` +
		join + w.where() +
		" ORDER BY logs.ts_key ASC, logs.id ASC LIMIT ? OFFSET ?"
	args := append(w.args, fetchLimit, offset)

	return compiledQuery{SQL: sqlText, Args: args}, nil
}

// normalizeLevels maps user input onto the fixed level set. Accepts the
// single-letter form and the spelled-out names, case-insensitive;
// anything else is dropped. Duplicates collapse.
func normalizeLevels(in []string) []models.Level {
	var out []models.Level
	seen := make(map[models.Level]bool)
	for _, raw := range in {
		l := canonicalLevel(raw)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func canonicalLevel(raw string) models.Level {
	up := strings.ToUpper(strings.TrimSpace(raw))
	switch up {
	case "VERBOSE":
		return models.LevelVerbose
	case "DEBUG":
		return models.LevelDebug
	case "INFO":
		return models.LevelInfo
	case "WARN", "WARNING":
		return models.LevelWarn
	case "ERROR":
		return models.LevelError
	case "FATAL":
		return models.LevelFatal
	}
	if l := models.Level(up); models.KnownLevels[l] {
		return l
	}
	return ""
}

// matchExpr builds an FTS5 MATCH expression: an OR of per-term phrase
// queries. Each term is split into alphanumeric tokens and every token
// double-quoted, which neutralizes FTS operators (NEAR, *, -, :) that
// could otherwise be injected through user input.
func matchExpr(terms []string) string {
	var parts []string
	for _, term := range terms {
		tokens := splitTokens(term)
		if len(tokens) == 0 {
			continue
		}
		quoted := make([]string, len(tokens))
		for i, tok := range tokens {
			quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
		}
		parts = append(parts, "("+strings.Join(quoted, " ")+")")
	}
	if len(parts) == 0 {
		// A term list of pure punctuation can't match anything; give
		// FTS a phrase no tokenizer output equals.
		return `""`
	}
	return strings.Join(parts, " OR ")
}

// splitTokens breaks a term on anything the default unicode61 tokenizer
// would break on, so a quoted phrase of our tokens lines up with the
// indexed token stream.
func splitTokens(term string) []string {
	return strings.FieldsFunc(term, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r >= 0x80: // Leave non-ASCII to FTS; unicode61 keeps most of it
			return false
		}
		return true
	})
}
