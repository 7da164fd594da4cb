package store

import (
	"database/sql"

	"github.com/droidscope/logdex/internal/config"
	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/models"
)

// QueryEngine runs compiled filters against one open index.
type QueryEngine struct {
	db  *sql.DB
	cfg config.QueryConfig
}

func NewQueryEngine(db *sql.DB, cfg config.QueryConfig) *QueryEngine {
	return &QueryEngine{db: db, cfg: cfg}
}

// Query returns one page of rows matching f, ordered by
// (ts_key ASC, id ASC). The limit is clamped to [1, cfg.MaxLimit] with
// cfg.DefaultLimit substituted for zero. We fetch limit+1 rows; a full
// fetch means more pages exist.
func (q *QueryEngine) Query(f models.FilterSpec, offset, limit int64) (models.Page, error) {
	if offset < 0 {
		offset = 0
	}
	limit = q.clampLimit(limit)

	compiled, err := compileFilter(f, offset, limit+1)
	if err != nil {
		return models.Page{}, err
	}

	rows, err := q.db.Query(compiled.SQL, compiled.Args...)
	if err != nil {
		return models.Page{}, errs.Query("execute filter", err)
	}
	defer rows.Close()

	records := make([]models.LogRecord, 0, limit)
	for rows.Next() {
		var rec models.LogRecord
		var level string
		if err := rows.Scan(&rec.ID, &rec.TsKey, &rec.TsRaw, &level,
			&rec.Tag, &rec.PID, &rec.TID, &rec.Msg, &rec.RawLine); err != nil {
			return models.Page{}, errs.Query("scan row", err)
		}
		rec.Level = models.Level(level)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return models.Page{}, errs.Query("iterate rows", err)
	}

	page := models.Page{Rows: records, NextOffset: offset + int64(len(records))}
	if int64(len(records)) > limit {
		page.Rows = records[:limit]
		page.HasMore = true
		page.NextOffset = offset + limit
	}
	return page, nil
}

func (q *QueryEngine) clampLimit(limit int64) int64 {
	switch {
	case limit <= 0:
		return q.cfg.DefaultLimit
	case limit > q.cfg.MaxLimit:
		return q.cfg.MaxLimit
	default:
		return limit
	}
}
