package store

import (
	"bufio"
	"database/sql"
	"io"
	"log"
	"os"

	"github.com/droidscope/logdex/internal/config"
	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/extract"
	"github.com/droidscope/logdex/internal/logcat"
	"github.com/droidscope/logdex/internal/models"
)

// BuildStats accumulates while streaming: per-level counts and the
// running min/max timestamp. Rows with ts_key 0 (unparsable timestamp)
// are stored but excluded from min/max tracking.
type BuildStats struct {
	TotalRows int64
	Levels    map[models.Level]int64
	MinTs     string
	MaxTs     string

	minKey uint64
	maxKey uint64
}

func newBuildStats() *BuildStats {
	return &BuildStats{Levels: make(map[models.Level]int64)}
}

func (s *BuildStats) observe(rec models.LogRecord) {
	s.TotalRows++
	s.Levels[rec.Level]++

	if rec.TsKey == 0 {
		return
	}
	if s.minKey == 0 || rec.TsKey < s.minKey {
		s.minKey = rec.TsKey
		s.MinTs = rec.TsRaw
	}
	if rec.TsKey > s.maxKey {
		s.maxKey = rec.TsKey
		s.MaxTs = rec.TsRaw
	}
}

// Builder streams a resolved source into a fresh index file.
type Builder struct {
	cfg    config.BuildConfig
	logger *log.Logger
}

func NewBuilder(cfg config.BuildConfig, logger *log.Logger) *Builder {
	return &Builder{cfg: cfg, logger: logger}
}

// Build creates the index at dbPath from src. The target file must not
// exist (the cache manager deletes stale indexes before calling).
//
// Lines stream through a fixed-size read buffer, so peak memory is
// independent of source size; a line longer than the buffer is dropped
// like any other non-logcat line. Accepted rows are inserted into the logs
// table and the FTS table inside one open transaction; the transaction
// commits every cfg.BatchSize rows, plus the final partial batch at
// end-of-stream. Any error aborts the whole build with the partial file
// removed.
func (b *Builder) Build(src *extract.Source, dbPath string) (*BuildStats, error) {
	stream, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errs.IO("create index", err)
	}
	defer db.Close()

	for _, p := range buildPragmas {
		if _, err := db.Exec(p); err != nil {
			b.logger.Printf("Failed to set pragma %q: %v", p, err)
		}
	}

	if _, err := db.Exec(SchemaSQL); err != nil {
		// Clean up so we don't leave a zombie half-created file behind
		db.Close()
		os.Remove(dbPath)
		return nil, errs.IO("apply schema", schemaHint(err))
	}

	stats, err := b.ingest(db, stream)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, err
	}

	return stats, nil
}

// batch is one open transaction with its prepared statements.
type batch struct {
	tx      *sql.Tx
	logStmt *sql.Stmt
	ftsStmt *sql.Stmt
	pending int
}

func beginBatch(db *sql.DB) (*batch, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, errs.IO("begin batch", err)
	}

	logStmt, err := tx.Prepare(
		`INSERT INTO logs (ts_key, ts_raw, level, tag, pid, tid, msg, raw_line)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return nil, errs.IO("prepare insert", err)
	}

	ftsStmt, err := tx.Prepare(
		`INSERT INTO logs_fts (rowid, tag, msg, raw_line) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return nil, errs.IO("prepare fts insert", err)
	}

	return &batch{tx: tx, logStmt: logStmt, ftsStmt: ftsStmt}, nil
}

func (bt *batch) insert(rec models.LogRecord) error {
	res, err := bt.logStmt.Exec(
		rec.TsKey, rec.TsRaw, string(rec.Level), rec.Tag, rec.PID, rec.TID, rec.Msg, rec.RawLine)
	if err != nil {
		return errs.IO("insert row", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errs.IO("row id", err)
	}

	if _, err := bt.ftsStmt.Exec(id, rec.Tag, rec.Msg, rec.RawLine); err != nil {
		return errs.IO("insert fts row", err)
	}

	bt.pending++
	return nil
}

func (bt *batch) commit() error {
	if err := bt.tx.Commit(); err != nil {
		return errs.IO("commit batch", err)
	}
	return nil
}

func (b *Builder) ingest(db *sql.DB, stream io.Reader) (*BuildStats, error) {
	stats := newBuildStats()

	bt, err := beginBatch(db)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReaderSize(stream, b.cfg.ReadBufferBytes)

	for {
		line, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			bt.tx.Rollback()
			return nil, errs.IO("read source", err)
		}

		if isPrefix {
			// Line overflows the read buffer. Bugreports contain huge
			// binary dump lines; those can never be logcat rows, so the
			// whole line is dropped and the stream keeps going.
			if err := discardRestOfLine(reader); err != nil && err != io.EOF {
				bt.tx.Rollback()
				return nil, errs.IO("read source", err)
			}
			continue
		}

		rec, ok := logcat.ParseLine(string(line))
		if !ok {
			// Not a logcat line; bugreports are mostly other dumps.
			continue
		}

		if err := bt.insert(rec); err != nil {
			bt.tx.Rollback()
			return nil, err
		}
		stats.observe(rec)

		if bt.pending >= b.cfg.BatchSize {
			if err := bt.commit(); err != nil {
				return nil, err
			}
			b.logger.Printf("Committed batch (%d rows total)", stats.TotalRows)

			if bt, err = beginBatch(db); err != nil {
				return nil, err
			}
		}
	}

	// Final partial batch
	if err := bt.commit(); err != nil {
		return nil, err
	}

	return stats, nil
}

// discardRestOfLine reads until the line whose first chunk came back
// with isPrefix set is fully consumed.
func discardRestOfLine(r *bufio.Reader) error {
	for {
		_, isPrefix, err := r.ReadLine()
		if err != nil || !isPrefix {
			return err
		}
	}
}
