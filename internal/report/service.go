package report

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/droidscope/logdex/internal/config"
	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/extract"
	"github.com/droidscope/logdex/internal/models"
	"github.com/droidscope/logdex/internal/store"
)

// Service is the cache manager: it decides per call whether a report's
// index is fresh or stale, rebuilds on miss, and serves queries from the
// on-disk index. Decisions are made freshly on every Prepare; there is
// no background invalidation or file watcher.
type Service struct {
	mgr     *store.Manager
	builder *store.Builder
	cfg     config.SystemConfig
	logger  *log.Logger
	locks   *keyedLocks
}

func NewService(cfg config.SystemConfig, logger *log.Logger) (*Service, error) {
	mgr, err := store.NewManager(cfg.CacheDir, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		mgr:     mgr,
		builder: store.NewBuilder(cfg.Build, logger),
		cfg:     cfg,
		logger:  logger,
		locks:   newKeyedLocks(),
	}, nil
}

// CacheRoot returns where indexes live, for status surfaces.
func (s *Service) CacheRoot() string { return s.mgr.RootDir }

// Prepare resolves sourcePath to a queryable index and returns its
// summary. Cache hit: the stored fingerprint (path, size, mtime) matches
// the file and the index exists, so the source is not re-scanned.
// Cache miss: the stale index is deleted, the source is streamed into a
// fresh index, and the metadata sidecar is written last - a crash
// mid-build leaves no valid metadata and the next call rebuilds.
//
// Builds for the same report_id serialize on an in-process lock, so two
// concurrent Prepare calls cannot interleave writes to one index file.
func (s *Service) Prepare(sourcePath, traceID string) (models.Summary, error) {
	if sourcePath == "" {
		return models.Summary{}, errs.Validation("source path is required")
	}

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return models.Summary{}, errs.Validation("cannot resolve path %s: %v", sourcePath, err)
	}

	reportID, err := store.ReportID(abs)
	if err != nil {
		return models.Summary{}, err
	}

	lock := s.locks.acquire(reportID)
	defer lock.Unlock()

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Summary{}, errs.Validation("source %s does not exist", abs)
		}
		return models.Summary{}, errs.IO("stat source", err)
	}
	if !info.Mode().IsRegular() {
		return models.Summary{}, errs.Validation("source %s is not a regular file", abs)
	}

	// 1. Fresh? Fingerprint match plus index on disk means we never
	// touch the source again.
	meta, err := s.mgr.LoadMeta(reportID)
	if err != nil {
		return models.Summary{}, err
	}
	if meta != nil &&
		meta.SourcePath == abs &&
		meta.SourceSize == info.Size() &&
		meta.SourceModified == info.ModTime().UnixNano() {
		if _, statErr := os.Stat(s.mgr.DBPath(reportID)); statErr == nil {
			s.logger.Printf("[%s] Cache hit for %s (report %s)", traceID, abs, reportID)
			return meta.Summary(s.mgr.DBPath(reportID)), nil
		}
	}

	// 2. Stale: rebuild from scratch.
	s.logger.Printf("[%s] Building index for %s (report %s)", traceID, abs, reportID)
	return s.rebuild(reportID, abs, info)
}

func (s *Service) rebuild(reportID, abs string, info os.FileInfo) (models.Summary, error) {
	if err := os.MkdirAll(s.mgr.ReportDir(reportID), 0755); err != nil {
		return models.Summary{}, errs.IO("create cache dir", err)
	}
	// Sidecar first, then the index: from here on there is no valid
	// cache entry until WriteMeta at the very end.
	if err := s.mgr.DeleteMeta(reportID); err != nil {
		return models.Summary{}, err
	}
	if err := s.mgr.DeleteIndex(reportID); err != nil {
		return models.Summary{}, err
	}

	src, err := extract.Resolve(abs)
	if err != nil {
		return models.Summary{}, err
	}
	switch src.Kind {
	case extract.KindZip:
		s.logger.Printf("Selected archive entry %q (%d bytes)", src.Entry, src.Size)
	case extract.KindPlain:
		// Extension decides the kind; sniffing only warns, so a
		// mislabeled bundle shows up in the log instead of as a
		// mysteriously empty index.
		if extract.LooksLikeArchive(extract.SniffHeader(abs)) {
			s.logger.Printf("Source %s has no .zip extension but looks like a zip archive; indexing its raw bytes", abs)
		}
	}

	start := time.Now()
	stats, err := s.builder.Build(src, s.mgr.DBPath(reportID))
	if err != nil {
		// The old index is already gone; the cache entry is now
		// "missing" and the next Prepare rebuilds from scratch.
		return models.Summary{}, err
	}

	meta := &models.IndexMetadata{
		FormatVersion:  store.FormatVersion,
		ReportID:       reportID,
		SourcePath:     abs,
		SourceSize:     info.Size(),
		SourceModified: info.ModTime().UnixNano(),
		TotalRows:      stats.TotalRows,
		MinTs:          stats.MinTs,
		MaxTs:          stats.MaxTs,
		Levels:         stats.Levels,
		CreatedAt:      time.Now().Format(time.RFC3339),
	}

	// Written last: metadata only ever describes a complete index.
	if err := s.mgr.WriteMeta(meta); err != nil {
		return models.Summary{}, err
	}

	s.logger.Printf("Indexed %d rows in %s", stats.TotalRows, time.Since(start).Round(time.Millisecond))
	return meta.Summary(s.mgr.DBPath(reportID)), nil
}

// Query runs one filtered page against an already-built index. Each call
// gets its own read-only connection; concurrent readers are safe under
// WAL. A missing index is reported as "call prepare first", never as an
// empty page.
func (s *Service) Query(reportID string, f models.FilterSpec, offset, limit int64) (models.Page, error) {
	db, err := s.mgr.OpenRead(reportID)
	if err != nil {
		return models.Page{}, err
	}
	defer db.Close()

	return store.NewQueryEngine(db, s.cfg.Query).Query(f, offset, limit)
}

// List returns the sidecars of every complete cache entry.
func (s *Service) List() ([]models.IndexMetadata, error) {
	return s.mgr.ListReports()
}

// Delete drops a cache entry entirely.
func (s *Service) Delete(reportID string) error {
	lock := s.locks.acquire(reportID)
	defer lock.Unlock()

	if !s.mgr.HasIndex(reportID) {
		return errs.Validation("no cached report %s", reportID)
	}
	return s.mgr.DeleteReport(reportID)
}
