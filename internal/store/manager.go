package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/natefinch/atomic"

	"github.com/droidscope/logdex/internal/errs"
	"github.com/droidscope/logdex/internal/models"
)

const (
	AppDirName   = ".logdex"
	ReportsDir   = "reports"
	DBFileName   = "logs.db"
	MetaFileName = "meta.json"

	// FormatVersion is stamped into every sidecar. Bump it whenever the
	// schema or the ts_key encoding changes; old indexes then read as
	// stale and get rebuilt instead of misread.
	FormatVersion = 1
)

// Manager handles the physical cache layout: one directory per report_id
// under <root>/reports, each holding the index file and its sidecar.
// The base directory is injected so tests can run against a temp dir.
type Manager struct {
	RootDir string
	logger  *log.Logger
}

// NewManager creates the cache directory structure if it doesn't exist.
// An empty rootDir means "under the user's home".
func NewManager(rootDir string, logger *log.Logger) (*Manager, error) {
	if rootDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not find user home: %w", err)
		}
		rootDir = filepath.Join(home, AppDirName)
	}

	// 0755: Owner can read/write/exec, Group/Others can read/exec
	if err := os.MkdirAll(filepath.Join(rootDir, ReportsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to init cache dir: %w", err)
	}

	return &Manager{RootDir: rootDir, logger: logger}, nil
}

// ReportID derives the deterministic cache key for a source path:
// FNV-1a over the absolute path, hex encoded. Same path, same slot.
func ReportID(sourcePath string) (string, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", errs.Validation("cannot resolve path %s: %v", sourcePath, err)
	}
	h := fnv.New64a()
	h.Write([]byte(abs))
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// ReportDir returns the cache directory for a report_id.
func (m *Manager) ReportDir(reportID string) string {
	return filepath.Join(m.RootDir, ReportsDir, reportID)
}

// DBPath returns the index file location for a report_id.
func (m *Manager) DBPath(reportID string) string {
	return filepath.Join(m.ReportDir(reportID), DBFileName)
}

// MetaPath returns the sidecar location for a report_id.
func (m *Manager) MetaPath(reportID string) string {
	return filepath.Join(m.ReportDir(reportID), MetaFileName)
}

// LoadMeta reads the sidecar for a report_id.
//
// A missing file returns (nil, nil): no cache. A corrupted or
// wrong-version sidecar is self-healed the same way - logged, removed,
// (nil, nil) - because a broken cache entry must force a rebuild, not
// surface as a fatal error.
func (m *Manager) LoadMeta(reportID string) (*models.IndexMetadata, error) {
	path := m.MetaPath(reportID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.IO("read metadata", err)
	}

	var meta models.IndexMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		m.logger.Printf("Corrupt metadata for %s (%v), discarding cache entry", reportID, err)
		_ = os.Remove(path)
		return nil, nil
	}

	if meta.FormatVersion != FormatVersion {
		m.logger.Printf("Index format v%d for %s, current is v%d, discarding cache entry",
			meta.FormatVersion, reportID, FormatVersion)
		_ = os.Remove(path)
		return nil, nil
	}

	return &meta, nil
}

// WriteMeta persists the sidecar atomically. Called only after the index
// build fully succeeds, so a crash mid-build leaves no valid metadata.
func (m *Manager) WriteMeta(meta *models.IndexMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errs.IO("encode metadata", err)
	}
	if err := atomic.WriteFile(m.MetaPath(meta.ReportID), bytes.NewReader(data)); err != nil {
		return errs.IO("write metadata", err)
	}
	return nil
}

// DeleteMeta invalidates the sidecar. Called before a rebuild starts:
// with the sidecar gone, a crash mid-build can never pair stale metadata
// with a half-written index.
func (m *Manager) DeleteMeta(reportID string) error {
	if err := os.Remove(m.MetaPath(reportID)); err != nil && !os.IsNotExist(err) {
		return errs.IO("remove stale metadata", err)
	}
	return nil
}

// DeleteIndex removes the index file and its WAL companions, keeping the
// directory. Used right before a rebuild; the sidecar is overwritten
// only when the rebuild succeeds.
func (m *Manager) DeleteIndex(reportID string) error {
	base := m.DBPath(reportID)
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errs.IO("remove stale index", err)
		}
	}
	return nil
}

// DeleteReport removes the whole cache entry (index + sidecar).
func (m *Manager) DeleteReport(reportID string) error {
	path := m.ReportDir(reportID)

	// Safety check: make sure we are deleting a directory inside our
	// managed folder, in case reportID is malformed.
	cleanPath := filepath.Clean(path)
	expectedPrefix := filepath.Join(m.RootDir, ReportsDir) + string(os.PathSeparator)
	if !strings.HasPrefix(cleanPath, expectedPrefix) {
		return errs.Validation("invalid report id %q", reportID)
	}

	if err := os.RemoveAll(cleanPath); err != nil {
		return errs.IO("remove cache entry", err)
	}
	return nil
}

// ListReports scans the cache for valid entries: directories holding
// both a readable sidecar and the index file it describes. A sidecar
// without its index (or vice versa) is "no cache" and is skipped.
func (m *Manager) ListReports() ([]models.IndexMetadata, error) {
	base := filepath.Join(m.RootDir, ReportsDir)
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, errs.IO("scan cache", err)
	}

	var reports []models.IndexMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := m.LoadMeta(e.Name())
		if err != nil || meta == nil {
			continue
		}
		if _, err := os.Stat(m.DBPath(e.Name())); err != nil {
			continue
		}
		reports = append(reports, *meta)
	}
	return reports, nil
}

// HasIndex reports whether a complete cache entry exists on disk.
func (m *Manager) HasIndex(reportID string) bool {
	if _, err := os.Stat(m.DBPath(reportID)); err != nil {
		return false
	}
	if _, err := os.Stat(m.MetaPath(reportID)); err != nil {
		return false
	}
	return true
}

// OpenRead opens a read-only connection to an existing index. Concurrent
// readers are safe under WAL; writers go through the builder instead.
func (m *Manager) OpenRead(reportID string) (*sql.DB, error) {
	dbPath := m.DBPath(reportID)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: report %s (call prepare first)", errs.ErrIndexNotFound, reportID)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, errs.Query("open index", err)
	}
	return db, nil
}
