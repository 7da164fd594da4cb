package models

// ==========================================
// 1. LOG RECORDS
// ==========================================

// Level is a single logcat priority character (V, D, I, W, E, F).
type Level string

const (
	LevelVerbose Level = "V"
	LevelDebug   Level = "D"
	LevelInfo    Level = "I"
	LevelWarn    Level = "W"
	LevelError   Level = "E"
	LevelFatal   Level = "F"
)

// KnownLevels is the allow-list for level filters.
// We use a map for O(1) lookups.
var KnownLevels = map[Level]bool{
	LevelVerbose: true,
	LevelDebug:   true,
	LevelInfo:    true,
	LevelWarn:    true,
	LevelError:   true,
	LevelFatal:   true,
}

// LogRecord is one indexed logcat line.
// ID is assigned by the storage layer; TsKey is 0 when the timestamp
// could not be parsed (the row is still stored with its raw text).
type LogRecord struct {
	ID      int64  `json:"id"`
	TsKey   uint64 `json:"-"`
	TsRaw   string `json:"ts"` // "MM-DD HH:MM:SS.mmm" as it appeared in the source
	Level   Level  `json:"level"`
	Tag     string `json:"tag"`
	PID     int    `json:"pid"`
	TID     int    `json:"tid"`
	Msg     string `json:"msg"`
	RawLine string `json:"raw_line"`
}

// ==========================================
// 2. SUMMARIES & METADATA
// ==========================================

// Summary is what Prepare hands back to callers.
type Summary struct {
	ReportID   string          `json:"report_id"`
	SourcePath string          `json:"source_path"`
	DBPath     string          `json:"db_path"`
	TotalRows  int64           `json:"total_rows"`
	MinTs      string          `json:"min_ts"`
	MaxTs      string          `json:"max_ts"`
	Levels     map[Level]int64 `json:"levels"`
}

// IndexMetadata is the sidecar record persisted next to the index file.
// It embeds the source fingerprint (path, size, mtime) that decides
// cache validity, and is only ever written after a build fully succeeds.
type IndexMetadata struct {
	FormatVersion  int             `json:"format_version"`
	ReportID       string          `json:"report_id"`
	SourcePath     string          `json:"source_path"`
	SourceSize     int64           `json:"source_size"`
	SourceModified int64           `json:"source_modified_unix_ns"`
	TotalRows      int64           `json:"total_rows"`
	MinTs          string          `json:"min_ts"`
	MaxTs          string          `json:"max_ts"`
	Levels         map[Level]int64 `json:"levels"`
	CreatedAt      string          `json:"created_at"` // ISO8601
}

// Summary projects the sidecar into the caller-facing shape.
func (m *IndexMetadata) Summary(dbPath string) Summary {
	return Summary{
		ReportID:   m.ReportID,
		SourcePath: m.SourcePath,
		DBPath:     dbPath,
		TotalRows:  m.TotalRows,
		MinTs:      m.MinTs,
		MaxTs:      m.MaxTs,
		Levels:     m.Levels,
	}
}

// ==========================================
// 3. QUERY FILTERS & PAGES
// ==========================================

// FilterSpec selects rows from an index. Every field is optional;
// the zero value matches everything.
type FilterSpec struct {
	Levels       []string `json:"levels,omitempty"`
	Tag          string   `json:"tag,omitempty"`
	PID          *int     `json:"pid,omitempty"`
	Text         string   `json:"text,omitempty"` // Legacy alias: single include term
	TextTerms    []string `json:"text_terms,omitempty"`
	TextExcludes []string `json:"text_excludes,omitempty"`
	StartTs      string   `json:"start_ts,omitempty"`
	EndTs        string   `json:"end_ts,omitempty"`
}

// IncludeTerms merges the legacy single-term alias into the term list.
func (f FilterSpec) IncludeTerms() []string {
	terms := f.TextTerms
	if f.Text != "" {
		terms = append([]string{f.Text}, terms...)
	}
	return terms
}

// Page is one bounded, ordered slice of query results.
// Rows are always ordered by (ts_key ASC, id ASC) so pagination is
// deterministic across calls.
type Page struct {
	Rows       []LogRecord `json:"rows"`
	HasMore    bool        `json:"has_more"`
	NextOffset int64       `json:"next_offset"`
}
