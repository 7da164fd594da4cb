package extract

import (
	"archive/zip"
	"io"
	"os"
	"strings"

	"github.com/droidscope/logdex/internal/errs"
)

// SourceKind tags how the byte-stream is obtained from the path.
type SourceKind string

const (
	KindPlain SourceKind = "plain" // The whole file is the stream
	KindZip   SourceKind = "zip"   // One entry inside an archive is the stream
)

// Source is a resolved log byte-stream. Resolution happens exactly once
// here; downstream consumers only ever see a generic reader.
type Source struct {
	Kind  SourceKind
	Path  string // Filesystem path of the file or archive
	Entry string // Archive entry name; empty for plain sources
	Size  int64  // Uncompressed byte size of the stream
}

// Resolve inspects path and locates the single log byte-stream inside it.
//
// For ".zip" paths we scan all entries for the embedded bugreport text
// (see findBugreportEntry). Any other path is treated as a plain stream:
// non-logcat content in it is filtered out line-by-line during parsing,
// so already-extracted logcat exports work unchanged.
func Resolve(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.IO("stat source", err)
	}
	if !info.Mode().IsRegular() {
		return nil, errs.Validation("source %s is not a regular file", path)
	}

	if !isZipPath(path) {
		return &Source{Kind: KindPlain, Path: path, Size: info.Size()}, nil
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.IO("open archive", err)
	}
	defer r.Close()

	entry, err := findBugreportEntry(&r.Reader)
	if err != nil {
		return nil, err
	}

	return &Source{
		Kind:  KindZip,
		Path:  path,
		Entry: entry.Name,
		Size:  int64(entry.UncompressedSize64),
	}, nil
}

// findBugreportEntry scans the archive for the main bugreport text:
// a ".txt" entry whose lowercased name contains "bugreport" or
// "main_entry". Among candidates the largest uncompressed size wins;
// an equally-sized later entry replaces an earlier one ("size >= best",
// deterministic because archive order is).
func findBugreportEntry(r *zip.Reader) (*zip.File, error) {
	var best *zip.File
	for _, f := range r.File {
		name := strings.ToLower(f.Name)
		if !strings.HasSuffix(name, ".txt") {
			continue
		}
		if !strings.Contains(name, "bugreport") && !strings.Contains(name, "main_entry") {
			continue
		}
		if best == nil || f.UncompressedSize64 >= best.UncompressedSize64 {
			best = f
		}
	}

	if best == nil {
		return nil, errs.Format("no bugreport entry found in archive")
	}
	return best, nil
}

// Open returns the resolved byte-stream. The caller owns the closer.
func (s *Source) Open() (io.ReadCloser, error) {
	switch s.Kind {
	case KindPlain:
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, errs.IO("open source", err)
		}
		return f, nil

	case KindZip:
		r, err := zip.OpenReader(s.Path)
		if err != nil {
			return nil, errs.IO("open archive", err)
		}
		for _, f := range r.File {
			if f.Name != s.Entry {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				r.Close()
				return nil, errs.IO("open archive entry", err)
			}
			return &zipEntryReader{rc: rc, archive: r}, nil
		}
		r.Close()
		return nil, errs.Format("archive entry %q disappeared", s.Entry)
	}

	return nil, errs.Validation("unknown source kind %q", s.Kind)
}

// zipEntryReader closes both the entry and its parent archive.
type zipEntryReader struct {
	rc      io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReader) Read(p []byte) (int, error) { return z.rc.Read(p) }

func (z *zipEntryReader) Close() error {
	entryErr := z.rc.Close()
	archiveErr := z.archive.Close()
	if entryErr != nil {
		return entryErr
	}
	return archiveErr
}
