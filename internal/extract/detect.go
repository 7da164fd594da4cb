package extract

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// isZipPath branches purely on the (lowercased) extension. Content
// sniffing stays advisory: a mislabeled archive fails at open time with
// a descriptive error rather than being silently reinterpreted.
func isZipPath(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".zip"
}

// LooksLikeArchive sniffs the first bytes of a file the way the standard
// library detects uploads. Used by surfaces that want to warn about a
// ".txt" that is actually a zip before a long build is kicked off.
func LooksLikeArchive(headerBytes []byte) bool {
	return http.DetectContentType(headerBytes) == "application/zip"
}

// SniffHeader reads the detection window LooksLikeArchive inspects.
// Read errors degrade to a short or empty header; sniffing is advisory
// and must never fail a build.
func SniffHeader(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := io.ReadFull(f, buf)
	return buf[:n]
}
