// Package taskid generates the opaque identifiers analysis results are stored
// under, and the file names they are exported as.
package taskid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	idLength      = 32
	exportPrefix  = "analise-fraude-agrupada-"
	exportLayout  = "2006-01-02_150405"
	groupedSuffix = "-agrupado.xlsx"
)

// New returns a random URL-safe identifier: a v4 UUID as 32 lower-case hex digits.
func New() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// ForPath returns a stable identifier for a watched file, so re-analyzing the
// same path replaces its previous result.
func ForPath(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return hex.EncodeToString(hash[:])[:idLength]
}

// Valid reports whether id has the shape produced by New and ForPath.
func Valid(id string) bool {
	if len(id) != idLength {
		return false
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// ExportFilename names a downloaded export after the moment it was produced.
func ExportFilename(t time.Time) string {
	return exportPrefix + t.Format(exportLayout) + ".xlsx"
}

// GroupedFilename names the export written for a watched input file.
func GroupedFilename(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + groupedSuffix
}
