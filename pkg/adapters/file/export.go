package file

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/results"
)

// Export writes the result log to path atomically. The format follows the
// extension: ".csv" for the flat spreadsheet layout, anything else JSONL.
func Export(path string, records []domain.TrialRecord) error {
	write := results.WriteJSONL
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		write = results.WriteCSV
	}
	return writeAtomic(path, func(w io.Writer) error {
		if err := write(w, records); err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
		return nil
	})
}

// ExportName is the default export file name of a session.
func ExportName(s *domain.SessionState, ext string) string {
	key := s.Identity.SeedKey()
	if key == "" {
		key = s.SessionID
	}
	return fmt.Sprintf("mrt_%s_%s.%s", sanitize(key), s.SessionID, strings.TrimPrefix(ext, "."))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
