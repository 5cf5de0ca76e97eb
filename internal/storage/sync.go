package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/dataset"
)

// Sync imports the spreadsheet at path unless the stored copy came from the same
// sheet of the same file revision. It reports whether an import happened.
func (s *Store) Sync(path, sheet string) (ImportMeta, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	st, err := os.Stat(path)
	if err != nil {
		return ImportMeta{}, false, fmt.Errorf("stat dataset: %w", err)
	}

	meta, ok, err := s.Meta()
	if err != nil {
		log.Warn().Err(err).Msg("Stored dataset metadata unreadable, re-importing")
	}
	if ok && err == nil && meta.Matches(abs, sheet, st.Size(), st.ModTime()) {
		log.Info().
			Str("source", abs).
			Str("sheet", sheet).
			Int("rows", meta.Rows).
			Time("imported_at", meta.ImportedAt).
			Msg("Dataset unchanged, using stored copy")
		return meta, false, nil
	}

	t, err := dataset.Load(path, sheet)
	if err != nil {
		return ImportMeta{}, false, err
	}

	meta = ImportMeta{
		Source:     abs,
		Sheet:      sheet,
		Size:       st.Size(),
		ModTime:    st.ModTime(),
		ImportedAt: time.Now().UTC(),
		Summary:    dataset.Summarize(t),
	}
	if err := s.Import(t, meta); err != nil {
		return ImportMeta{}, false, fmt.Errorf("import dataset: %w", err)
	}

	meta.Columns = t.Columns
	meta.Rows = t.Len()
	log.Info().
		Str("source", abs).
		Str("sheet", sheet).
		Int("rows", meta.Rows).
		Msg("Dataset imported")

	return meta, true, nil
}
