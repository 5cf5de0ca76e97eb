// Package storage persists the imported dataset in BoltDB so the viewer can page
// through it without keeping the whole spreadsheet in memory.
//
// Rows are keyed by their big-endian index, which keeps cursor order equal to
// spreadsheet order and makes page reads a single Seek.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"demand-dashboard/internal/common"
	"demand-dashboard/internal/dataset"
)

const (
	rowsBucket = "rows" // Bucket name for dataset rows
	metaBucket = "meta" // Bucket name for import metadata
)

var metaKey = []byte("import")

// ImportMeta identifies the spreadsheet the stored rows came from.
type ImportMeta struct {
	Source     string    `json:"source"`
	Sheet      string    `json:"sheet"`
	Size       int64     `json:"size"`
	ModTime    time.Time `json:"mod_time"`
	Columns    []string  `json:"columns"`
	Rows       int       `json:"rows"`
	ImportedAt time.Time `json:"imported_at"`

	Summary dataset.Summary `json:"summary"`
}

// Matches reports whether m was imported from the same sheet of the same file revision.
func (m ImportMeta) Matches(source, sheet string, size int64, modTime time.Time) bool {
	return m.Source == source && m.Sheet == sheet && m.Size == size && m.ModTime.Equal(modTime)
}

// Store provides persistent storage for dataset rows using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New opens (or creates) the dataset database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, common.DatasetStoreFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(rowsBucket)); err != nil {
			return fmt.Errorf("create rows bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(metaBucket)); err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Meta returns the metadata of the last import, ok=false when nothing was imported.
func (s *Store) Meta() (meta ImportMeta, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(metaBucket)).Get(metaKey)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("unmarshal import meta: %w", err)
		}
		ok = true
		return nil
	})
	return meta, ok, err
}

// Import replaces the stored rows with t in a single transaction.
func (s *Store) Import(t dataset.Table, meta ImportMeta) error {
	meta.Columns = t.Columns
	meta.Rows = t.Len()

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(rowsBucket)); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("drop rows bucket: %w", err)
		}
		b, err := tx.CreateBucket([]byte(rowsBucket))
		if err != nil {
			return fmt.Errorf("create rows bucket: %w", err)
		}
		b.FillPercent = 1.0 // keys are appended in order

		for i, row := range t.Rows {
			data, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("marshal row %d: %w", i, err)
			}
			if err := b.Put(rowKey(i), data); err != nil {
				return err
			}
		}

		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal import meta: %w", err)
		}
		return tx.Bucket([]byte(metaBucket)).Put(metaKey, data)
	})
}

// Source returns a read-only paged view of the stored rows.
func (s *Store) Source() (*Source, error) {
	meta, ok, err := s.Meta()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no dataset imported")
	}
	return &Source{db: s.db, columns: meta.Columns, rows: meta.Rows}, nil
}

// Source implements dataset.Source over the rows bucket.
type Source struct {
	db      *bbolt.DB
	columns []string
	rows    int
}

func (s *Source) Columns() []string { return s.columns }

func (s *Source) Len() int { return s.rows }

// Page reads one page with a cursor seek to the first row of the page.
func (s *Source) Page(number, size int) (dataset.Page, error) {
	if size <= 0 {
		return dataset.Page{}, fmt.Errorf("page size must be positive, got %d", size)
	}
	page, start, end := dataset.Bounds(number, s.rows, size)
	out := dataset.Page{
		Columns:   s.columns,
		Rows:      make([][]string, 0, end-start),
		Number:    page,
		Pages:     dataset.PageCount(s.rows, size),
		Size:      size,
		TotalRows: s.rows,
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(rowsBucket)).Cursor()
		for k, v := c.Seek(rowKey(start)); k != nil && len(out.Rows) < end-start; k, v = c.Next() {
			var row []string
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("unmarshal row %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out.Rows = append(out.Rows, row)
		}
		return nil
	})
	if err != nil {
		return dataset.Page{}, err
	}
	return out, nil
}

func rowKey(i int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}
