package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither spreadsheets nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Load reads a dataset by file extension. sheet selects an .xlsx worksheet,
// empty means the first one.
func Load(path, sheet string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadFromXLSX(path, sheet)
	case ".csv":
		return LoadFromCSV(path)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFromXLSX reads a worksheet; the first row is the header.
func LoadFromXLSX(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("spreadsheet %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	t := fromRecords(rows)
	log.Info().
		Str("file", path).
		Str("sheet", sheet).
		Int("rows", t.Len()).
		Int("columns", len(t.Columns)).
		Msg("Spreadsheet loaded successfully")

	return t, nil
}

// LoadFromCSV reads a CSV file; the first record is the header.
func LoadFromCSV(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	t, err := ReadCSV(file)
	if err != nil {
		return Table{}, err
	}

	log.Info().
		Str("file", path).
		Int("rows", t.Len()).
		Int("columns", len(t.Columns)).
		Msg("CSV data loaded successfully")

	return t, nil
}

// ReadCSV parses CSV records from r. Rows may have differing widths.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read CSV: %w", err)
		}
		records = append(records, record)
	}
	return fromRecords(records), nil
}

// fromRecords pads ragged rows and names unnamed columns.
func fromRecords(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}

	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}

	header := make([]string, width)
	for i := range header {
		if i < len(records[0]) {
			header[i] = strings.TrimSpace(records[0][i])
		}
		if header[i] == "" {
			header[i] = fmt.Sprintf("Column%d", i+1)
		}
	}

	rows := make([][]string, 0, len(records)-1)
	for _, r := range records[1:] {
		if isBlankRow(r) {
			continue
		}
		row := make([]string, width)
		copy(row, r)
		rows = append(rows, row)
	}

	return Table{Columns: header, Rows: rows}
}

func isBlankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
