package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes the header and rows of t.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// WriteXLSX saves t as a single-sheet workbook. Numeric cells are stored as numbers.
func WriteXLSX(path, sheet string, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if def := f.GetSheetName(0); def != sheet {
		if err := f.SetSheetName(def, sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range t.Rows {
		row := make([]interface{}, len(r))
		for j, c := range r {
			if v, err := strconv.ParseFloat(c, 64); err == nil {
				row[j] = v
			} else {
				row[j] = c
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save spreadsheet: %w", err)
	}
	return nil
}

var sampleCountries = []struct {
	name string
	code int
}{
	{"United Kingdom", 35},
	{"Germany", 14},
	{"France", 13},
	{"EIRE", 10},
	{"Spain", 30},
	{"Netherlands", 24},
}

// SampleTable generates n deterministic retail rows with the columns the prediction form uses.
func SampleTable(n int, seed int64) Table {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2010, 12, 1, 8, 0, 0, 0, time.UTC)

	t := Table{Columns: []string{
		"InvoiceNo", "ProductCode", "Quantity", ColumnInvoiceDate, "UnitPrice",
		ColumnCountry, "CountryCode", ColumnHour, "DayOfWeek",
	}}
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(rng.Intn(60*24*30)) * time.Minute)
		c := sampleCountries[rng.Intn(len(sampleCountries))]
		// skew towards the first country like real retail exports
		if rng.Intn(3) == 0 {
			c = sampleCountries[0]
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(536365 + i),
			strconv.Itoa(rng.Intn(4000)),
			strconv.Itoa(1 + rng.Intn(48)),
			ts.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(float64(rng.Intn(1500))/100+0.1, 'f', 2, 64),
			c.name,
			strconv.Itoa(c.code),
			strconv.Itoa(ts.Hour()),
			strconv.Itoa(int(ts.Weekday())),
		})
	}
	return t
}
