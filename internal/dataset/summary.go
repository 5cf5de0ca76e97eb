package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Column names recognised when summarising the sales sheet.
const (
	ColumnHour        = "Hour"
	ColumnQuantity    = "Quantity"
	ColumnInvoiceDate = "InvoiceDate"
	ColumnCountry     = "Country"
)

const topCategories = 3

// Summary feeds the overview cards and charts.
type Summary struct {
	Rows          int
	Columns       int
	TotalQuantity float64
	Countries     int

	HourLabels   []string
	HourValues   []float64
	HourlySample bool

	CategoryLabels  []string
	CategoryValues  []float64
	CategoryMeasure string
	CategorySample  bool
}

// SampleHourly is the placeholder series shown when the dataset has no hourly quantities.
func SampleHourly() ([]string, []float64) {
	labels := hourLabels()
	values := make([]float64, 24)
	for i := range values {
		values[i] = 100 + float64(i)*5
	}
	return labels, values
}

// SampleCategories is the placeholder split shown when the dataset has no Country column.
func SampleCategories() ([]string, []float64) {
	return []string{"Segment A", "Segment B", "Segment C"}, []float64{40, 30, 30}
}

func hourLabels() []string {
	labels := make([]string, 24)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d:00", i)
	}
	return labels
}

// Summarize aggregates t. Missing columns fall back to the sample series.
func Summarize(t Table) Summary {
	s := Summary{Rows: t.Len(), Columns: len(t.Columns)}

	qty := t.ColumnIndex(ColumnQuantity)
	if qty >= 0 {
		for _, r := range t.Rows {
			if v, err := strconv.ParseFloat(strings.TrimSpace(r[qty]), 64); err == nil {
				s.TotalQuantity += v
			}
		}
	}

	s.HourLabels, s.HourValues = hourlyQuantity(t, qty)
	if s.HourValues == nil {
		s.HourLabels, s.HourValues = SampleHourly()
		s.HourlySample = true
	}

	s.CategoryLabels, s.CategoryValues, s.Countries, s.CategoryMeasure = countryShare(t, qty)
	if s.CategoryValues == nil {
		s.CategoryLabels, s.CategoryValues = SampleCategories()
		s.CategoryMeasure = MeasureQuantity
		s.CategorySample = true
	}

	return s
}

func hourlyQuantity(t Table, qty int) ([]string, []float64) {
	if qty < 0 || t.Empty() {
		return nil, nil
	}
	hourCol := t.ColumnIndex(ColumnHour)
	dateCol := t.ColumnIndex(ColumnInvoiceDate)
	if hourCol < 0 && dateCol < 0 {
		return nil, nil
	}

	values := make([]float64, 24)
	found := false
	for _, r := range t.Rows {
		q, err := strconv.ParseFloat(strings.TrimSpace(r[qty]), 64)
		if err != nil {
			continue
		}
		h := -1
		if hourCol >= 0 {
			v, err := strconv.ParseFloat(strings.TrimSpace(r[hourCol]), 64)
			if err == nil && v >= 0 && v < 24 {
				h = int(v)
			}
		} else if ts, ok := parseTimestamp(r[dateCol]); ok {
			h = ts.Hour()
		}
		if h < 0 || h > 23 {
			continue
		}
		values[h] += q
		found = true
	}
	if !found {
		return nil, nil
	}
	return hourLabels(), values
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"1/2/06 15:04",
	"1/2/2006 15:04",
	"01-02-06 15:04",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Measures a category split can be computed over.
const (
	MeasureQuantity = "Quantity"
	MeasureOrders   = "Orders"
)

// countryShare returns the top countries by summed quantity plus an "Other" bucket.
// Without a Quantity column it counts rows instead. Countries whose total is not
// positive are left out of the split but still counted as distinct.
func countryShare(t Table, qty int) ([]string, []float64, int, string) {
	col := t.ColumnIndex(ColumnCountry)
	if col < 0 || t.Empty() {
		return nil, nil, 0, ""
	}
	measure := MeasureOrders
	if qty >= 0 {
		measure = MeasureQuantity
	}

	distinct := make(map[string]struct{})
	totals := make(map[string]float64)
	for _, r := range t.Rows {
		c := strings.TrimSpace(r[col])
		if c == "" {
			continue
		}
		distinct[c] = struct{}{}
		if qty < 0 {
			totals[c]++
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(r[qty]), 64); err == nil {
			totals[c] += v
		}
	}

	names := make([]string, 0, len(totals))
	for n, v := range totals {
		if v > 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, nil, len(distinct), measure
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})

	var labels []string
	var values []float64
	var other float64
	for i, n := range names {
		if i < topCategories {
			labels = append(labels, n)
			values = append(values, totals[n])
			continue
		}
		other += totals[n]
	}
	if other > 0 {
		labels = append(labels, "Other")
		values = append(values, other)
	}
	return labels, values, len(distinct), measure
}
