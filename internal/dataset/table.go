// Package dataset loads the sales spreadsheet shown in the dataset viewer and
// serves it in fixed-size pages.
package dataset

import "fmt"

// Table is a header row plus string cells, every row as wide as Columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len is the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no columns or no rows.
func (t Table) Empty() bool { return len(t.Columns) == 0 || len(t.Rows) == 0 }

// ColumnIndex returns the position of name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Page is one window of rows. Number is 1-based.
type Page struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Number    int        `json:"page"`
	Pages     int        `json:"pages"`
	Size      int        `json:"page_size"`
	TotalRows int        `json:"total_rows"`
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Number < p.Pages }

// FirstRow is the 1-based index of the first row on the page, 0 when empty.
func (p Page) FirstRow() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return (p.Number-1)*p.Size + 1
}

// LastRow is the 1-based index of the last row on the page.
func (p Page) LastRow() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return p.FirstRow() + len(p.Rows) - 1
}

// Source serves dataset pages. Implementations are read-only after construction.
type Source interface {
	Columns() []string
	Len() int
	Page(number, size int) (Page, error)
}

// PageCount is the number of pages needed for total rows, at least 1.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage forces number into [1, PageCount(total, size)].
func ClampPage(number, total, size int) int {
	pages := PageCount(total, size)
	if number < 1 {
		return 1
	}
	if number > pages {
		return pages
	}
	return number
}

// Bounds returns the row range [start, end) of a clamped page.
func Bounds(number, total, size int) (page, start, end int) {
	page = ClampPage(number, total, size)
	start = (page - 1) * size
	end = start + size
	if end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return page, start, end
}

// Memory serves pages from an in-memory table.
type Memory struct {
	table Table
}

func NewMemory(t Table) *Memory {
	return &Memory{table: t}
}

func (m *Memory) Columns() []string { return m.table.Columns }

func (m *Memory) Len() int { return m.table.Len() }

func (m *Memory) Page(number, size int) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("page size must be positive, got %d", size)
	}
	total := m.table.Len()
	page, start, end := Bounds(number, total, size)
	return Page{
		Columns:   m.table.Columns,
		Rows:      m.table.Rows[start:end],
		Number:    page,
		Pages:     PageCount(total, size),
		Size:      size,
		TotalRows: total,
	}, nil
}
