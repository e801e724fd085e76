package models

import (
	"errors"
	"strconv"
)

// NoneID is the identifier given to a table without an id attribute.
const NoneID = "None"

// ErrNoTable is returned when a catalog holds no tables.
var ErrNoTable = errors.New("no table found")

// Cell is one table cell. Int is set once its column has been normalised.
type Cell struct {
	Text  string
	Int   int64
	IsInt bool
}

// TextCell wraps raw cell text.
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// String returns the integer value when set, the raw text otherwise.
func (c Cell) String() string {
	if c.IsInt {
		return strconv.FormatInt(c.Int, 10)
	}
	return c.Text
}

// Table is a parsed HTML table: optional column names plus a row-major grid.
// Columns is nil when the table is unlabeled.
type Table struct {
	ID      string
	Columns []string
	Rows    [][]Cell
}

// Width is the number of grid columns, i.e. the longest row.
func (t *Table) Width() int {
	w := 0
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Len is the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the labels, or positional names "0".."n-1" when unlabeled.
func (t *Table) ColumnNames() []string {
	if t.Columns != nil {
		return t.Columns
	}
	names := make([]string, t.Width())
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

// ColumnIndex returns the position of a labeled column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, col); missing cells of ragged rows are empty.
func (t *Table) Cell(row, col int) Cell {
	r := t.Rows[row]
	if col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// Severity of a parse diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
)

// Diagnostic is a non-fatal condition raised while parsing one table.
type Diagnostic struct {
	Severity Severity
	TableID  string
	Message  string
}

func (d Diagnostic) String() string {
	return string(d.Severity) + ": table " + d.TableID + ": " + d.Message
}

// CatalogEntry pairs a table with its identifier.
type CatalogEntry struct {
	ID    string
	Table *Table
}

// Catalog holds every table found in one or more documents, in document order.
type Catalog struct {
	Entries     []CatalogEntry
	Diagnostics []Diagnostic
}

// Add appends a table under its identifier.
func (c *Catalog) Add(t *Table) {
	c.Entries = append(c.Entries, CatalogEntry{ID: t.ID, Table: t})
}

// Append concatenates another catalog onto c.
func (c *Catalog) Append(other *Catalog) {
	if other == nil {
		return
	}
	c.Entries = append(c.Entries, other.Entries...)
	c.Diagnostics = append(c.Diagnostics, other.Diagnostics...)
}

// Len is the number of tables.
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// First returns the first table in document order.
func (c *Catalog) First() (*Table, error) {
	if c == nil || len(c.Entries) == 0 {
		return nil, ErrNoTable
	}
	return c.Entries[0].Table, nil
}
