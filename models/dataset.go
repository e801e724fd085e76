package models

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrRecordNotFound is returned when no record matches a (year, job title) lookup.
var ErrRecordNotFound = errors.New("record not found")

// Combined table columns carrying each row's query provenance. They are
// prefixed so they never clash with the site's own JOB TITLE column.
const (
	YearColumn     = "QUERY YEAR"
	JobTitleColumn = "QUERY JOB TITLE"
)

// Record is the result of one (year, job title) query.
// A nil Table marks a query that succeeded but returned no rows.
type Record struct {
	Year     int
	JobTitle string
	Table    *Table
}

// Absent reports whether the query returned no rows.
func (r Record) Absent() bool {
	return r.Table == nil
}

// Dataset is the ordered list of records, years outer and job titles inner.
type Dataset struct {
	Records []Record
}

// Add appends a record.
func (d *Dataset) Add(r Record) {
	d.Records = append(d.Records, r)
}

// Lookup returns the table of the first record matching year and jobTitle exactly.
func (d *Dataset) Lookup(year int, jobTitle string) (*Table, error) {
	for _, r := range d.Records {
		if r.Year == year && r.JobTitle == jobTitle {
			return r.Table, nil
		}
	}
	return nil, fmt.Errorf("%w: year=%d job=%q", ErrRecordNotFound, year, jobTitle)
}

// Combine concatenates every present table row-wise. The result starts with
// the QUERY YEAR and QUERY JOB TITLE provenance columns followed by one column
// per distinct (name, occurrence) pair across the tables, in first-seen order.
// A name repeated within a table, or one already taken, gets a ".N" suffix so
// every source cell keeps its own slot. Cells a table does not have are empty.
func (d *Dataset) Combine() *Table {
	columns := []string{YearColumn, JobTitleColumn}
	used := map[string]bool{YearColumn: true, JobTitleColumn: true}
	slots := map[columnKey]int{}
	for _, r := range d.Records {
		if r.Absent() {
			continue
		}
		for _, key := range columnKeys(r.Table.ColumnNames()) {
			if _, ok := slots[key]; ok {
				continue
			}
			label := key.label(used)
			used[label] = true
			slots[key] = len(columns)
			columns = append(columns, label)
		}
	}

	out := &Table{ID: "combined", Columns: columns}
	for _, r := range d.Records {
		if r.Absent() {
			continue
		}
		keys := columnKeys(r.Table.ColumnNames())
		for i := range r.Table.Rows {
			row := make([]Cell, len(columns))
			row[0] = Cell{Int: int64(r.Year), IsInt: true, Text: strconv.Itoa(r.Year)}
			row[1] = TextCell(r.JobTitle)
			for j, key := range keys {
				row[slots[key]] = r.Table.Cell(i, j)
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// columnKey identifies the nth column called name within one table.
type columnKey struct {
	name string
	nth  int
}

func columnKeys(names []string) []columnKey {
	seen := make(map[string]int, len(names))
	keys := make([]columnKey, len(names))
	for i, name := range names {
		keys[i] = columnKey{name: name, nth: seen[name]}
		seen[name]++
	}
	return keys
}

// label returns the first of name, name.nth, name.nth+1, ... not in used.
func (k columnKey) label(used map[string]bool) string {
	if k.nth == 0 && !used[k.name] {
		return k.name
	}
	n := k.nth
	if n == 0 {
		n = 1
	}
	for {
		candidate := k.name + "." + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
		n++
	}
}
