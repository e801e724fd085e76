package models

import (
	"errors"
	"reflect"
	"testing"
)

func salaryTable(rows ...[]string) *Table {
	t := &Table{ID: "None", Columns: []string{"EMPLOYER", "BASE SALARY"}}
	for _, r := range rows {
		var cells []Cell
		for _, s := range r {
			cells = append(cells, TextCell(s))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func TestDatasetLookup(t *testing.T) {
	ds := &Dataset{}
	want := salaryTable([]string{"ACME", "120,000"})
	ds.Add(Record{Year: 2017, JobTitle: "Data Scientist", Table: nil})
	ds.Add(Record{Year: 2018, JobTitle: "Data Scientist", Table: want})

	got, err := ds.Lookup(2018, "Data Scientist")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != want {
		t.Errorf("Lookup returned a different table")
	}

	absent, err := ds.Lookup(2017, "Data Scientist")
	if err != nil || absent != nil {
		t.Errorf("absent record: got (%v, %v), want (nil, nil)", absent, err)
	}
}

func TestDatasetLookupMiss(t *testing.T) {
	ds := &Dataset{}
	ds.Add(Record{Year: 2018, JobTitle: "Data Scientist"})

	for _, tc := range []struct {
		year int
		job  string
	}{
		{2019, "Data Scientist"},
		{2018, "data scientist"},
		{2018, "Data"},
	} {
		if _, err := ds.Lookup(tc.year, tc.job); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Lookup(%d, %q): got %v, want ErrRecordNotFound", tc.year, tc.job, err)
		}
	}
}

func TestDatasetLookupFirstMatch(t *testing.T) {
	first := salaryTable([]string{"A", "1"})
	ds := &Dataset{}
	ds.Add(Record{Year: 2018, JobTitle: "X", Table: first})
	ds.Add(Record{Year: 2018, JobTitle: "X", Table: salaryTable([]string{"B", "2"})})

	got, _ := ds.Lookup(2018, "X")
	if got != first {
		t.Error("Lookup should return the first matching record")
	}
}

func TestDatasetCombine(t *testing.T) {
	ds := &Dataset{}
	ds.Add(Record{Year: 2017, JobTitle: "Software Engineer", Table: salaryTable([]string{"A", "100,000"}, []string{"B", "90,000"})})
	ds.Add(Record{Year: 2017, JobTitle: "Data Scientist", Table: nil})
	ds.Add(Record{Year: 2018, JobTitle: "Data Scientist", Table: salaryTable([]string{"C", "120,000"})})

	combined := ds.Combine()

	wantCols := []string{YearColumn, JobTitleColumn, "EMPLOYER", "BASE SALARY"}
	if !reflect.DeepEqual(combined.Columns, wantCols) {
		t.Fatalf("Columns: got %v, want %v", combined.Columns, wantCols)
	}
	if combined.Len() != 3 {
		t.Fatalf("rows: got %d, want 3", combined.Len())
	}

	var got [][]string
	for _, r := range combined.Rows {
		var row []string
		for _, c := range r {
			row = append(row, c.String())
		}
		got = append(got, row)
	}
	want := [][]string{
		{"2017", "Software Engineer", "A", "100,000"},
		{"2017", "Software Engineer", "B", "90,000"},
		{"2018", "Data Scientist", "C", "120,000"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows: got %v, want %v", got, want)
	}
}

func TestCombineUnlabeledTable(t *testing.T) {
	unlabeled := &Table{ID: "x", Rows: [][]Cell{{TextCell("a"), TextCell("b")}, {TextCell("c")}}}
	ds := &Dataset{Records: []Record{{Year: 2020, JobTitle: "Analyst", Table: unlabeled}}}

	combined := ds.Combine()
	wantCols := []string{YearColumn, JobTitleColumn, "0", "1"}
	if !reflect.DeepEqual(combined.Columns, wantCols) {
		t.Fatalf("Columns: got %v, want %v", combined.Columns, wantCols)
	}
	if got := combined.Rows[1][3].String(); got != "" {
		t.Errorf("ragged row padding: got %q, want empty", got)
	}
}

func cellStrings(row []Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = c.String()
	}
	return out
}

func TestCombineKeepsSiteJobTitleColumn(t *testing.T) {
	results := &Table{
		ID:      "myTable",
		Columns: []string{"EMPLOYER", "JOB TITLE", "BASE SALARY"},
		Rows:    [][]Cell{{TextCell("ACME"), TextCell("SENIOR DATA SCIENTIST"), TextCell("150,000")}},
	}
	ds := &Dataset{Records: []Record{{Year: 2019, JobTitle: "Data Scientist", Table: results}}}

	combined := ds.Combine()

	wantCols := []string{"QUERY YEAR", "QUERY JOB TITLE", "EMPLOYER", "JOB TITLE", "BASE SALARY"}
	if !reflect.DeepEqual(combined.Columns, wantCols) {
		t.Fatalf("Columns: got %v, want %v", combined.Columns, wantCols)
	}
	want := []string{"2019", "Data Scientist", "ACME", "SENIOR DATA SCIENTIST", "150,000"}
	if got := cellStrings(combined.Rows[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("row: got %v, want %v", got, want)
	}
}

func TestCombineReservedNameCollision(t *testing.T) {
	tbl := &Table{ID: "t", Columns: []string{YearColumn, "B"}, Rows: [][]Cell{{TextCell("x"), TextCell("y")}}}
	ds := &Dataset{Records: []Record{{Year: 2020, JobTitle: "Analyst", Table: tbl}}}

	combined := ds.Combine()

	wantCols := []string{YearColumn, JobTitleColumn, YearColumn + ".1", "B"}
	if !reflect.DeepEqual(combined.Columns, wantCols) {
		t.Fatalf("Columns: got %v, want %v", combined.Columns, wantCols)
	}
	want := []string{"2020", "Analyst", "x", "y"}
	if got := cellStrings(combined.Rows[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("row: got %v, want %v", got, want)
	}
}

func TestCombineRepeatedColumnName(t *testing.T) {
	dup := func(left, right string) *Table {
		return &Table{ID: "t", Columns: []string{"A", "A"}, Rows: [][]Cell{{TextCell(left), TextCell(right)}}}
	}
	ds := &Dataset{Records: []Record{
		{Year: 2018, JobTitle: "X", Table: dup("left", "right")},
		{Year: 2019, JobTitle: "X", Table: dup("l2", "r2")},
	}}

	combined := ds.Combine()

	wantCols := []string{YearColumn, JobTitleColumn, "A", "A.1"}
	if !reflect.DeepEqual(combined.Columns, wantCols) {
		t.Fatalf("Columns: got %v, want %v", combined.Columns, wantCols)
	}
	want := [][]string{
		{"2018", "X", "left", "right"},
		{"2019", "X", "l2", "r2"},
	}
	for i, w := range want {
		if got := cellStrings(combined.Rows[i]); !reflect.DeepEqual(got, w) {
			t.Errorf("row %d: got %v, want %v", i, got, w)
		}
	}
}

func TestCatalogFirst(t *testing.T) {
	var empty *Catalog
	if _, err := empty.First(); !errors.Is(err, ErrNoTable) {
		t.Errorf("nil catalog: got %v, want ErrNoTable", err)
	}

	c := &Catalog{}
	if _, err := c.First(); !errors.Is(err, ErrNoTable) {
		t.Errorf("empty catalog: got %v, want ErrNoTable", err)
	}

	a, b := &Table{ID: "a"}, &Table{ID: "b"}
	c.Add(a)
	c.Append(&Catalog{Entries: []CatalogEntry{{ID: "b", Table: b}}, Diagnostics: []Diagnostic{{TableID: "b"}}})
	got, err := c.First()
	if err != nil || got != a {
		t.Errorf("First: got (%v, %v), want table a", got, err)
	}
	if c.Len() != 2 || len(c.Diagnostics) != 1 {
		t.Errorf("Append: got %d entries / %d diagnostics", c.Len(), len(c.Diagnostics))
	}
}

func TestTableColumnNames(t *testing.T) {
	tbl := &Table{Rows: [][]Cell{{TextCell("x"), TextCell("y"), TextCell("z")}}}
	if got := tbl.ColumnNames(); !reflect.DeepEqual(got, []string{"0", "1", "2"}) {
		t.Errorf("positional names: got %v", got)
	}
	tbl.Columns = []string{"a", "b", "c"}
	if idx := tbl.ColumnIndex("c"); idx != 2 {
		t.Errorf("ColumnIndex(c) = %d; want 2", idx)
	}
	if idx := tbl.ColumnIndex("missing"); idx != -1 {
		t.Errorf("ColumnIndex(missing) = %d; want -1", idx)
	}
}
