package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"h1b-scraper/models"
	"h1b-scraper/utils"
)

// ErrMalformedNumber is returned when a monetary cell is not a thousands-separated integer.
var ErrMalformedNumber = errors.New("malformed number")

// Cleaner normalises scraped tables.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// NormalizeDataset rewrites column to integers in every present table that has it.
// Absent tables and tables without the column are left untouched.
func (c *Cleaner) NormalizeDataset(ds *models.Dataset, column string) error {
	converted := 0
	for _, r := range ds.Records {
		if r.Absent() {
			continue
		}
		n, err := c.NormalizeTable(r.Table, column)
		if err != nil {
			return fmt.Errorf("year %d, job %q: %w", r.Year, r.JobTitle, err)
		}
		converted += n
	}
	c.logger.Info("[cleaner] Normalised %d %q cells across %d records", converted, column, len(ds.Records))
	return nil
}

// NormalizeTable converts every cell of column to an integer and returns how
// many cells were converted. A table without the column is a no-op.
func (c *Cleaner) NormalizeTable(t *models.Table, column string) (int, error) {
	if t == nil {
		return 0, nil
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		c.logger.Debug("[cleaner] Table %s has no %q column", t.ID, column)
		return 0, nil
	}

	n := 0
	for i, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		v, err := c.ParseSalary(row[idx].Text)
		if err != nil {
			return n, fmt.Errorf("table %s row %d: %w", t.ID, i, err)
		}
		row[idx].Int = v
		row[idx].IsInt = true
		n++
	}
	return n, nil
}

// ParseSalary strips thousands separators from raw and parses the integer.
//
//	"120,000" → 120000
//	" 95,500 " → 95500
func (c *Cleaner) ParseSalary(raw string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}
	return v, nil
}

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
