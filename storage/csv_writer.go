package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"h1b-scraper/models"
)

// CSVWriter writes the combined dataset to a CSV file.
type CSVWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVWriter{path: path, file: f, writer: csv.NewWriter(f)}, nil
}

// Write concatenates every present table of ds and writes it with a leading
// positional index column. Absent records contribute no rows.
func (c *CSVWriter) Write(ds *models.Dataset) error {
	return c.WriteTable(ds.Combine())
}

// WriteTable writes t with a leading index column whose header is empty.
func (c *CSVWriter) WriteTable(t *models.Table) error {
	names := t.ColumnNames()
	header := append([]string{""}, names...)
	if err := c.writer.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for i := range t.Rows {
		record := make([]string, 0, len(names)+1)
		record = append(record, strconv.Itoa(i))
		for j := range names {
			record = append(record, t.Cell(i, j).String())
		}
		if err := c.writer.Write(record); err != nil {
			return fmt.Errorf("csv: write row %d: %w", i, err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
