package storage

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"h1b-scraper/models"
)

type dialect struct {
	driver  string
	schema  []string
	ordinal bool
}

var (
	postgresDialect = dialect{
		driver:  "postgres",
		ordinal: true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS salary_rows (
				id            SERIAL PRIMARY KEY,
				year          INTEGER     NOT NULL,
				job_title     TEXT        NOT NULL,
				row_index     INTEGER     NOT NULL,
				column_names  TEXT        NOT NULL,
				cell_values   TEXT        NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_salary_rows_year_job ON salary_rows(year, job_title)`,
		},
	}

	sqliteDialect = dialect{
		driver: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS salary_rows (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				year          INTEGER NOT NULL,
				job_title     TEXT    NOT NULL,
				row_index     INTEGER NOT NULL,
				column_names  TEXT    NOT NULL,
				cell_values   TEXT    NOT NULL,
				created_at    TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_salary_rows_year_job ON salary_rows(year, job_title)`,
		},
	}
)

func (d dialect) placeholder(n int) string {
	if d.ordinal {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SQLWriter persists the rows of every present table, one SQL row per table row.
type SQLWriter struct {
	db      *sql.DB
	dialect dialect
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use SQLWriter.
func NewPostgresWriter(dsn string) (*SQLWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return newSQLWriter(db, postgresDialect)
}

// NewSQLiteWriter opens (or creates) the SQLite database at path.
func NewSQLiteWriter(path string) (*SQLWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLWriter(db, sqliteDialect)
}

func newSQLWriter(db *sql.DB, d dialect) (*SQLWriter, error) {
	w := &SQLWriter{db: db, dialect: d}
	if err := w.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", d.driver, err)
	}
	return w, nil
}

func (w *SQLWriter) migrate() error {
	for _, stmt := range w.dialect.schema {
		if _, err := w.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes all stored rows.
func (w *SQLWriter) Clear() error {
	if _, err := w.db.Exec("DELETE FROM salary_rows"); err != nil {
		return fmt.Errorf("%s: clear: %w", w.dialect.driver, err)
	}
	return nil
}

type storedRow struct {
	year     int
	jobTitle string
	rowIndex int
	columns  string
	cells    string
}

// Write replaces the stored rows with those of ds, inserting in batches.
func (w *SQLWriter) Write(ds *models.Dataset) error {
	if err := w.Clear(); err != nil {
		return err
	}

	var rows []storedRow
	for _, r := range ds.Records {
		if r.Absent() {
			continue
		}
		cols, err := json.Marshal(r.Table.ColumnNames())
		if err != nil {
			return fmt.Errorf("%s: encode columns: %w", w.dialect.driver, err)
		}
		width := len(r.Table.ColumnNames())
		for i := range r.Table.Rows {
			values := make([]any, width)
			for j := 0; j < width; j++ {
				c := r.Table.Cell(i, j)
				if c.IsInt {
					values[j] = c.Int
				} else {
					values[j] = c.Text
				}
			}
			cells, err := json.Marshal(values)
			if err != nil {
				return fmt.Errorf("%s: encode row: %w", w.dialect.driver, err)
			}
			rows = append(rows, storedRow{
				year:     r.Year,
				jobTitle: r.JobTitle,
				rowIndex: i,
				columns:  string(cols),
				cells:    string(cells),
			})
		}
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := w.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *SQLWriter) insertBatch(batch []storedRow) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)

	for idx, r := range batch {
		base := idx * 5
		ph := make([]string, 5)
		for k := range ph {
			ph[k] = w.dialect.placeholder(base + k + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, r.year, r.jobTitle, r.rowIndex, r.columns, r.cells)
	}

	query := fmt.Sprintf(`
		INSERT INTO salary_rows (year, job_title, row_index, column_names, cell_values)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := w.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("%s: insert: %w", w.dialect.driver, err)
	}
	return nil
}

// FetchDataset rebuilds a dataset from the stored rows, one record per
// consecutive (year, job title) run in insertion order. Absent records are
// not stored and so do not come back.
func (w *SQLWriter) FetchDataset() (*models.Dataset, error) {
	rows, err := w.db.Query(`
		SELECT year, job_title, column_names, cell_values
		FROM salary_rows
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch: %w", w.dialect.driver, err)
	}
	defer rows.Close()

	ds := &models.Dataset{}
	var current *models.Record
	for rows.Next() {
		var (
			year          int
			job, cols, cv string
		)
		if err := rows.Scan(&year, &job, &cols, &cv); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", w.dialect.driver, err)
		}

		if current == nil || current.Year != year || current.JobTitle != job {
			var names []string
			if err := json.Unmarshal([]byte(cols), &names); err != nil {
				return nil, fmt.Errorf("%s: decode columns: %w", w.dialect.driver, err)
			}
			ds.Add(models.Record{Year: year, JobTitle: job, Table: &models.Table{ID: models.NoneID, Columns: names}})
			current = &ds.Records[len(ds.Records)-1]
		}

		cells, err := decodeCells(cv)
		if err != nil {
			return nil, fmt.Errorf("%s: decode row: %w", w.dialect.driver, err)
		}
		current.Table.Rows = append(current.Table.Rows, cells)
	}
	return ds, rows.Err()
}

func decodeCells(raw string) ([]models.Cell, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}

	cells := make([]models.Cell, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case json.Number:
			n, err := val.Int64()
			if err != nil {
				return nil, err
			}
			cells[i] = models.Cell{Text: val.String(), Int: n, IsInt: true}
		case string:
			cells[i] = models.TextCell(val)
		}
	}
	return cells, nil
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}
