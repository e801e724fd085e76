// Package htmltable converts the <table> elements of an HTML document into
// models.Table values.
//
// Each table is read row by row. Rows holding <td> cells become data rows;
// rows without <td> cells are header candidates built from their <th> cells.
// The first header row found labels every data row of the table, and a second
// one is rejected with ErrMultipleHeaderRows. When the number of labels does
// not match the grid width the table is kept unlabeled and a warning
// diagnostic is reported instead of an error.
package htmltable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"h1b-scraper/models"
	"h1b-scraper/utils"
)

const (
	tagTable  = "table"
	tagRow    = "tr"
	tagData   = "td"
	tagHeader = "th"
)

// ErrMultipleHeaderRows is returned when a table has more than one header row.
var ErrMultipleHeaderRows = errors.New("column titles exist at multiple rows")

// Fetcher retrieves raw markup for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser fetches documents and extracts their tables.
type Parser struct {
	fetcher Fetcher
	logger  *utils.Logger
}

// NewParser creates a Parser that retrieves documents through fetcher.
func NewParser(fetcher Fetcher, logger *utils.Logger) *Parser {
	return &Parser{fetcher: fetcher, logger: logger}
}

// Parse fetches source and returns every table it contains. A source that is
// not an absolute http(s) URL yields a nil catalog and no error.
func (p *Parser) Parse(ctx context.Context, source string) (*models.Catalog, error) {
	if !isDocumentURL(source) {
		p.logger.Debug("[htmltable] Ignoring non-URL source %q", source)
		return nil, nil
	}

	body, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	catalog, err := p.ParseDocument(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return catalog, nil
}

// BatchParse parses every source in order and concatenates the results.
// The first failure aborts the batch.
func (p *Parser) BatchParse(ctx context.Context, sources []string) (*models.Catalog, error) {
	combined := &models.Catalog{}
	for _, src := range sources {
		catalog, err := p.Parse(ctx, src)
		if err != nil {
			return nil, err
		}
		combined.Append(catalog)
	}
	return combined, nil
}

// ParseDocument reads already-retrieved markup and returns its tables.
func (p *Parser) ParseDocument(r io.Reader) (*models.Catalog, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	catalog, err := ExtractTables(doc)
	if err != nil {
		return nil, err
	}
	for _, d := range catalog.Diagnostics {
		p.logger.Warn("[htmltable] %s", d)
	}
	p.logger.Debug("[htmltable] Found %d tables", catalog.Len())
	return catalog, nil
}

// ExtractTables parses every <table> of doc in document order.
func ExtractTables(doc *goquery.Document) (*models.Catalog, error) {
	catalog := &models.Catalog{}
	var err error

	doc.Find(tagTable).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		t, diags, perr := ParseTable(sel)
		if perr != nil {
			err = perr
			return false
		}
		catalog.Add(t)
		catalog.Diagnostics = append(catalog.Diagnostics, diags...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// ParseTable converts one <table> selection into a models.Table.
func ParseTable(sel *goquery.Selection) (*models.Table, []models.Diagnostic, error) {
	t := &models.Table{ID: sel.AttrOr("id", models.NoneID)}

	var columns []string
	var err error

	sel.Find(tagRow).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if cells := row.Find(tagData); cells.Length() > 0 {
			t.Rows = append(t.Rows, cellTexts(cells))
			return true
		}

		headers := row.Find(tagHeader)
		if headers.Length() == 0 {
			return true
		}
		if columns != nil {
			err = fmt.Errorf("table %s: %w", t.ID, ErrMultipleHeaderRows)
			return false
		}
		columns = make([]string, 0, headers.Length())
		headers.Each(func(_ int, h *goquery.Selection) {
			columns = append(columns, firstText(h.Nodes[0]))
		})
		return true
	})
	if err != nil {
		return nil, nil, err
	}

	width := t.Width()
	if len(columns) == width {
		t.Columns = columns
		return t, nil, nil
	}

	diag := models.Diagnostic{
		Severity: models.SeverityWarning,
		TableID:  t.ID,
		Message: fmt.Sprintf("column titles do not match the number of columns (%d titles, %d columns)",
			len(columns), width),
	}
	return t, []models.Diagnostic{diag}, nil
}

func cellTexts(cells *goquery.Selection) []models.Cell {
	out := make([]models.Cell, 0, cells.Length())
	for _, n := range cells.Nodes {
		out = append(out, models.TextCell(firstText(n)))
	}
	return out
}

func isDocumentURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
