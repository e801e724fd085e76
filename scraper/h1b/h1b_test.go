package h1b

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"h1b-scraper/config"
	"h1b-scraper/htmltable"
	"h1b-scraper/models"
	"h1b-scraper/scraper"
	"h1b-scraper/services"
	"h1b-scraper/utils"
)

const resultsHeader = `<tr><th>EMPLOYER</th><th>JOB TITLE</th><th>BASE SALARY</th><th>LOCATION</th></tr>`

func resultsPage(rows ...string) string {
	return `<html><body><table class="tablesorter" id="myTable"><thead>` + resultsHeader +
		`</thead><tbody>` + strings.Join(rows, "") + `</tbody></table></body></html>`
}

func row(employer, job, salary, location string) string {
	return fmt.Sprintf(`<tr><td><a href="/x">%s</a></td><td>%s</td><td>%s</td><td>%s</td></tr>`,
		employer, job, salary, location)
}

type query struct {
	job  string
	year string
}

// h1bServer answers with the page registered for the request's job/year and
// records the queries it saw.
func h1bServer(t *testing.T, pages map[query]string) (*httptest.Server, func() []query) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []query
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := query{job: r.URL.Query().Get("job"), year: r.URL.Query().Get("year")}
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
		assert.Equal(t, "", r.URL.Query().Get("em"))
		assert.Equal(t, "", r.URL.Query().Get("city"))
		page, ok := pages[q]
		if !ok {
			page = resultsPage()
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []query {
		mu.Lock()
		defer mu.Unlock()
		return append([]query(nil), seen...)
	}
}

func newTestScraper(baseURL string) *Scraper {
	logger := utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelError)
	cfg := &config.Config{BaseURL: baseURL, MonetaryColumn: "BASE SALARY"}
	return New(cfg, scraper.NewHTTPFetcher(0, logger), logger)
}

func TestQueryURL(t *testing.T) {
	s := newTestScraper("https://h1bdata.info/index.php")
	want := "https://h1bdata.info/index.php?em=&job=Data+Scientist&city=&year=2018"
	require.Equal(t, want, s.QueryURL(2018, "Data Scientist"))
}

func TestScrapeOneRecordPerYear(t *testing.T) {
	srv, seen := h1bServer(t, map[query]string{
		{"Data Scientist", "2017"}: resultsPage(row("ACME", "DATA SCIENTIST", "120,000", "NY")),
		{"Data Scientist", "2018"}: resultsPage(row("GLOBEX", "DATA SCIENTIST", "130,500", "SF"),
			row("INITECH", "DATA SCIENTIST", "99,000", "TX")),
	})
	s := newTestScraper(srv.URL + "/index.php")

	ds, err := s.Scrape(context.Background(), []int{2017, 2018}, []string{"Data Scientist"})
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)

	for i, year := range []int{2017, 2018} {
		require.Equal(t, year, ds.Records[i].Year)
		require.Equal(t, "Data Scientist", ds.Records[i].JobTitle)
		require.False(t, ds.Records[i].Absent())
	}
	require.Equal(t, []query{{"Data Scientist", "2017"}, {"Data Scientist", "2018"}}, seen())

	salary := ds.Records[0].Table.Rows[0][2]
	require.True(t, salary.IsInt)
	require.Equal(t, int64(120000), salary.Int)
	require.Equal(t, "ACME", ds.Records[0].Table.Rows[0][0].Text)
}

func TestScrapeIterationOrder(t *testing.T) {
	srv, seen := h1bServer(t, nil)
	s := newTestScraper(srv.URL)

	ds, err := s.Scrape(context.Background(), []int{2017, 2018}, []string{"Software Engineer", "Data Scientist"})
	require.NoError(t, err)

	want := []query{
		{"Software Engineer", "2017"}, {"Data Scientist", "2017"},
		{"Software Engineer", "2018"}, {"Data Scientist", "2018"},
	}
	require.Equal(t, want, seen())
	require.Len(t, ds.Records, 4)
	for _, r := range ds.Records {
		require.True(t, r.Absent(), "empty results table should be recorded as absent")
	}
}

func TestScrapeNoTableOnPage(t *testing.T) {
	srv, _ := h1bServer(t, map[query]string{
		{"Data Scientist", "2017"}: `<html><body>maintenance</body></html>`,
	})
	s := newTestScraper(srv.URL)

	_, err := s.Scrape(context.Background(), []int{2017}, []string{"Data Scientist"})
	require.True(t, errors.Is(err, models.ErrNoTable), "got %v", err)
}

func TestScrapeMalformedSalary(t *testing.T) {
	srv, _ := h1bServer(t, map[query]string{
		{"Data Scientist", "2017"}: resultsPage(row("ACME", "DATA SCIENTIST", "n/a", "NY")),
	})
	s := newTestScraper(srv.URL)

	_, err := s.Scrape(context.Background(), []int{2017}, []string{"Data Scientist"})
	require.True(t, errors.Is(err, services.ErrMalformedNumber), "got %v", err)
}

func TestScrapeMultipleHeaderRows(t *testing.T) {
	page := `<table>` + resultsHeader + row("A", "B", "1", "C") + resultsHeader + `</table>`
	srv, _ := h1bServer(t, map[query]string{{"Data Scientist", "2017"}: page})
	s := newTestScraper(srv.URL)

	_, err := s.Scrape(context.Background(), []int{2017}, []string{"Data Scientist"})
	require.True(t, errors.Is(err, htmltable.ErrMultipleHeaderRows), "got %v", err)
}

func TestScrapeFetchFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := newTestScraper(srv.URL)

	_, err := s.Scrape(context.Background(), []int{2017, 2018}, []string{"Data Scientist"})
	require.True(t, errors.Is(err, scraper.ErrBadStatus), "got %v", err)
}

func TestScrapeInvalidArguments(t *testing.T) {
	s := newTestScraper("https://h1b.test")
	for _, tc := range []struct {
		years []int
		jobs  []string
	}{
		{[]int{0}, []string{"Data Scientist"}},
		{[]int{-2017}, []string{"Data Scientist"}},
		{[]int{2017}, []string{"  "}},
	} {
		_, err := s.Scrape(context.Background(), tc.years, tc.jobs)
		require.True(t, errors.Is(err, ErrInvalidArgument), "years=%v jobs=%v: got %v", tc.years, tc.jobs, err)
	}
}

func TestExtractSpecificTable(t *testing.T) {
	srv, _ := h1bServer(t, map[query]string{
		{"Data Scientist", "2018"}: resultsPage(row("GLOBEX", "DATA SCIENTIST", "130,500", "SF")),
	})
	s := newTestScraper(srv.URL)

	ds, err := s.Scrape(context.Background(), []int{2017, 2018}, []string{"Data Scientist"})
	require.NoError(t, err)

	tbl, err := ExtractSpecificTable(ds, 2018, "Data Scientist")
	require.NoError(t, err)
	require.Same(t, ds.Records[1].Table, tbl)

	absent, err := ExtractSpecificTable(ds, 2017, "Data Scientist")
	require.NoError(t, err)
	require.Nil(t, absent)

	_, err = ExtractSpecificTable(ds, 2019, "Data Scientist")
	require.True(t, errors.Is(err, models.ErrRecordNotFound), "got %v", err)

	_, err = ExtractSpecificTable(ds, 2018, "")
	require.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
}
