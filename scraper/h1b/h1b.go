package h1b

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"h1b-scraper/config"
	"h1b-scraper/htmltable"
	"h1b-scraper/models"
	"h1b-scraper/services"
	"h1b-scraper/utils"
)

// ErrInvalidArgument is returned for a non-positive year or a blank job title.
var ErrInvalidArgument = errors.New("invalid argument")

// Scraper queries the H-1B salary database once per (year, job title) pair.
type Scraper struct {
	baseURL string
	column  string
	parser  *htmltable.Parser
	cleaner *services.Cleaner
	logger  *utils.Logger
}

// New creates a Scraper that fetches pages through fetcher.
func New(cfg *config.Config, fetcher htmltable.Fetcher, logger *utils.Logger) *Scraper {
	return &Scraper{
		baseURL: cfg.BaseURL,
		column:  cfg.MonetaryColumn,
		parser:  htmltable.NewParser(fetcher, logger),
		cleaner: services.NewCleaner(logger),
		logger:  logger,
	}
}

// QueryURL builds the search URL for one job title and year. Spaces in the
// job title become '+'.
func (s *Scraper) QueryURL(year int, jobTitle string) string {
	return fmt.Sprintf("%s?em=&job=%s&city=&year=%d", s.baseURL, url.QueryEscape(jobTitle), year)
}

// Scrape fetches the salary table for every year and job title, years in the
// outer loop. A query returning an empty table is recorded with a nil table.
// The monetary column of every present table is converted to integers.
func (s *Scraper) Scrape(ctx context.Context, years []int, jobTitles []string) (*models.Dataset, error) {
	if err := validate(years, jobTitles); err != nil {
		return nil, err
	}

	s.logger.Info("[h1b] Starting scrape — %d years × %d job titles", len(years), len(jobTitles))

	ds := &models.Dataset{}
	for _, year := range years {
		for _, job := range jobTitles {
			tbl, err := s.scrapeOne(ctx, year, job)
			if err != nil {
				return nil, err
			}
			ds.Add(models.Record{Year: year, JobTitle: job, Table: tbl})
		}
	}

	if err := s.cleaner.NormalizeDataset(ds, s.column); err != nil {
		return nil, err
	}

	s.logger.Info("[h1b] Scrape complete — %d records", len(ds.Records))
	return ds, nil
}

func (s *Scraper) scrapeOne(ctx context.Context, year int, job string) (*models.Table, error) {
	target := s.QueryURL(year, services.NormaliseText(job))
	s.logger.Info("[h1b] Fetching %d / %s", year, job)

	catalog, err := s.parser.Parse(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("year %d, job %q: %w", year, job, err)
	}

	// The search page renders exactly one results table.
	tbl, err := catalog.First()
	if err != nil {
		return nil, fmt.Errorf("year %d, job %q: %w", year, job, err)
	}
	if tbl.Len() == 0 {
		s.logger.Warn("[h1b] %d / %s returned no rows", year, job)
		return nil, nil
	}

	s.logger.Debug("[h1b] %d / %s — %d rows", year, job, tbl.Len())
	return tbl, nil
}

// ExtractSpecificTable returns the table recorded for year and jobTitle.
// A nil table with a nil error is an absent record.
func ExtractSpecificTable(ds *models.Dataset, year int, jobTitle string) (*models.Table, error) {
	if year <= 0 || strings.TrimSpace(jobTitle) == "" {
		return nil, fmt.Errorf("%w: year=%d job=%q", ErrInvalidArgument, year, jobTitle)
	}
	return ds.Lookup(year, jobTitle)
}

func validate(years []int, jobTitles []string) error {
	for _, y := range years {
		if y <= 0 {
			return fmt.Errorf("%w: year %d", ErrInvalidArgument, y)
		}
	}
	for _, j := range jobTitles {
		if strings.TrimSpace(j) == "" {
			return fmt.Errorf("%w: blank job title", ErrInvalidArgument)
		}
	}
	return nil
}
