package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"h1b-scraper/config"
	"h1b-scraper/htmltable"
	"h1b-scraper/models"
	"h1b-scraper/scraper"
	"h1b-scraper/scraper/h1b"
	"h1b-scraper/services"
	"h1b-scraper/storage"
	"h1b-scraper/utils"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "h1b-scraper",
		Short:        "Scrape H-1B salary tables into a CSV file",
		Long:         "Fetches the H-1B salary search results for every configured year and job title, normalises the salary column and writes the combined table to CSV.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd.Context(), cmd.OutOrStdout())
		},
	}
	root.AddCommand(newParseCmd())
	return root
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "parse URL...",
		Short:        "Print every HTML table found at the given URLs",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
}

func setup() (*config.Config, *utils.Logger, scraper.Fetcher, func(), error) {
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		return nil, nil, nil, nil, err
	}
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	fetcher := scraper.NewFetcher(cfg, logger)
	cleanup := func() {
		if c, ok := fetcher.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return cfg, logger, fetcher, cleanup, nil
}

func runScrape(ctx context.Context, out io.Writer) error {
	cfg, logger, fetcher, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("=== H-1B Salary Scraper starting ===")
	logger.Info("Config — years: %v | jobs: %v | fetch: %s | store: %s",
		cfg.Years, cfg.JobTitles, cfg.FetchMode, cfg.StoreDriver)

	s := h1b.New(cfg, fetcher, logger)
	tables, err := s.Scrape(ctx, cfg.Years, cfg.JobTitles)
	if err != nil {
		logger.Error("Scrape failed: %v", err)
		return err
	}

	ordered := &models.Dataset{}
	for _, year := range cfg.Years {
		for _, job := range cfg.JobTitles {
			tbl, err := h1b.ExtractSpecificTable(tables, year, job)
			if err != nil {
				logger.Error("Lookup failed: %v", err)
				return err
			}
			ordered.Add(models.Record{Year: year, JobTitle: job, Table: tbl})
		}
	}

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		return err
	}
	defer csvWriter.Close()

	if err := csvWriter.Write(ordered); err != nil {
		logger.Error("CSV write failed: %v", err)
		return err
	}
	logger.Info("Salary data saved to %s", cfg.CSVOutputPath)

	insightData := ordered
	store, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open %s store: %v", cfg.StoreDriver, err)
		return err
	}
	if store != nil {
		defer store.Close()
		if err := store.Write(ordered); err != nil {
			logger.Error("%s write failed: %v", cfg.StoreDriver, err)
			return err
		}
		logger.Info("Salary rows stored in %s (table: salary_rows)", cfg.StoreDriver)

		stored, err := store.FetchDataset()
		if err != nil {
			logger.Warn("Failed to read back stored rows, using in-memory data: %v", err)
		} else {
			insightData = stored
		}
	}

	insights := services.NewInsightService(logger)
	insights.Print(out, insights.Generate(insightData, cfg.MonetaryColumn))

	fmt.Fprintf(out, "Done. CSV → %s\n", cfg.CSVOutputPath)
	return nil
}

func openStore(cfg *config.Config) (*storage.SQLWriter, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return storage.NewPostgresWriter(cfg.DSN())
	case config.StoreSQLite:
		return storage.NewSQLiteWriter(cfg.SQLitePath)
	default:
		return nil, nil
	}
}

func runParse(ctx context.Context, out io.Writer, urls []string) error {
	_, logger, fetcher, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	parser := htmltable.NewParser(fetcher, logger)
	catalog, err := parser.BatchParse(ctx, urls)
	if err != nil {
		logger.Error("Parse failed: %v", err)
		return err
	}

	for _, e := range catalog.Entries {
		services.PrintTable(out, e.Table)
	}
	fmt.Fprintf(out, "%d tables, %d warnings\n", catalog.Len(), len(catalog.Diagnostics))
	return nil
}
