package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	StoreNone     = "none"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL        string
	Years          []int
	JobTitles      []string
	MonetaryColumn string

	FetchMode      string
	ChromeBin      string
	HTTPTimeoutSec int

	CSVOutputPath string

	StoreDriver      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	SQLitePath       string

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	years, err := ParseYears(getEnv("YEARS", "2017-2018"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:        getEnv("BASE_URL", "https://h1bdata.info/index.php"),
		Years:          years,
		JobTitles:      splitList(getEnv("JOB_TITLES", "Software Engineer,Data Scientist")),
		MonetaryColumn: getEnv("MONETARY_COLUMN", "BASE SALARY"),

		FetchMode:      strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 0),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./salary_data.csv"),

		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreNone)),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "h1b_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./salary_data.db"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects option values the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("%w: FETCH_MODE %q", ErrInvalidValue, c.FetchMode)
	}
	switch c.StoreDriver {
	case StoreNone, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("%w: STORE_DRIVER %q", ErrInvalidValue, c.StoreDriver)
	}
	if len(c.JobTitles) == 0 {
		return fmt.Errorf("%w: JOB_TITLES is empty", ErrInvalidValue)
	}
	if c.HTTPTimeoutSec < 0 {
		return fmt.Errorf("%w: HTTP_TIMEOUT_SEC %d", ErrInvalidValue, c.HTTPTimeoutSec)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ParseYears accepts either an inclusive range ("2017-2019") or a comma list ("2017,2019").
func ParseYears(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if from, to, ok := strings.Cut(raw, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("%w: YEARS %q", ErrInvalidValue, raw)
		}
		end, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil || end < start {
			return nil, fmt.Errorf("%w: YEARS %q", ErrInvalidValue, raw)
		}
		years := make([]int, 0, end-start+1)
		for y := start; y <= end; y++ {
			years = append(years, y)
		}
		return years, nil
	}

	var years []int
	for _, part := range splitList(raw) {
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: YEARS %q", ErrInvalidValue, raw)
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: YEARS is empty", ErrInvalidValue)
	}
	return years, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
