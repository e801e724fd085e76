package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"h1b-scraper/config"
	"h1b-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrBadStatus is returned for non-2xx responses.
var ErrBadStatus = errors.New("unexpected http status")

// Fetcher retrieves the raw markup behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// NewFetcher builds the Fetcher selected by cfg.FetchMode.
func NewFetcher(cfg *config.Config, logger *utils.Logger) Fetcher {
	if cfg.FetchMode == config.FetchModeBrowser {
		return NewBrowserFetcher(cfg.ChromeBin, logger)
	}
	return NewHTTPFetcher(time.Duration(cfg.HTTPTimeoutSec)*time.Second, logger)
}

// HTTPFetcher performs plain GET requests.
type HTTPFetcher struct {
	client *resty.Client
	logger *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher. A zero timeout waits indefinitely.
func NewHTTPFetcher(timeout time.Duration, logger *utils.Logger) *HTTPFetcher {
	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPFetcher{client: client, logger: logger}
}

// Fetch GETs url and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.logger.Debug("[fetch] GET %s", url)

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("fetch %s: %w: %d", url, ErrBadStatus, res.StatusCode())
	}

	f.logger.Debug("[fetch] %s -> %d (%d bytes)", url, res.StatusCode(), len(res.Body()))
	return res.Body(), nil
}
