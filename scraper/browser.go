package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/chromedp"

	"h1b-scraper/utils"
)

// BrowserFetcher renders pages in headless Chrome and returns the resulting DOM.
// The browser is started on first use and kept until Close.
type BrowserFetcher struct {
	chromeBin string
	logger    *utils.Logger

	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewBrowserFetcher creates a BrowserFetcher. An empty chromeBin is auto-detected.
func NewBrowserFetcher(chromeBin string, logger *utils.Logger) *BrowserFetcher {
	return &BrowserFetcher{chromeBin: chromeBin, logger: logger}
}

func (f *BrowserFetcher) start() error {
	if f.browserCtx != nil {
		return nil
	}

	chromeBin := f.chromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	f.logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Running the empty action list launches the browser so that every tab
	// opened from browserCtx shares this one process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("start browser: %w", err)
	}

	f.browserCtx = browserCtx
	f.cancelAlloc = cancelAlloc
	f.cancelBrowser = cancelBrowser
	return nil
}

// Fetch navigates to url and returns the outer HTML of the rendered document.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.start(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	f.logger.Debug("[browser] Navigating to %s", url)

	var markup string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
		return nil, fmt.Errorf("fetch %s: chromedp: %w", url, err)
	}
	return []byte(markup), nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() error {
	if f.browserCtx == nil {
		return nil
	}
	f.cancelBrowser()
	f.cancelAlloc()
	f.browserCtx = nil
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
