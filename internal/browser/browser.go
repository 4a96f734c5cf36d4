// internal/browser/browser.go

// Package browser renders pages in headless Chrome for platforms that
// assemble their metrics client-side. It plugs into the page fetcher as
// an alternative HTML source; the plain HTTP client stays the default.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Config controls the rendered-page fetch.
type Config struct {
	Headless bool `yaml:"headless" json:"headless"`
	// Timeout bounds one navigation including waits.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// WaitFor is a CSS selector to wait for before capturing HTML.
	// Empty waits for the document body only.
	WaitFor string `yaml:"wait_for" json:"wait_for"`
	// WaitDelay is an extra settle delay after the wait condition.
	WaitDelay     time.Duration `yaml:"wait_delay" json:"wait_delay"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	DisableImages bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultConfig returns the settings used when the config file leaves
// the browser section empty.
func DefaultConfig() Config {
	return Config{
		Headless:      true,
		Timeout:       30 * time.Second,
		WaitDelay:     2 * time.Second,
		DisableImages: true,
	}
}

// Client fetches rendered HTML. Each fetch runs in a fresh browser
// context; at weekly batch scale that is cheaper than keeping Chrome
// warm between rows.
type Client struct {
	config Config
}

// NewClient creates a rendered-page HTML source.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Client{config: config}
}

// FetchHTML implements the page fetcher's HTML source contract: load
// the URL, wait for the configured condition, and return the rendered
// document.
func (c *Client) FetchHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if !c.config.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if c.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.config.UserAgent))
	}
	if c.config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, c.config.Timeout)
	defer cancelRun()

	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if c.config.WaitFor != "" {
		tasks = append(tasks, chromedp.WaitVisible(c.config.WaitFor))
	}
	if c.config.WaitDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(c.config.WaitDelay))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}
