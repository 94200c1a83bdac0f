package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// ChromeProvider drives a Chrome tab through chromedp.
type ChromeProvider struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewChromeProvider launches Chrome and opens one tab. The browser lives
// until Close is called or ctx is cancelled.
func NewChromeProvider(ctx context.Context, opts *Options) (*ChromeProvider, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
	)
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	allocOpts = append(allocOpts, chromedp.UserAgent(userAgent))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// An empty run starts the browser so launch failures surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromeProvider{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// run executes actions on the tab, aborting them if ctx is cancelled.
// Cancelling a child of the tab context leaves the tab open.
func (p *ChromeProvider) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.tabCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.tabCtx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url in the tab.
func (p *ChromeProvider) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// WaitFor waits until selector is present in the DOM.
func (p *ChromeProvider) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	err := p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	return waitError(ctx, selector, err)
}

// CurrentDocument serializes the live DOM and parses it.
func (p *ChromeProvider) CurrentDocument(ctx context.Context) (*goquery.Document, error) {
	var html string
	if err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}
	return ParseDocument(html)
}

// RunScript evaluates code in the tab.
func (p *ChromeProvider) RunScript(ctx context.Context, code string) error {
	if err := p.run(ctx, 0, chromedp.Evaluate(code, nil)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

// Close closes the tab and shuts the browser down.
func (p *ChromeProvider) Close() error {
	p.cancelTab()
	p.cancelAlloc()
	return nil
}
