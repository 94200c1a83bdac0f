package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodProvider drives a Chrome page through go-rod.
type RodProvider struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewRodProvider launches a browser and opens a blank page.
func NewRodProvider(ctx context.Context, opts *Options) (*RodProvider, error) {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox)
	if opts.ExecPath != "" {
		l = l.Bin(opts.ExecPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	return &RodProvider{
		launcher: l,
		browser:  browser,
		page:     page,
	}, nil
}

// Navigate loads url in the page.
func (p *RodProvider) Navigate(ctx context.Context, url string) error {
	if err := p.page.Context(ctx).Navigate(url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// WaitFor waits until selector matches an element in the page.
func (p *RodProvider) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := p.page.Context(ctx).Timeout(timeout).Element(selector)
	return waitError(ctx, selector, err)
}

// CurrentDocument serializes the live DOM and parses it.
func (p *RodProvider) CurrentDocument(ctx context.Context) (*goquery.Document, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}
	return ParseDocument(html)
}

// RunScript evaluates code in the page.
func (p *RodProvider) RunScript(ctx context.Context, code string) error {
	if _, err := p.page.Context(ctx).Eval(code); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

// Close closes the browser and kills its process.
func (p *RodProvider) Close() error {
	err := p.browser.Close()
	p.launcher.Kill()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
