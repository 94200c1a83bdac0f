package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// HTTPProvider fetches pages with a plain HTTP GET and parses the response
// body. Scripts are not executed, so it only suits pages rendered on the
// server. Fetches are rate limited.
type HTTPProvider struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	doc       *goquery.Document
}

// NewHTTPProvider creates an HTTP provider.
func NewHTTPProvider(opts *Options) *HTTPProvider {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &HTTPProvider{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Navigate fetches url and keeps the parsed body as the current page. On
// failure the previous page is discarded.
func (p *HTTPProvider) Navigate(ctx context.Context, url string) error {
	p.doc = nil

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NavigationError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return &NavigationError{URL: url, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	p.doc = doc
	return nil
}

// WaitFor checks selector against the fetched page. A static page cannot
// change, so a missing match is reported as a timeout immediately.
func (p *HTTPProvider) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	if p.doc == nil {
		return ErrNotNavigated
	}
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
	}
	return nil
}

// CurrentDocument returns the fetched page.
func (p *HTTPProvider) CurrentDocument(context.Context) (*goquery.Document, error) {
	if p.doc == nil {
		return nil, ErrNotNavigated
	}
	return p.doc, nil
}

// RunScript does nothing: there is no script engine.
func (p *HTTPProvider) RunScript(context.Context, string) error {
	return nil
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
