// Package browser provides the page sources the crawler drives: a real
// browser over the Chrome DevTools Protocol (chromedp or rod) or a plain
// HTTP client for pages that need no script execution.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Errors reported by providers.
var (
	ErrWaitTimeout     = errors.New("timed out waiting for selector")
	ErrNotNavigated    = errors.New("no page has been loaded")
	ErrUnknownProvider = errors.New("unknown provider")
)

// Provider drives a single browsing session. Calls are sequential: a
// Provider is not safe for concurrent use.
type Provider interface {
	// Navigate loads url as the current page.
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches in the current page. It returns
	// an error wrapping ErrWaitTimeout if timeout elapses first.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// CurrentDocument snapshots the current page.
	CurrentDocument(ctx context.Context) (*goquery.Document, error)
	// RunScript evaluates code in the current page, ignoring its result.
	RunScript(ctx context.Context, code string) error
	// Close ends the session and releases the browser.
	Close() error
}

// NavigationError reports a failure to load a page.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// StatusError reports a page served with a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d fetching %s", e.StatusCode, e.URL)
}

// Kind names a provider implementation.
type Kind string

const (
	KindChromedp Kind = "chromedp"
	KindRod      Kind = "rod"
	KindHTTP     Kind = "http"
)

// ParseKind validates a provider name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindChromedp, KindRod, KindHTTP:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q (want chromedp, rod or http)", ErrUnknownProvider, s)
	}
}

// Options configures any provider. Fields irrelevant to a provider are
// ignored by it.
type Options struct {
	Kind      Kind
	Headless  bool
	UserAgent string
	// NoSandbox disables the Chrome sandbox, needed in most containers.
	NoSandbox bool
	// ExecPath overrides the browser binary.
	ExecPath string
	// RequestTimeout bounds a single HTTP fetch.
	RequestTimeout time.Duration
	// RequestsPerSecond caps the HTTP fetch rate. Zero means no cap.
	RequestsPerSecond float64
}

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultOptions returns options for a headless chromedp session.
func DefaultOptions() *Options {
	return &Options{
		Kind:              KindChromedp,
		Headless:          true,
		UserAgent:         DefaultUserAgent,
		RequestTimeout:    10 * time.Second,
		RequestsPerSecond: 1,
	}
}

// Open starts a provider of the configured kind. A nil opts uses
// DefaultOptions.
func Open(ctx context.Context, opts *Options) (Provider, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Kind {
	case KindChromedp, "":
		return NewChromeProvider(ctx, opts)
	case KindRod:
		return NewRodProvider(ctx, opts)
	case KindHTTP:
		return NewHTTPProvider(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Kind)
	}
}

// ParseDocument parses a serialized page into a document tree.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// waitError maps an expired wait onto ErrWaitTimeout. Cancellation of the
// caller's ctx is reported as-is.
func waitError(ctx context.Context, selector string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
	}
	return err
}
