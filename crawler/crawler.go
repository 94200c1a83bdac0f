// Package crawler walks a range of listing pages through a browser provider,
// turning each page into records while isolating per-page failures.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/pevans/hellowork/browser"
	"github.com/pevans/hellowork/offers"
	"github.com/pevans/hellowork/pacing"
)

// ErrInvalidTemplate is returned by ValidateTemplate for a URL template
// without a page placeholder.
var ErrInvalidTemplate = errors.New("URL template has no page placeholder")

// DefaultURLTemplate is the HelloWork search used when none is configured.
const DefaultURLTemplate = "https://www.hellowork.com/fr-fr/emploi/recherche.html?k=Data+analyst&p={page}"

// Default page range and container wait.
const (
	DefaultStartPage   = 1
	DefaultEndPage     = 50
	DefaultWaitTimeout = 10 * time.Second
)

// Config holds driver settings.
type Config struct {
	// URL of a results page, with "{page}" (or "{}" or "%d") where the page
	// number goes
	URLTemplate string
	// How long to wait for the offer list before skipping a page
	WaitTimeout time.Duration
	// Markup selectors; nil uses offers.DefaultSelectors
	Selectors *offers.Selectors
	// Pacing policy; nil uses pacing defaults
	Pacing *pacing.Policy
	// Logger for page progress and warnings; nil uses log.Default()
	Logger *log.Logger
	// Clock for date normalization; nil uses time.Now
	Now func() time.Time
	// Called after every completed page with its report and records
	OnPage func(report PageReport, records []offers.Record)
}

// DefaultConfig returns the configuration used against the live site.
func DefaultConfig() *Config {
	return &Config{
		URLTemplate: DefaultURLTemplate,
		WaitTimeout: DefaultWaitTimeout,
	}
}

// PageReport summarizes one page of a crawl.
type PageReport struct {
	Page    int            `json:"page"`
	URL     string         `json:"url"`
	Outcome OutcomeKind    `json:"outcome"`
	Detail  string         `json:"detail,omitempty"`
	Records int            `json:"records"`
	Warning offers.Warning `json:"warning,omitempty"`
}

// Result is the outcome of a crawl. Records keep discovery order.
type Result struct {
	StartPage   int
	EndPage     int
	Records     offers.Dataset
	Pages       []PageReport
	PagesOK     int
	PagesFailed int
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (r *Result) add(report PageReport, records []offers.Record) {
	r.Pages = append(r.Pages, report)
	r.Records = append(r.Records, records...)
	if report.Outcome == OutcomeSuccess {
		r.PagesOK++
	} else {
		r.PagesFailed++
	}
}

// Driver crawls listing pages one at a time through a single provider.
type Driver struct {
	provider browser.Provider
	parser   *offers.Parser
	pacing   *pacing.Policy
	logger   *log.Logger
	config   Config
}

// NewDriver creates a driver. A nil config uses DefaultConfig.
func NewDriver(provider browser.Provider, config *Config) *Driver {
	if config == nil {
		config = DefaultConfig()
	}

	cfg := *config
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	policy := cfg.Pacing
	if policy == nil {
		policy = pacing.NewPolicy(nil, nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Driver{
		provider: provider,
		parser:   offers.NewParser(cfg.Selectors, cfg.Now),
		pacing:   policy,
		logger:   logger,
		config:   cfg,
	}
}

// Run crawls pages start through end inclusive, in order. A failed page is
// logged, reported and skipped; it never stops the crawl. An inverted range
// yields an empty result. The only error returned is ctx.Err() when ctx is
// cancelled, together with the partial result gathered so far.
func (d *Driver) Run(ctx context.Context, start, end int) (*Result, error) {
	result := &Result{
		StartPage: start,
		EndPage:   end,
		Records:   offers.Dataset{},
		StartedAt: d.config.Now(),
	}
	defer func() { result.FinishedAt = d.config.Now() }()

	if start > end {
		d.logger.Printf("WARN: Invalid page range %d..%d, nothing to crawl", start, end)
		return result, nil
	}

	for page := start; page <= end; page++ {
		if err := ctx.Err(); err != nil {
			d.logger.Printf("INFO: Crawl cancelled before page %d", page)
			return result, err
		}

		report, records := d.crawlPage(ctx, page)
		if err := ctx.Err(); err != nil && report.Outcome != OutcomeSuccess {
			d.logger.Printf("INFO: Crawl cancelled during page %d", page)
			return result, err
		}

		result.add(report, records)
		if d.config.OnPage != nil {
			d.config.OnPage(report, records)
		}

		if err := d.pacing.BetweenPages(ctx); err != nil {
			return result, err
		}
	}

	d.logger.Printf("INFO: Crawl finished: %d records from %d pages (%d failed)",
		len(result.Records), result.PagesOK, result.PagesFailed)

	return result, nil
}

// crawlPage fetches and parses one page. Failures are folded into the
// report and never returned.
func (d *Driver) crawlPage(ctx context.Context, page int) (PageReport, []offers.Record) {
	url := PageURL(d.config.URLTemplate, page)
	report := PageReport{Page: page, URL: url}

	d.logger.Printf("INFO: Crawling page %d (%s)", page, url)

	outcome := d.Fetch(ctx, url)
	report.Outcome = outcome.Kind
	report.Detail = outcome.Detail()

	switch outcome.Kind {
	case OutcomeSuccess:
	case OutcomeTimeout:
		d.logger.Printf("WARN: Page %d timed out waiting for offers: %v", page, outcome.Err)
		return report, nil
	case OutcomeTransportError:
		d.logger.Printf("WARN: Page %d transport error: %v", page, outcome.Err)
		return report, nil
	default:
		d.logger.Printf("WARN: Page %d failed: %v", page, outcome.Err)
		return report, nil
	}

	records, warning := d.parser.Parse(outcome.Document)
	report.Records = len(records)
	report.Warning = warning
	if warning != "" {
		d.logger.Printf("WARN: Page %d: %s", page, warning)
	}

	return report, records
}

// Fetch loads url, waits for the offer list, simulates browsing and
// snapshots the page. Every failure is classified into the outcome.
func (d *Driver) Fetch(ctx context.Context, url string) Outcome {
	if err := d.provider.Navigate(ctx, url); err != nil {
		return Failure(err)
	}

	if err := d.provider.WaitFor(ctx, d.parser.ContainerSelector(), d.config.WaitTimeout); err != nil {
		return Failure(err)
	}

	if err := d.pacing.SimulateBrowse(ctx, d.provider); err != nil {
		if ctx.Err() != nil {
			return Failure(ctx.Err())
		}
		d.logger.Printf("WARN: Browse simulation failed on %s: %v", url, err)
	}

	doc, err := d.provider.CurrentDocument(ctx)
	if err != nil {
		return Failure(err)
	}

	return Success(doc)
}

// PageURL substitutes page into template. "{page}" is preferred; "{}" and
// "%d" are also recognized.
func PageURL(template string, page int) string {
	n := strconv.Itoa(page)
	switch {
	case strings.Contains(template, "{page}"):
		return strings.ReplaceAll(template, "{page}", n)
	case strings.Contains(template, "{}"):
		return strings.ReplaceAll(template, "{}", n)
	case strings.Contains(template, "%d"):
		return strings.ReplaceAll(template, "%d", n)
	default:
		return template
	}
}

// ValidateTemplate checks that template has a page placeholder.
func ValidateTemplate(template string) error {
	if strings.Contains(template, "{page}") ||
		strings.Contains(template, "{}") ||
		strings.Contains(template, "%d") {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidTemplate, template)
}
