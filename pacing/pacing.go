// Package pacing issues human-like scroll and delay actions around page
// fetches. It is best-effort: it reduces request regularity but is not
// coupled to retries or correctness.
package pacing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrInvalidRange is returned by Config.Validate for a range whose minimum
// exceeds its maximum or is negative.
var ErrInvalidRange = errors.New("invalid pacing range")

// Scripter runs a script in the current page. The DOM providers implement it.
type Scripter interface {
	RunScript(ctx context.Context, code string) error
}

// Config holds the ranges random actions are drawn from. All ranges are
// inclusive.
type Config struct {
	// Pixels scrolled down before parsing a page
	ScrollMin int `yaml:"scroll_min"`
	ScrollMax int `yaml:"scroll_max"`
	// Pause after scrolling, before parsing
	JitterMin time.Duration `yaml:"jitter_min"`
	JitterMax time.Duration `yaml:"jitter_max"`
	// Pause after every page, successful or not
	PageDelayMin time.Duration `yaml:"page_delay_min"`
	PageDelayMax time.Duration `yaml:"page_delay_max"`
}

// DefaultConfig returns the ranges used against the live site.
func DefaultConfig() *Config {
	return &Config{
		ScrollMin:    300,
		ScrollMax:    800,
		JitterMin:    300 * time.Millisecond,
		JitterMax:    800 * time.Millisecond,
		PageDelayMin: 1500 * time.Millisecond,
		PageDelayMax: 3500 * time.Millisecond,
	}
}

// Validate checks that every range is non-negative and ordered.
func (c *Config) Validate() error {
	if c.ScrollMin < 0 || c.ScrollMin > c.ScrollMax {
		return fmt.Errorf("%w: scroll %d..%d", ErrInvalidRange, c.ScrollMin, c.ScrollMax)
	}
	if c.JitterMin < 0 || c.JitterMin > c.JitterMax {
		return fmt.Errorf("%w: jitter %v..%v", ErrInvalidRange, c.JitterMin, c.JitterMax)
	}
	if c.PageDelayMin < 0 || c.PageDelayMin > c.PageDelayMax {
		return fmt.Errorf("%w: page delay %v..%v", ErrInvalidRange, c.PageDelayMin, c.PageDelayMax)
	}
	return nil
}

// Policy draws and performs pacing actions. A Policy is used by one crawl
// at a time.
type Policy struct {
	config   Config
	disabled bool
	rng      *rand.Rand
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPolicy creates a policy from config. A nil config uses DefaultConfig and
// a nil rng uses a randomly seeded generator.
func NewPolicy(config *Config, rng *rand.Rand) *Policy {
	if config == nil {
		config = DefaultConfig()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Policy{
		config: *config,
		rng:    rng,
		sleep:  sleepContext,
	}
}

// Disabled returns a policy that never scrolls or sleeps.
func Disabled() *Policy {
	p := NewPolicy(nil, nil)
	p.disabled = true
	return p
}

// Enabled reports whether the policy performs any action.
func (p *Policy) Enabled() bool {
	return !p.disabled
}

// ScrollScript returns the script scrolling the page down by px pixels.
func ScrollScript(px int) string {
	return fmt.Sprintf("window.scrollBy(0, %d);", px)
}

// SimulateBrowse scrolls the page by a random distance and then pauses for a
// random jitter. A failed scroll is returned but the pause is still taken,
// so callers may log it and carry on. Only cancellation aborts the pause.
func (p *Policy) SimulateBrowse(ctx context.Context, page Scripter) error {
	if p.disabled {
		return nil
	}

	var scrollErr error
	if err := page.RunScript(ctx, ScrollScript(p.NextScroll())); err != nil {
		scrollErr = fmt.Errorf("failed to scroll: %w", err)
	}

	if err := p.sleep(ctx, p.NextJitter()); err != nil {
		return err
	}

	return scrollErr
}

// BetweenPages pauses for a random inter-page delay. It returns ctx.Err() if
// ctx is cancelled during the pause.
func (p *Policy) BetweenPages(ctx context.Context) error {
	if p.disabled {
		return nil
	}
	return p.sleep(ctx, p.NextPageDelay())
}

// NextScroll draws a scroll distance in pixels.
func (p *Policy) NextScroll() int {
	return p.config.ScrollMin + p.rng.IntN(p.config.ScrollMax-p.config.ScrollMin+1)
}

// NextJitter draws a pre-parse pause.
func (p *Policy) NextJitter() time.Duration {
	return p.between(p.config.JitterMin, p.config.JitterMax)
}

// NextPageDelay draws an inter-page pause.
func (p *Policy) NextPageDelay() time.Duration {
	return p.between(p.config.PageDelayMin, p.config.PageDelayMax)
}

func (p *Policy) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rng.Int64N(int64(hi-lo)+1))
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
