package crawler

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/hellowork/browser"
)

// OutcomeKind tags the result of fetching one page.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeTimeout        OutcomeKind = "timeout"
	OutcomeTransportError OutcomeKind = "transport_error"
	OutcomeUnknownError   OutcomeKind = "unknown_error"
)

// Outcome is the result of fetching one page. Document is set only for
// OutcomeSuccess; Err is set for every other kind.
type Outcome struct {
	Kind     OutcomeKind
	Document *goquery.Document
	Err      error
}

// Success wraps a fetched document.
func Success(doc *goquery.Document) Outcome {
	return Outcome{Kind: OutcomeSuccess, Document: doc}
}

// Failure classifies err into a failed outcome.
func Failure(err error) Outcome {
	return Outcome{Kind: Classify(err), Err: err}
}

// OK reports whether the page was fetched.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// Detail returns the failure message, or "" on success.
func (o Outcome) Detail() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Classify maps a provider error onto an outcome kind. Waits that expire are
// timeouts; network, HTTP status and navigation failures are transport
// errors; anything else is unknown.
func Classify(err error) OutcomeKind {
	if err == nil {
		return OutcomeSuccess
	}

	if errors.Is(err, browser.ErrWaitTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}

	var statusErr *browser.StatusError
	var navErr *browser.NavigationError
	var urlErr *url.Error
	if errors.As(err, &statusErr) || errors.As(err, &navErr) || errors.As(err, &urlErr) || netErr != nil {
		return OutcomeTransportError
	}

	return OutcomeUnknownError
}
