package offers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Extractors reads individual fields from a listing node. Each extractor is
// independent and fails soft: a missing node or unexpected shape yields nil
// instead of an error.
type Extractors struct {
	sel Selectors
}

// NewExtractors creates extractors for the given selectors. A nil or partial
// Selectors is completed from DefaultSelectors.
func NewExtractors(sel *Selectors) *Extractors {
	return &Extractors{sel: sel.withDefaults()}
}

// TitleCompany reads the title link heading of a listing. Its first two
// paragraphs are the title and company. With fewer than two paragraphs both
// values are nil.
func (e *Extractors) TitleCompany(item *goquery.Selection) (title, company *string) {
	heading := item.Find(e.sel.TitleLink).First().Find(e.sel.TitleHeading).First()
	paragraphs := heading.Find("p")
	if paragraphs.Length() < 2 {
		return nil, nil
	}

	return textOf(paragraphs.Eq(0)), textOf(paragraphs.Eq(1))
}

// Location returns the trimmed text of the localisation card.
func (e *Extractors) Location(item *goquery.Selection) *string {
	return textOf(item.Find(e.sel.Location).First())
}

// DateRaw returns the trimmed publication phrase, such as "il y a 3 jours".
func (e *Extractors) DateRaw(item *goquery.Selection) *string {
	return textOf(item.Find(e.sel.Published).First())
}

// DetailAnchor returns the listing's detail anchor, or nil when the listing
// has none.
func (e *Extractors) DetailAnchor(item *goquery.Selection) *goquery.Selection {
	anchor := item.Find(e.sel.DetailAnchor).First()
	if anchor.Length() == 0 {
		return nil
	}
	return anchor
}

// Description prefers the anchor's aria-label with the leading "Voir offre
// de" stripped, and falls back to the anchor's visible text.
func (e *Extractors) Description(anchor *goquery.Selection) *string {
	if anchor == nil || anchor.Length() == 0 {
		return nil
	}

	if label := strings.TrimSpace(anchor.AttrOr("aria-label", "")); label != "" {
		label = strings.TrimSpace(strings.TrimPrefix(label, e.sel.DescriptionPrefix))
		if label != "" {
			return &label
		}
	}

	return nonEmpty(visibleText(anchor))
}

// SalaryText extracts the raw salary phrase from the anchor's aria-label:
// the text between "avec un salaire de" and the next comma. Labels without a
// currency marker have no salary. The result is not parsed as an amount.
func (e *Extractors) SalaryText(anchor *goquery.Selection) *string {
	if anchor == nil || anchor.Length() == 0 {
		return nil
	}

	label := anchor.AttrOr("aria-label", "")
	if !strings.Contains(label, e.sel.CurrencyMarker) {
		return nil
	}

	_, after, found := strings.Cut(label, e.sel.SalaryMarker)
	if !found {
		return nil
	}
	salary, _, _ := strings.Cut(after, ",")

	return nonEmpty(strings.TrimSpace(salary))
}

// textOf returns the whitespace-normalized text of s, or nil when s is
// empty or has no text.
func textOf(s *goquery.Selection) *string {
	if s.Length() == 0 {
		return nil
	}
	return nonEmpty(strings.Join(strings.Fields(s.Text()), " "))
}

// visibleText joins the trimmed text nodes under s with single spaces, so
// that adjacent block elements don't run together.
func visibleText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
