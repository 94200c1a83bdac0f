package offers

import (
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/hellowork/dates"
)

// Warning describes a page-level anomaly found while parsing. It is not an
// error: the page simply contributes fewer (or zero) records.
type Warning string

const (
	// WarnNoContainer means the offer list was not found, which is expected
	// on blocked or malformed pages.
	WarnNoContainer Warning = "offer list not found"
	// WarnNoListings means the offer list was present but empty.
	WarnNoListings Warning = "no offers on page"
)

// Parser turns a results page into records.
type Parser struct {
	sel     Selectors
	extract *Extractors
	now     func() time.Time
}

// NewParser creates a parser. A nil selectors value uses DefaultSelectors and
// a nil clock uses time.Now.
func NewParser(sel *Selectors, now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	complete := sel.withDefaults()
	return &Parser{
		sel:     complete,
		extract: &Extractors{sel: complete},
		now:     now,
	}
}

// ContainerSelector returns the selector of the offer list, which callers
// wait on before parsing.
func (p *Parser) ContainerSelector() string {
	return p.sel.Container
}

// Parse locates the offer list in doc and reads one record per direct child
// item, in document order. A record is produced for every item even when
// none of its fields can be read. The returned warning is empty when the
// page looked normal.
func (p *Parser) Parse(doc *goquery.Document) ([]Record, Warning) {
	container := doc.Find(p.sel.Container).First()
	if container.Length() == 0 {
		return []Record{}, WarnNoContainer
	}

	items := container.ChildrenFiltered(p.sel.Item)
	if items.Length() == 0 {
		return []Record{}, WarnNoListings
	}

	now := p.now()
	records := make([]Record, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		records = append(records, p.parseItem(item, now))
	})

	return records, ""
}

// parseItem reads one listing.
func (p *Parser) parseItem(item *goquery.Selection, now time.Time) Record {
	var r Record

	r.Title, r.Company = p.extract.TitleCompany(item)
	r.Location = p.extract.Location(item)
	r.PublishedAt = dates.Normalize(p.extract.DateRaw(item), now)

	if anchor := p.extract.DetailAnchor(item); anchor != nil {
		r.Description = p.extract.Description(anchor)
		r.SalaryText = p.extract.SalaryText(anchor)
	}

	return r
}
