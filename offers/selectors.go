package offers

// Selectors holds the CSS selectors and marker phrases used to read listing
// pages. The target site's markup is an implicit external contract, so these
// are kept in one place where they can be overridden when it changes.
type Selectors struct {
	// Container is the list holding one <li> per listing.
	Container string `yaml:"container"`
	// Item filters the container's direct children.
	Item string `yaml:"item"`
	// TitleLink is the anchor wrapping the title heading.
	TitleLink string `yaml:"title_link"`
	// TitleHeading is the heading inside TitleLink whose paragraphs are
	// title and company.
	TitleHeading string `yaml:"title_heading"`
	Location     string `yaml:"location"`
	Published    string `yaml:"published"`
	// DetailAnchor carries the aria-label used for description and salary.
	DetailAnchor string `yaml:"detail_anchor"`

	DescriptionPrefix string `yaml:"description_prefix"`
	SalaryMarker      string `yaml:"salary_marker"`
	CurrencyMarker    string `yaml:"currency_marker"`
}

// DefaultSelectors returns the selectors matching the current HelloWork
// result page markup.
func DefaultSelectors() *Selectors {
	return &Selectors{
		Container:         `ul[aria-label="liste des offres"]`,
		Item:              "li",
		TitleLink:         `a[data-cy="offerTitle"]`,
		TitleHeading:      "h3",
		Location:          `div[data-cy="localisationCard"]`,
		Published:         "div.tw-typo-s.tw-text-grey-500.tw-pl-1.tw-pt-1",
		DetailAnchor:      "a.tw-no-underline.tw-outline-none.tw-inline",
		DescriptionPrefix: "Voir offre de",
		SalaryMarker:      "avec un salaire de",
		CurrencyMarker:    "€",
	}
}

// withDefaults returns a copy of s with empty fields filled from
// DefaultSelectors.
func (s *Selectors) withDefaults() Selectors {
	def := DefaultSelectors()
	if s == nil {
		return *def
	}

	out := *s
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&out.Container, def.Container)
	fill(&out.Item, def.Item)
	fill(&out.TitleLink, def.TitleLink)
	fill(&out.TitleHeading, def.TitleHeading)
	fill(&out.Location, def.Location)
	fill(&out.Published, def.Published)
	fill(&out.DetailAnchor, def.DetailAnchor)
	fill(&out.DescriptionPrefix, def.DescriptionPrefix)
	fill(&out.SalaryMarker, def.SalaryMarker)
	fill(&out.CurrencyMarker, def.CurrencyMarker)
	return out
}
