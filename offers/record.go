package offers

import "time"

// Record is one listing read from a results page. Every field is optional:
// a nil field means the value could not be extracted, and never voids the
// other fields.
type Record struct {
	Title       *string    `json:"title"`
	Company     *string    `json:"company"`
	Location    *string    `json:"location"`
	SalaryText  *string    `json:"salary_text"`
	PublishedAt *time.Time `json:"published_at"`
	Description *string    `json:"description"`
}

// IsEmpty reports whether no field of the record could be extracted. Empty
// records are still kept: they mark that a listing existed on the page.
func (r Record) IsEmpty() bool {
	return r.Title == nil &&
		r.Company == nil &&
		r.Location == nil &&
		r.SalaryText == nil &&
		r.PublishedAt == nil &&
		r.Description == nil
}

// Dataset is an ordered sequence of records in discovery order: page
// ascending, then list order within a page.
type Dataset []Record
