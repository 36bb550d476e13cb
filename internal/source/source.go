// Package source gathers the public documents an EVP is built from and
// compiles them into the prompt context.
package source

import "fmt"

// Category identifies where a document came from. The set is closed.
type Category int

const (
	CategoryCompanySite Category = iota + 1
	CategoryPressRelease
	CategoryEmployeeReviews
	CategoryCompanyReport
)

// Categories lists every category in collection order.
func Categories() []Category {
	return []Category{
		CategoryCompanySite,
		CategoryPressRelease,
		CategoryEmployeeReviews,
		CategoryCompanyReport,
	}
}

// String returns the label shown in the prompt and to the user.
func (c Category) String() string {
	switch c {
	case CategoryCompanySite:
		return "Company website"
	case CategoryPressRelease:
		return "Press release"
	case CategoryEmployeeReviews:
		return "Glassdoor"
	case CategoryCompanyReport:
		return "Company report"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= CategoryCompanySite && c <= CategoryCompanyReport
}

// MarshalText renders the label, so documents serialize readably.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("source: invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// Document is one fetched source. Content has already been cleaned and
// truncated; documents are never modified after creation.
type Document struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Category Category `json:"category"`
	Content  string   `json:"content"`
}
