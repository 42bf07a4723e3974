package domain

import (
	"strings"

	"cloud.google.com/go/civil"
)

// Author represents a paper author with optional affiliation and ORCID.
type Author struct {
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
}

// String returns a formatted string representation of the author.
func (a Author) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)

	if a.Affiliation != "" {
		sb.WriteString(" (")
		sb.WriteString(a.Affiliation)
		sb.WriteString(")")
	}

	if a.ORCID != "" {
		sb.WriteString(" [")
		sb.WriteString(a.ORCID)
		sb.WriteString("]")
	}

	return sb.String()
}

// Paper is the canonical literature record every format adapter produces.
//
// A Paper is built only through NewPaper and is not modified afterwards.
// Two papers are equal when their IDs are equal.
type Paper struct {
	// ID is the source-local identifier with any version suffix removed.
	ID string
	// Source is the short tag of the originating database.
	Source string
	Title  string
	// Abstract may be empty.
	Abstract string
	// PublicationDate is the zero date when the source gave none.
	PublicationDate civil.Date
	// PublicationYear is kept for sources that only report a year.
	PublicationYear int
	DOI             string
	Journal         string
	// URL is derived from Source and ID, see CanonicalURL.
	URL      string
	Authors  []Author
	Keywords []string
}

// NewPaper validates p and returns a normalized copy.
// ID, Source and Title are required; slices are copied so the caller's backing
// arrays cannot alias the record.
func NewPaper(p Paper) (*Paper, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	p.Source = strings.TrimSpace(p.Source)

	if p.ID == "" {
		return nil, NewValidationError("id", "is required")
	}
	if p.Source == "" {
		return nil, NewValidationError("source", "is required")
	}
	if p.Title == "" {
		return nil, NewValidationError("title", "is required")
	}

	p.Abstract = strings.TrimSpace(p.Abstract)
	p.DOI = strings.TrimSpace(p.DOI)
	p.Journal = strings.TrimSpace(p.Journal)
	if p.PublicationYear == 0 && p.PublicationDate.IsValid() {
		p.PublicationYear = p.PublicationDate.Year
	}
	p.URL = CanonicalURL(p.Source, p.ID)

	authors := make([]Author, len(p.Authors))
	copy(authors, p.Authors)
	p.Authors = authors

	keywords := make([]string, len(p.Keywords))
	copy(keywords, p.Keywords)
	p.Keywords = keywords

	return &p, nil
}

// Equal reports whether both records describe the same source identifier.
func (p *Paper) Equal(other *Paper) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID
}

// HasDOI reports whether the record carries a DOI.
func (p *Paper) HasDOI() bool {
	return p.DOI != ""
}

// HasJournal reports whether the record carries a journal name.
func (p *Paper) HasJournal() bool {
	return p.Journal != ""
}

// HasPublicationDate reports whether the record carries a calendar date.
func (p *Paper) HasPublicationDate() bool {
	return p.PublicationDate.IsValid()
}

// AuthorNames returns author names in source order.
func (p *Paper) AuthorNames() []string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.Name
	}
	return names
}
