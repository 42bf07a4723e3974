package arxiv

import "encoding/xml"

// Feed represents the Atom XML response from the arXiv API.
// Element names are bound to the Atom, OpenSearch and arXiv namespaces.
type Feed struct {
	XMLName      xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
	TotalResults int      `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	StartIndex   int      `xml:"http://a9.com/-/spec/opensearch/1.1/ startIndex"`
	ItemsPerPage int      `xml:"http://a9.com/-/spec/opensearch/1.1/ itemsPerPage"`
	Entries      []Entry  `xml:"http://www.w3.org/2005/Atom entry"`
}

// Entry represents a single arXiv paper in the Atom feed.
type Entry struct {
	ID              string     `xml:"http://www.w3.org/2005/Atom id"` // "http://arxiv.org/abs/2301.12345v1"
	Title           string     `xml:"http://www.w3.org/2005/Atom title"`
	Summary         string     `xml:"http://www.w3.org/2005/Atom summary"`   // abstract
	Published       string     `xml:"http://www.w3.org/2005/Atom published"` // "2023-01-15T18:30:00Z"
	Updated         string     `xml:"http://www.w3.org/2005/Atom updated"`
	Authors         []Author   `xml:"http://www.w3.org/2005/Atom author"`
	Categories      []Category `xml:"http://www.w3.org/2005/Atom category"`
	Links           []Link     `xml:"http://www.w3.org/2005/Atom link"`
	DOI             string     `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef      string     `xml:"http://arxiv.org/schemas/atom journal_ref"`
	Comment         string     `xml:"http://arxiv.org/schemas/atom comment"`
	PrimaryCategory Category   `xml:"http://arxiv.org/schemas/atom primary_category"`
}

// Author represents a paper author in the arXiv Atom feed.
type Author struct {
	Name        string `xml:"http://www.w3.org/2005/Atom name"`
	Affiliation string `xml:"http://arxiv.org/schemas/atom affiliation"`
}

// Category represents an arXiv subject category.
type Category struct {
	Term string `xml:"term,attr"`
}

// Link represents a link element in the Atom feed.
type Link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}
