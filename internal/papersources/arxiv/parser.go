package arxiv

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/papersources"
)

// arxivIDRegex extracts the arXiv ID from the full URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// versionSuffixRegex matches a trailing arXiv version such as "v2".
var versionSuffixRegex = regexp.MustCompile(`v\d+$`)

// Parser converts arXiv Atom feeds into canonical records.
type Parser struct{}

// Ensure Parser implements the Parser interface.
var _ papersources.Parser = Parser{}

// Parse returns the records of an Atom feed in document order.
// Malformed feeds yield an empty slice.
func (p Parser) Parse(raw []byte) []*domain.Paper {
	page, err := p.ParsePage(raw)
	if err != nil {
		return []*domain.Paper{}
	}
	return page.Papers
}

// TotalResults returns the feed's declared total hit count, or zero when
// the feed cannot be read.
func (p Parser) TotalResults(raw []byte) int {
	feed, err := decodeFeed(raw)
	if err != nil {
		return 0
	}
	return feed.TotalResults
}

// ParsePage decodes a feed into its records and declared total.
// Unlike Parse it reports malformed input.
func (p Parser) ParsePage(raw []byte) (papersources.Page, error) {
	feed, err := decodeFeed(raw)
	if err != nil {
		return papersources.Page{Papers: []*domain.Paper{}}, err
	}

	papers := make([]*domain.Paper, 0, len(feed.Entries))
	for i := range feed.Entries {
		if paper := entryToPaper(&feed.Entries[i]); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papersources.Page{Papers: papers, Total: feed.TotalResults}, nil
}

func decodeFeed(raw []byte) (*Feed, error) {
	var feed Feed
	if err := xml.NewDecoder(bytes.NewReader(raw)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding arXiv feed: %w", err)
	}
	return &feed, nil
}

// entryToPaper converts an arXiv Atom entry to a domain Paper.
// It returns nil for entries without an identifier or a title, and for the
// error entries arXiv emits in place of results.
func entryToPaper(entry *Entry) *domain.Paper {
	if entry == nil || strings.Contains(entry.ID, "arxiv.org/api/errors") {
		return nil
	}

	authors := make([]domain.Author, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		name := normalizeWhitespace(a.Name)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{
			Name:        name,
			Affiliation: normalizeWhitespace(a.Affiliation),
		})
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if term := strings.TrimSpace(cat.Term); term != "" {
			categories = append(categories, term)
		}
	}

	paper, err := domain.NewPaper(domain.Paper{
		ID:              extractArXivID(entry.ID),
		Source:          domain.SourceTagArXiv,
		Title:           normalizeWhitespace(entry.Title),
		Abstract:        normalizeWhitespace(entry.Summary),
		PublicationDate: parseDate(entry.Published),
		DOI:             strings.TrimSpace(entry.DOI),
		Journal:         normalizeWhitespace(entry.JournalRef),
		Authors:         authors,
		Keywords:        categories,
	})
	if err != nil {
		return nil
	}
	return paper
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
// URLs outside /abs/ fall back to their last path segment.
func extractArXivID(entryURL string) string {
	entryURL = strings.TrimSpace(entryURL)
	if matches := arxivIDRegex.FindStringSubmatch(entryURL); len(matches) == 2 {
		return matches[1]
	}
	if entryURL == "" {
		return ""
	}
	segment := path.Base(strings.TrimRight(entryURL, "/"))
	if segment == "." || segment == "/" {
		return ""
	}
	return versionSuffixRegex.ReplaceAllString(segment, "")
}

// parseDate keeps the date portion of an Atom timestamp.
func parseDate(s string) civil.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civil.DateOf(t)
	}
	if len(s) >= 10 {
		if d, err := civil.ParseDate(s[:10]); err == nil {
			return d
		}
	}
	return civil.Date{}
}

// normalizeWhitespace trims and collapses multiple whitespace characters.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
