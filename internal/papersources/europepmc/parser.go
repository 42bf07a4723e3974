package europepmc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/papersources"
)

// Parser converts Europe PMC search responses into canonical records.
type Parser struct{}

var _ papersources.Parser = Parser{}

// Parse returns the results of a search response in response order.
// Malformed bodies and bodies without a result list yield an empty slice.
func (p Parser) Parse(raw []byte) []*domain.Paper {
	page, err := p.ParsePage(raw)
	if err != nil {
		return []*domain.Paper{}
	}
	return page.Papers
}

// HitCount returns the total number of hits the response declares, or zero
// when the body cannot be read.
func (p Parser) HitCount(raw []byte) int {
	resp, err := ParseResponse(raw)
	if err != nil {
		return 0
	}
	return resp.HitCount
}

// ParsePage decodes a search response into its records and hit count.
func (p Parser) ParsePage(raw []byte) (papersources.Page, error) {
	resp, err := ParseResponse(raw)
	if err != nil {
		return papersources.Page{Papers: []*domain.Paper{}}, err
	}
	return papersources.Page{Papers: resultsToPapers(resp), Total: resp.HitCount}, nil
}

// ParseResponse decodes the raw search response.
func ParseResponse(raw []byte) (*SearchResponse, error) {
	var resp SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding Europe PMC response: %w", err)
	}
	return &resp, nil
}

func resultsToPapers(resp *SearchResponse) []*domain.Paper {
	if resp.ResultList == nil {
		return []*domain.Paper{}
	}

	papers := make([]*domain.Paper, 0, len(resp.ResultList.Results))
	for i := range resp.ResultList.Results {
		if paper := resultToPaper(&resp.ResultList.Results[i]); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papers
}

// resultToPaper maps one hit, or returns nil when it lacks an id or title.
func resultToPaper(r *Result) *domain.Paper {
	date := parseDate(r.FirstPublicationDate)

	year, err := strconv.Atoi(strings.TrimSpace(string(r.PubYear)))
	if err != nil {
		year = date.Year
	}

	journal := strings.TrimSpace(r.JournalTitle)
	if journal == "" && r.JournalInfo != nil {
		journal = strings.TrimSpace(r.JournalInfo.Journal.Title)
		if journal == "" {
			journal = strings.TrimSpace(r.JournalInfo.Journal.ISOAbbreviation)
		}
	}

	var keywords []string
	if r.KeywordList != nil {
		for _, kw := range r.KeywordList.Keywords {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}

	authors := splitAuthorString(r.AuthorString)
	if len(authors) == 0 {
		authors = structuredAuthors(r.AuthorList)
	}

	paper, err := domain.NewPaper(domain.Paper{
		ID:              r.ID,
		Source:          strings.ToUpper(strings.TrimSpace(r.Source)),
		Title:           normalizeWhitespace(r.Title),
		Abstract:        normalizeWhitespace(r.AbstractText),
		PublicationDate: date,
		PublicationYear: year,
		DOI:             r.DOI,
		Journal:         journal,
		Authors:         authors,
		Keywords:        keywords,
	})
	if err != nil {
		return nil
	}
	return paper
}

// splitAuthorString splits "Smith J, Doe A." into author names, dropping
// the trailing period Europe PMC appends.
func splitAuthorString(s string) []domain.Author {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	authors := make([]domain.Author, 0, len(parts))
	for _, part := range parts {
		if name := normalizeWhitespace(part); name != "" {
			authors = append(authors, domain.Author{Name: name})
		}
	}
	return authors
}

// structuredAuthors maps the authorList of core responses.
func structuredAuthors(list *AuthorList) []domain.Author {
	if list == nil {
		return nil
	}

	authors := make([]domain.Author, 0, len(list.Authors))
	for _, a := range list.Authors {
		name := normalizeWhitespace(a.FullName)
		if name == "" {
			name = normalizeWhitespace(a.FirstName + " " + a.LastName)
		}
		if name == "" {
			name = normalizeWhitespace(a.CollectiveName)
		}
		if name == "" {
			continue
		}

		author := domain.Author{Name: name}
		if a.AuthorID != nil && strings.EqualFold(a.AuthorID.Type, "ORCID") {
			author.ORCID = strings.TrimSpace(a.AuthorID.Value)
		}
		if a.Affiliations != nil && len(a.Affiliations.Affiliations) > 0 {
			author.Affiliation = normalizeWhitespace(a.Affiliations.Affiliations[0].Affiliation)
		}
		authors = append(authors, author)
	}
	return authors
}

func parseDate(s string) civil.Date {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}
	}
	return d
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
