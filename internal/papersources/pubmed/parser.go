package pubmed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/papersources"
)

// Parser converts efetch PubmedArticleSet documents into canonical records.
type Parser struct{}

var _ papersources.Parser = Parser{}

// Parse returns the articles of a PubmedArticleSet in document order.
// Malformed documents yield an empty slice.
func (p Parser) Parse(raw []byte) []*domain.Paper {
	page, err := p.ParsePage(raw)
	if err != nil {
		return []*domain.Paper{}
	}
	return page.Papers
}

// ParsePage decodes a PubmedArticleSet. efetch reports no hit count, so
// Total is the number of articles in the document.
func (p Parser) ParsePage(raw []byte) (papersources.Page, error) {
	var set PubmedArticleSet
	if err := xml.NewDecoder(bytes.NewReader(raw)).Decode(&set); err != nil {
		return papersources.Page{Papers: []*domain.Paper{}}, fmt.Errorf("decoding PubmedArticleSet: %w", err)
	}

	papers := make([]*domain.Paper, 0, len(set.Articles))
	for i := range set.Articles {
		if paper := articleToPaper(&set.Articles[i]); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papersources.Page{Papers: papers, Total: len(set.Articles)}, nil
}

// ParseESearch decodes an esearch response.
func ParseESearch(raw []byte) (*ESearchResult, error) {
	var result ESearchResult
	if err := xml.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding eSearchResult: %w", err)
	}
	return &result, nil
}

// articleToPaper converts a PubmedArticle to a domain.Paper, or nil when
// the article has no PMID or title.
func articleToPaper(article *PubmedArticle) *domain.Paper {
	citation := article.MedlineCitation

	date, year := extractPublicationDate(citation.Article)

	journal := strings.TrimSpace(citation.Article.Journal.Title)
	if journal == "" {
		journal = strings.TrimSpace(citation.Article.Journal.ISOAbbreviation)
	}

	paper, err := domain.NewPaper(domain.Paper{
		ID:              strings.TrimSpace(citation.PMID.Value),
		Source:          domain.SourceTagPubMed,
		Title:           normalizeWhitespace(citation.Article.ArticleTitle.String()),
		Abstract:        extractAbstract(citation.Article.Abstract),
		PublicationDate: date,
		PublicationYear: year,
		DOI:             extractDOI(citation.Article, article.PubmedData),
		Journal:         journal,
		Authors:         extractAuthors(citation.Article.AuthorList),
		Keywords:        extractKeywords(citation),
	})
	if err != nil {
		return nil
	}
	return paper
}

// extractDOI prefers the ArticleIdList DOI and falls back to a valid
// ELocationID.
func extractDOI(article Article, pubmedData PubmedData) string {
	for _, aid := range pubmedData.ArticleIdList.ArticleIds {
		if strings.EqualFold(aid.IdType, "doi") {
			if doi := strings.TrimSpace(aid.Value); doi != "" {
				return doi
			}
		}
	}

	for _, eloc := range article.ELocationID {
		if strings.EqualFold(eloc.EIdType, "doi") && eloc.Valid != "N" {
			if doi := strings.TrimSpace(eloc.Value); doi != "" {
				return doi
			}
		}
	}

	return ""
}

// extractPublicationDate returns the most precise date available and the
// publication year. ArticleDate wins over the journal issue date. Dates
// known only to the year leave the civil date zero.
func extractPublicationDate(article Article) (civil.Date, int) {
	for _, ad := range article.ArticleDate {
		if ad.DateType == "" || strings.EqualFold(ad.DateType, "Electronic") {
			if d, ok := buildDate(ad.Year, ad.Month, ad.Day); ok {
				return d, d.Year
			}
		}
	}

	pubDate := article.Journal.JournalIssue.PubDate
	if pubDate.Year != "" {
		if pubDate.Month != "" {
			if d, ok := buildDate(pubDate.Year, pubDate.Month, pubDate.Day); ok {
				return d, d.Year
			}
		}
		if year, err := strconv.Atoi(strings.TrimSpace(pubDate.Year)); err == nil {
			return civil.Date{}, year
		}
	}

	// MedlineDate can be "2020 Jan-Feb", "2020 Spring", "2020-2021", etc.
	if pubDate.MedlineDate != "" {
		return civil.Date{}, extractYearFromMedlineDate(pubDate.MedlineDate)
	}

	return civil.Date{}, 0
}

// buildDate assembles a calendar date. A missing day defaults to the first
// of the month.
func buildDate(year, month, day string) (civil.Date, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return civil.Date{}, false
	}

	m, ok := parseMonth(month)
	if !ok {
		return civil.Date{}, false
	}

	d := 1
	if day = strings.TrimSpace(day); day != "" {
		if d, err = strconv.Atoi(day); err != nil {
			return civil.Date{}, false
		}
	}

	date := civil.Date{Year: y, Month: m, Day: d}
	return date, date.IsValid()
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseMonth parses a numeric or named month.
func parseMonth(month string) (time.Month, bool) {
	month = strings.TrimSpace(month)
	if m, err := strconv.Atoi(month); err == nil {
		return time.Month(m), m >= 1 && m <= 12
	}
	m, ok := monthNames[strings.ToLower(month)]
	return m, ok
}

// extractYearFromMedlineDate extracts the leading year from a MedlineDate.
func extractYearFromMedlineDate(medlineDate string) int {
	parts := strings.Fields(medlineDate)
	if len(parts) == 0 {
		return 0
	}
	year, err := strconv.Atoi(strings.Split(parts[0], "-")[0])
	if err != nil {
		return 0
	}
	return year
}

// extractAbstract concatenates abstract sections, prefixing labelled ones.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil {
		return ""
	}

	parts := make([]string, 0, len(abstract.AbstractTexts))
	for _, at := range abstract.AbstractTexts {
		text := normalizeWhitespace(at.Value)
		if text == "" {
			continue
		}
		if label := strings.TrimSpace(at.Label); label != "" {
			text = label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// extractAuthors converts PubMed authors to domain authors, skipping
// entries flagged invalid.
func extractAuthors(authorList *AuthorList) []domain.Author {
	if authorList == nil {
		return nil
	}

	authors := make([]domain.Author, 0, len(authorList.Authors))
	for _, a := range authorList.Authors {
		if a.ValidYN == "N" {
			continue
		}

		name := normalizeWhitespace(a.CollectiveName.String())
		if name == "" {
			name = normalizeWhitespace(a.ForeName + " " + a.LastName)
		}
		if name == "" {
			continue
		}

		var orcid string
		for _, id := range a.Identifiers {
			if strings.EqualFold(id.Source, "ORCID") {
				orcid = normalizeORCID(id.Value)
				break
			}
		}

		var affiliation string
		if len(a.AffiliationInfo) > 0 {
			affiliation = normalizeWhitespace(a.AffiliationInfo[0].Affiliation)
		}

		authors = append(authors, domain.Author{
			Name:        name,
			Affiliation: affiliation,
			ORCID:       orcid,
		})
	}
	return authors
}

// normalizeORCID strips the resolver prefix PubMed sometimes includes.
func normalizeORCID(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://orcid.org/")
	s = strings.TrimPrefix(s, "http://orcid.org/")
	return s
}

// extractKeywords lists author keywords first, then MeSH descriptors.
func extractKeywords(citation MedlineCitation) []string {
	var keywords []string
	for _, list := range citation.KeywordLists {
		for _, kw := range list.Keywords {
			if k := normalizeWhitespace(kw.String()); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	if citation.MeshHeadingList != nil {
		for _, mh := range citation.MeshHeadingList.MeshHeadings {
			if k := normalizeWhitespace(mh.DescriptorName.Value); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	return keywords
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
