package pubmed

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-connectors/internal/domain"
)

func TestParser_Parse(t *testing.T) {
	papers := Parser{}.Parse([]byte(efetchResponseXML))
	require.Len(t, papers, 2)

	p := papers[0]
	assert.Equal(t, "12345678", p.ID)
	assert.Equal(t, domain.SourceTagPubMed, p.Source)
	assert.Equal(t, "CRISPR-Cas9 Gene Editing in Biomedical Research", p.Title)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345678/", p.URL)
	assert.Equal(t, "10.1234/test.2023.001", p.DOI)
	assert.Equal(t, "Journal of Testing", p.Journal)
	assert.Equal(t, civil.Date{Year: 2023, Month: time.February, Day: 28}, p.PublicationDate)
	assert.Equal(t, 2023, p.PublicationYear)

	require.Len(t, p.Authors, 3)
	assert.Equal(t, "John A Smith", p.Authors[0].Name)
	assert.Equal(t, "Department of Genetics, University of Research", p.Authors[0].Affiliation)
	assert.Equal(t, "0000-0001-2345-6789", p.Authors[0].ORCID)
	assert.Equal(t, "Emily Johnson", p.Authors[1].Name)
	assert.Equal(t, "CRISPR Research Consortium", p.Authors[2].Name)

	assert.Equal(t,
		"BACKGROUND: Gene editing technologies have revolutionized biomedical research. "+
			"METHODS: We analyzed CRISPR-Cas9 applications across multiple studies. "+
			"RESULTS: Our findings demonstrate significant improvements in editing efficiency. "+
			"CONCLUSION: CRISPR technology continues to advance therapeutic development.",
		p.Abstract)

	assert.Equal(t,
		[]string{"CRISPR", "Gene editing", "Therapeutics", "CRISPR-Cas Systems", "Gene Editing"},
		p.Keywords)

	second := papers[1]
	assert.Equal(t, "87654321", second.ID)
	assert.Equal(t, "10.5678/mol.2022.050", second.DOI)
	assert.Equal(t, "Molecular Therapy Methods", second.Journal)
	assert.False(t, second.HasPublicationDate())
	assert.Equal(t, 2022, second.PublicationYear)
	assert.Empty(t, second.Keywords)
}

func TestParser_ParseMalformed(t *testing.T) {
	for _, raw := range []string{"", "<PubmedArticleSet>", "plain text", esearchResponseXML} {
		papers := Parser{}.Parse([]byte(raw))
		assert.NotNil(t, papers, "input %q", raw)
		assert.Empty(t, papers, "input %q", raw)
	}

	papers := Parser{}.Parse([]byte(efetchEmptyResponseXML))
	assert.NotNil(t, papers)
	assert.Empty(t, papers)
}

func TestParser_ParsePage(t *testing.T) {
	page, err := Parser{}.ParsePage([]byte(efetchResponseXML))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	_, err = Parser{}.ParsePage([]byte("<nope"))
	assert.Error(t, err)
}

func TestParseESearch(t *testing.T) {
	result, err := ParseESearch([]byte(esearchResponseXML))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{"12345678", "87654321"}, result.IDList.IDs)

	result, err = ParseESearch([]byte(esearchPhraseNotFoundXML))
	require.NoError(t, err)
	require.NotNil(t, result.ErrorList)
	assert.Equal(t, []string{"nonexistent_term_xyz"}, result.ErrorList.PhraseNotFound)

	_, err = ParseESearch([]byte("{}"))
	assert.Error(t, err)
}

func newArticle(pmid, title string) PubmedArticle {
	return PubmedArticle{
		MedlineCitation: MedlineCitation{
			PMID: PMID{Value: pmid},
			Article: Article{
				ArticleTitle: Text(title),
				Journal: Journal{
					JournalIssue: JournalIssue{PubDate: PubDate{Year: "2023"}},
				},
			},
		},
	}
}

func TestArticleToPaper(t *testing.T) {
	t.Run("skips article without PMID or title", func(t *testing.T) {
		noID := newArticle("", "Title")
		assert.Nil(t, articleToPaper(&noID))

		noTitle := newArticle("1", "  ")
		assert.Nil(t, articleToPaper(&noTitle))
	})

	t.Run("prefers ArticleIdList DOI over ELocationID", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.ELocationID = []ELocationID{
			{EIdType: "doi", Valid: "Y", Value: "10.1234/eloc"},
		}
		article.PubmedData.ArticleIdList.ArticleIds = []ArticleId{
			{IdType: "pubmed", Value: "12345"},
			{IdType: "doi", Value: "10.5678/article"},
		}

		assert.Equal(t, "10.5678/article", articleToPaper(&article).DOI)
	})

	t.Run("falls back to ELocationID DOI", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.ELocationID = []ELocationID{
			{EIdType: "pii", Value: "S0000"},
			{EIdType: "doi", Valid: "Y", Value: "10.1234/test"},
		}

		assert.Equal(t, "10.1234/test", articleToPaper(&article).DOI)
	})

	t.Run("skips invalid ELocationID DOI", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.ELocationID = []ELocationID{
			{EIdType: "doi", Valid: "N", Value: "invalid-doi"},
		}

		assert.False(t, articleToPaper(&article).HasDOI())
	})

	t.Run("uses electronic publication date when available", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.Journal.JournalIssue.PubDate = PubDate{Year: "2023", Month: "Dec"}
		article.MedlineCitation.Article.ArticleDate = []ArticleDate{
			{DateType: "Electronic", Year: "2023", Month: "06", Day: "15"},
		}

		paper := articleToPaper(&article)
		assert.Equal(t, civil.Date{Year: 2023, Month: time.June, Day: 15}, paper.PublicationDate)
	})

	t.Run("journal issue month without day", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.Journal.JournalIssue.PubDate = PubDate{Year: "2021", Month: "Sep"}

		paper := articleToPaper(&article)
		assert.Equal(t, civil.Date{Year: 2021, Month: time.September, Day: 1}, paper.PublicationDate)
	})

	t.Run("year only", func(t *testing.T) {
		article := newArticle("12345", "Test Article")

		paper := articleToPaper(&article)
		assert.False(t, paper.HasPublicationDate())
		assert.Equal(t, 2023, paper.PublicationYear)
	})

	t.Run("single unlabeled abstract", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.Abstract = &Abstract{
			AbstractTexts: []AbstractText{{Value: "Simple abstract without sections."}},
		}

		assert.Equal(t, "Simple abstract without sections.", articleToPaper(&article).Abstract)
	})

	t.Run("missing abstract is empty", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		assert.Equal(t, "", articleToPaper(&article).Abstract)
	})

	t.Run("skips invalid authors", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.AuthorList = &AuthorList{
			Authors: []Author{
				{ValidYN: "Y", LastName: "Valid", ForeName: "Author"},
				{ValidYN: "N", LastName: "Invalid", ForeName: "Author"},
				{LastName: "Another", ForeName: "Valid"},
				{LastName: "Solo"},
			},
		}

		paper := articleToPaper(&article)
		assert.Equal(t, []string{"Author Valid", "Valid Another", "Solo"}, paper.AuthorNames())
	})

	t.Run("strips ORCID resolver prefix", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.AuthorList = &AuthorList{
			Authors: []Author{{
				LastName:    "Curie",
				ForeName:    "Marie",
				Identifiers: []Identifier{{Source: "ORCID", Value: "https://orcid.org/0000-0002-1825-0097"}},
			}},
		}

		assert.Equal(t, "0000-0002-1825-0097", articleToPaper(&article).Authors[0].ORCID)
	})

	t.Run("uses ISOAbbreviation when Title is empty", func(t *testing.T) {
		article := newArticle("12345", "Test Article")
		article.MedlineCitation.Article.Journal.ISOAbbreviation = "J Abbrev"

		assert.Equal(t, "J Abbrev", articleToPaper(&article).Journal)
	})
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Month
		ok       bool
	}{
		{"1", time.January, true},
		{"01", time.January, true},
		{"12", time.December, true},
		{"Jan", time.January, true},
		{"JANUARY", time.January, true},
		{"may", time.May, true},
		{"Sep", time.September, true},
		{"", 0, false},
		{"invalid", 0, false},
		{"13", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			month, ok := parseMonth(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, month)
			}
		})
	}
}

func TestExtractYearFromMedlineDate(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"2020 Jan-Feb", 2020},
		{"2021 Spring", 2021},
		{"2019-2020", 2019},
		{"2022", 2022},
		{"Jan 2020", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractYearFromMedlineDate(tt.input))
		})
	}
}

func TestBuildDate(t *testing.T) {
	d, ok := buildDate("2024", "Feb", "29")
	assert.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 29}, d)

	_, ok = buildDate("2023", "Feb", "30")
	assert.False(t, ok)

	_, ok = buildDate("", "Feb", "1")
	assert.False(t, ok)
}
