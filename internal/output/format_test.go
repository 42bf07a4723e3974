package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/papersources"
)

type stubSource struct {
	st      domain.SourceType
	name    string
	enabled bool
}

func (s stubSource) Search(context.Context, papersources.SearchParams) (*papersources.SearchResult, error) {
	return nil, nil
}
func (s stubSource) GetByID(context.Context, string) (*domain.Paper, error) { return nil, nil }
func (s stubSource) SourceType() domain.SourceType                        { return s.st }
func (s stubSource) Name() string                                         { return s.name }
func (s stubSource) IsEnabled() bool                                      { return s.enabled }

func samplePapers(t *testing.T) []*domain.Paper {
	t.Helper()
	first, err := domain.NewPaper(domain.Paper{
		ID:              "38012345",
		Source:          domain.SourceTagPubMed,
		Title:           "Malaria vaccine efficacy in children: a randomised trial across seven African countries",
		Abstract:        "Background text.",
		PublicationDate: civil.Date{Year: 2023, Month: time.November, Day: 20},
		DOI:             "10.1016/j.example.2023.01.001",
		Journal:         "Lancet",
		Authors: []domain.Author{
			{Name: "Jane Smith", Affiliation: "Oxford", ORCID: "0000-0002-1825-0097"},
			{Name: "Ali Doe"},
		},
		Keywords: []string{"malaria", "vaccine"},
	})
	require.NoError(t, err)

	second, err := domain.NewPaper(domain.Paper{
		ID:              "hep-th/9901001",
		Source:          domain.SourceTagArXiv,
		Title:           "Strings",
		PublicationYear: 1999,
	})
	require.NoError(t, err)

	return []*domain.Paper{first, second}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"table", FormatTable, false},
		{"csv", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteSearchResult_JSON(t *testing.T) {
	result := papersources.NewSearchResult(domain.SourceTypePubMed, samplePapers(t), 57, 20, time.Second)

	var buf bytes.Buffer
	require.NoError(t, WriteSearchResult(&buf, FormatJSON, result, 20))

	var page SearchPage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &page), buf.String())

	assert.Equal(t, "pubmed", page.Source)
	assert.Equal(t, 57, page.TotalResults)
	assert.Equal(t, 20, page.Offset)
	assert.True(t, page.HasMore)
	assert.Equal(t, 22, page.NextOffset)
	require.Len(t, page.Papers, 2)

	assert.Equal(t, "38012345", page.Papers[0].ID)
	assert.Equal(t, "2023-11-20", page.Papers[0].PublicationDate)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/38012345/", page.Papers[0].URL)
	assert.Equal(t, "0000-0002-1825-0097", page.Papers[0].Authors[0].ORCID)

	assert.Empty(t, page.Papers[1].PublicationDate)
	assert.Equal(t, 1999, page.Papers[1].PublicationYear)
	assert.NotNil(t, page.Papers[1].Keywords)
}

func TestWritePaper_YAML(t *testing.T) {
	paper := samplePapers(t)[0]

	var buf bytes.Buffer
	require.NoError(t, WritePaper(&buf, FormatYAML, paper))

	var decoded Paper
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded), buf.String())
	assert.Equal(t, "38012345", decoded.ID)
	assert.Equal(t, "Lancet", decoded.Journal)
	assert.Equal(t, []string{"malaria", "vaccine"}, decoded.Keywords)
	assert.Equal(t, "Oxford", decoded.Authors[0].Affiliation)

	assert.Contains(t, buf.String(), "publication_date: \"2023-11-20\"")
}

func TestWriteSearchResult_Table(t *testing.T) {
	result := papersources.NewSearchResult(domain.SourceTypePubMed, samplePapers(t), 57, 0, time.Second)

	var buf bytes.Buffer
	require.NoError(t, WriteSearchResult(&buf, FormatTable, result, 0))

	out := buf.String()
	assert.Contains(t, out, "Found 57 results from pubmed (showing 1-2)")
	assert.Contains(t, out, "38012345")
	assert.Contains(t, out, "hep-th/9901001")
	assert.Contains(t, out, "Jane Smith et al.")
	assert.Contains(t, out, "1999")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, "seven African countries")
	assert.Contains(t, out, "--offset 2")
}

func TestWriteSearchResult_TableEmpty(t *testing.T) {
	result := papersources.NewSearchResult(domain.SourceTypeArXiv, nil, 0, 0, 0)

	var buf bytes.Buffer
	require.NoError(t, WriteSearchResult(&buf, FormatTable, result, 0))
	assert.Equal(t, "No results from arxiv.\n", buf.String())
}

func TestWritePaper_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePaper(&buf, FormatTable, samplePapers(t)[0]))

	out := buf.String()
	assert.Contains(t, out, "Malaria vaccine efficacy")
	assert.Contains(t, out, "2023-11-20")
	assert.Contains(t, out, "Jane Smith (Oxford) [0000-0002-1825-0097]")
	assert.Contains(t, out, "malaria, vaccine")
	assert.Contains(t, out, "Background text.")
}

func TestWriteSources(t *testing.T) {
	sources := []papersources.PaperSource{
		stubSource{st: domain.SourceTypeArXiv, name: "arXiv", enabled: true},
		stubSource{st: domain.SourceTypeEuropePMC, name: "Europe PMC", enabled: false},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSources(&buf, FormatJSON, sources))

		var out []Source
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, []Source{
			{Type: "arxiv", Name: "arXiv", Enabled: true},
			{Type: "europepmc", Name: "Europe PMC", Enabled: false},
		}, out)
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSources(&buf, FormatTable, sources))

		out := buf.String()
		assert.Contains(t, out, "Europe PMC")
		assert.Contains(t, out, "enabled")
		assert.Contains(t, out, "disabled")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "ßüö…", truncate("ßüöäëï", 4))
	assert.True(t, strings.HasSuffix(truncate(strings.Repeat("x", 100), 60), "…"))
}
