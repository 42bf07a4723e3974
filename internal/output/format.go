// Package output renders connector results for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/papersources"
)

// Format selects how results are written.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat parses a case-insensitive format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use json, yaml or table", name)
	}
}

// Paper is the serialized form of a canonical record.
type Paper struct {
	ID              string          `json:"id" yaml:"id"`
	Source          string          `json:"source" yaml:"source"`
	Title           string          `json:"title" yaml:"title"`
	Abstract        string          `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors         []domain.Author `json:"authors" yaml:"authors"`
	PublicationDate string          `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	PublicationYear int             `json:"publication_year,omitempty" yaml:"publication_year,omitempty"`
	DOI             string          `json:"doi,omitempty" yaml:"doi,omitempty"`
	Journal         string          `json:"journal,omitempty" yaml:"journal,omitempty"`
	URL             string          `json:"url,omitempty" yaml:"url,omitempty"`
	Keywords        []string        `json:"keywords" yaml:"keywords"`
}

// SearchPage is the serialized form of one search result page.
type SearchPage struct {
	Source       string  `json:"source" yaml:"source"`
	TotalResults int     `json:"total_results" yaml:"total_results"`
	Offset       int     `json:"offset" yaml:"offset"`
	HasMore      bool    `json:"has_more" yaml:"has_more"`
	NextOffset   int     `json:"next_offset,omitempty" yaml:"next_offset,omitempty"`
	Papers       []Paper `json:"papers" yaml:"papers"`
}

// Source is the serialized form of a registered connector.
type Source struct {
	Type    string `json:"type" yaml:"type"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// NewPaper converts a canonical record.
func NewPaper(p *domain.Paper) Paper {
	out := Paper{
		ID:              p.ID,
		Source:          p.Source,
		Title:           p.Title,
		Abstract:        p.Abstract,
		Authors:         p.Authors,
		PublicationYear: p.PublicationYear,
		DOI:             p.DOI,
		Journal:         p.Journal,
		URL:             p.URL,
		Keywords:        p.Keywords,
	}
	if out.Authors == nil {
		out.Authors = []domain.Author{}
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	if p.HasPublicationDate() {
		out.PublicationDate = p.PublicationDate.String()
	}
	return out
}

// NewSearchPage converts a search result requested at offset.
func NewSearchPage(r *papersources.SearchResult, offset int) SearchPage {
	page := SearchPage{
		Source:       r.Source.String(),
		TotalResults: r.TotalResults,
		Offset:       offset,
		HasMore:      r.HasMore,
		Papers:       make([]Paper, len(r.Papers)),
	}
	if r.HasMore {
		page.NextOffset = r.NextOffset
	}
	for i, p := range r.Papers {
		page.Papers[i] = NewPaper(p)
	}
	return page
}

// WriteSearchResult writes one search result page.
func WriteSearchResult(w io.Writer, f Format, r *papersources.SearchResult, offset int) error {
	page := NewSearchPage(r, offset)
	switch f {
	case FormatJSON:
		return writeJSON(w, page)
	case FormatYAML:
		return writeYAML(w, page)
	default:
		return formatSearchTable(w, page)
	}
}

// WritePaper writes a single record.
func WritePaper(w io.Writer, f Format, p *domain.Paper) error {
	paper := NewPaper(p)
	switch f {
	case FormatJSON:
		return writeJSON(w, paper)
	case FormatYAML:
		return writeYAML(w, paper)
	default:
		return formatPaperDetail(w, paper)
	}
}

// WriteSources writes the registered connectors.
func WriteSources(w io.Writer, f Format, sources []papersources.PaperSource) error {
	out := make([]Source, len(sources))
	for i, s := range sources {
		out[i] = Source{
			Type:    s.SourceType().String(),
			Name:    s.Name(),
			Enabled: s.IsEnabled(),
		}
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, out)
	case FormatYAML:
		return writeYAML(w, out)
	default:
		return formatSourcesTable(w, out)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
