package httpserver

import (
	"github.com/helixir/literature-connectors/internal/domain"
	"github.com/helixir/literature-connectors/internal/papersources"
)

// Response types for JSON serialization.

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

type healthResponse struct {
	Status         string `json:"status"`
	EnabledSources int    `json:"enabled_sources"`
}

type sourceResponse struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type listSourcesResponse struct {
	Sources []sourceResponse `json:"sources"`
}

type paperResponse struct {
	ID              string           `json:"id"`
	Source          string           `json:"source"`
	Title           string           `json:"title"`
	Abstract        string           `json:"abstract,omitempty"`
	Authors         []authorResponse `json:"authors"`
	PublicationDate string           `json:"publication_date,omitempty"`
	PublicationYear int              `json:"publication_year,omitempty"`
	DOI             string           `json:"doi,omitempty"`
	Journal         string           `json:"journal,omitempty"`
	URL             string           `json:"url,omitempty"`
	Keywords        []string         `json:"keywords"`
}

type authorResponse struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

type searchResponse struct {
	Source       string          `json:"source"`
	Papers       []paperResponse `json:"papers"`
	TotalResults int             `json:"total_results"`
	HasMore      bool            `json:"has_more"`
	NextOffset   int             `json:"next_offset,omitempty"`
	TookMS       int64           `json:"took_ms"`
}

type sourceSearchResponse struct {
	Source string          `json:"source"`
	Result *searchResponse `json:"result,omitempty"`
	Error  *errorResponse  `json:"error,omitempty"`
}

type searchAllResponse struct {
	Results []sourceSearchResponse `json:"results"`
}

// Converter functions

func domainPaperToResponse(p *domain.Paper) paperResponse {
	authors := make([]authorResponse, len(p.Authors))
	for i, a := range p.Authors {
		authors[i] = authorResponse{
			Name:        a.Name,
			Affiliation: a.Affiliation,
			ORCID:       a.ORCID,
		}
	}

	resp := paperResponse{
		ID:              p.ID,
		Source:          p.Source,
		Title:           p.Title,
		Abstract:        p.Abstract,
		Authors:         authors,
		PublicationYear: p.PublicationYear,
		DOI:             p.DOI,
		Journal:         p.Journal,
		URL:             p.URL,
		Keywords:        p.Keywords,
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if p.HasPublicationDate() {
		resp.PublicationDate = p.PublicationDate.String()
	}
	return resp
}

func searchResultToResponse(r *papersources.SearchResult) *searchResponse {
	papers := make([]paperResponse, len(r.Papers))
	for i, p := range r.Papers {
		papers[i] = domainPaperToResponse(p)
	}

	resp := &searchResponse{
		Source:       r.Source.String(),
		Papers:       papers,
		TotalResults: r.TotalResults,
		HasMore:      r.HasMore,
		TookMS:       r.SearchDuration.Milliseconds(),
	}
	if r.HasMore {
		resp.NextOffset = r.NextOffset
	}
	return resp
}

func sourceToResponse(s papersources.PaperSource) sourceResponse {
	return sourceResponse{
		Type:    s.SourceType().String(),
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
	}
}
