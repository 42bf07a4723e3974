// Package europepmc provides a client for the Europe PMC REST search API.
//
// Europe PMC aggregates MEDLINE, PubMed Central, preprints, patents and
// several smaller registries. Every record carries the code of the registry
// it belongs to (MED, PMC, PPR, ...), which becomes the record's source tag.
//
// API documentation: https://europepmc.org/RestfulWebService
package europepmc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SearchResponse is the JSON body of the search endpoint.
type SearchResponse struct {
	Version        string      `json:"version"`
	HitCount       int         `json:"hitCount"`
	NextCursorMark string      `json:"nextCursorMark"`
	ResultList     *ResultList `json:"resultList"`
}

// ResultList wraps the page of results.
type ResultList struct {
	Results []Result `json:"result"`
}

// UnmarshalJSON decodes each result on its own and drops the ones that do
// not fit Result, so one odd record does not cost the rest of the page.
func (l *ResultList) UnmarshalJSON(data []byte) error {
	var raw struct {
		Results []json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	l.Results = make([]Result, 0, len(raw.Results))
	for _, msg := range raw.Results {
		var r Result
		if err := json.Unmarshal(msg, &r); err != nil {
			continue
		}
		l.Results = append(l.Results, r)
	}
	return nil
}

// Result is one search hit. Lite responses carry journalTitle; core
// responses nest the journal under journalInfo and add authorList.
type Result struct {
	ID                   string       `json:"id"`
	Source               string       `json:"source"`
	PMID                 Text         `json:"pmid"`
	PMCID                string       `json:"pmcid"`
	DOI                  string       `json:"doi"`
	Title                string       `json:"title"`
	AuthorString         string       `json:"authorString"`
	AuthorList           *AuthorList  `json:"authorList"`
	JournalTitle         string       `json:"journalTitle"`
	JournalInfo          *JournalInfo `json:"journalInfo"`
	PubYear              Text         `json:"pubYear"`
	FirstPublicationDate string       `json:"firstPublicationDate"`
	AbstractText         string       `json:"abstractText"`
	KeywordList          *KeywordList `json:"keywordList"`
}

// AuthorList holds structured author entries of core responses.
type AuthorList struct {
	Authors []Author `json:"author"`
}

// Author is a structured author entry.
type Author struct {
	FullName       string              `json:"fullName"`
	FirstName      string              `json:"firstName"`
	LastName       string              `json:"lastName"`
	CollectiveName string              `json:"collectiveName"`
	AuthorID       *AuthorID           `json:"authorId"`
	Affiliations   *AffiliationDetails `json:"authorAffiliationDetailsList"`
}

// AffiliationDetails lists an author's affiliations.
type AffiliationDetails struct {
	Affiliations []struct {
		Affiliation string `json:"affiliation"`
	} `json:"authorAffiliation"`
}

// AuthorID is an author identifier such as an ORCID.
type AuthorID struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// JournalInfo holds the nested journal details of core responses.
type JournalInfo struct {
	Journal struct {
		Title           string `json:"title"`
		ISOAbbreviation string `json:"isoabbreviation"`
	} `json:"journal"`
}

// KeywordList holds author keywords.
type KeywordList struct {
	Keywords []string `json:"keyword"`
}

// Text is a scalar field Europe PMC sends either as a string or as a number.
type Text string

// UnmarshalJSON accepts a JSON string, number or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = Text(n.String())
	return nil
}
