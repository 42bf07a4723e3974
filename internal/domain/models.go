// Package domain provides the canonical literature record and the error
// taxonomy shared by every paper source connector.
package domain

import (
	"fmt"
	"strings"
)

// SourceType identifies a connector, i.e. the literature API that was queried.
type SourceType string

const (
	SourceTypeArXiv     SourceType = "arxiv"
	SourceTypePubMed    SourceType = "pubmed"
	SourceTypeEuropePMC SourceType = "europepmc"
)

// AllSourceTypes lists the connectors in a stable order.
var AllSourceTypes = []SourceType{
	SourceTypeArXiv,
	SourceTypePubMed,
	SourceTypeEuropePMC,
}

// String returns the string form of the source type.
func (s SourceType) String() string {
	return string(s)
}

// ParseSourceType parses a case-insensitive connector name.
func ParseSourceType(name string) (SourceType, error) {
	st := SourceType(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllSourceTypes {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
}

// Record source tags. Europe PMC reports the registry a record belongs to,
// so its tags are the upstream codes rather than the connector name.
const (
	SourceTagArXiv  = "arxiv"
	SourceTagPubMed = "pubmed"
)

// europePMCSourceCodes are the registry codes Europe PMC assigns to records.
var europePMCSourceCodes = map[string]struct{}{
	"MED": {}, "PMC": {}, "PPR": {}, "AGR": {}, "CBA": {},
	"CTX": {}, "ETH": {}, "HIR": {}, "NBK": {}, "PAT": {},
}

// IsEuropePMCSourceCode reports whether tag is a Europe PMC registry code.
func IsEuropePMCSourceCode(tag string) bool {
	_, ok := europePMCSourceCodes[tag]
	return ok
}

// CanonicalURL returns the landing page of a record, built from its source
// tag and identifier. Upper-case tags outside the known registry codes are
// treated as Europe PMC registries too. It returns an empty string for
// anything else.
func CanonicalURL(source, id string) string {
	if id == "" {
		return ""
	}
	switch {
	case source == SourceTagArXiv:
		return "https://arxiv.org/abs/" + id
	case source == SourceTagPubMed:
		return "https://pubmed.ncbi.nlm.nih.gov/" + id + "/"
	case IsEuropePMCSourceCode(source), isRegistryCode(source):
		return "https://europepmc.org/article/" + source + "/" + id
	default:
		return ""
	}
}

func isRegistryCode(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
