// Package canonical implements the in-memory deduplication index that
// merges paper records arriving from multiple independent sources (academic
// APIs and SERP providers) under one canonical identity.
package canonical

import "time"

// Author is one entry in a Paper's ordered author list. It carries no
// position field; an author's position is its index in Paper.Authors.
type Author struct {
	Name        string
	Affiliation string
	ORCID       string
}

// Paper is the provider-scoped bibliographic record produced by an
// AcademicClient and consumed by CanonicalPaperIndex. id is always
// provider-prefixed (e.g. "s2:<40hex>", "openalex:W<n>"). DOI, when
// present, is normalized: no "https://doi.org/" prefix, lowercased.
// Abstract == nil means the paper is a fetch-fallback candidate and MUST
// NOT be treated as citable evidence by the evidence graph.
type Paper struct {
	ID             string
	Title          string
	Abstract       *string
	Authors        []Author
	Year           *int
	PublishedDate  *time.Time
	DOI            *string
	ArxivID        *string
	Venue          *string
	CitationCount  *int
	ReferenceCount *int
	IsOpenAccess   *bool
	OAUrl          *string
	PDFUrl         *string
	SourceAPI      string
}

// Citation is a directed relationship between two Paper identities, keyed
// on provider paper IDs (not canonical IDs) per §4.6.
type Citation struct {
	CitingPaperID string
	CitedPaperID  string
	IsInfluential bool
	Context       *string
}
