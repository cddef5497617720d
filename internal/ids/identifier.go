// Package ids extracts and cross-resolves scholarly identifiers from URLs.
package ids

import (
	"regexp"
	"strings"
)

// PaperIdentifier is the structural extraction result of IdentifierExtractor.
// At least one ID field is populated when extracted from a recognized
// provider URL.
type PaperIdentifier struct {
	DOI               string
	PMID              string
	PMCID             string
	ArxivID           string
	OpenAlexWorkID    string
	S2PaperID         string
	CRID              string
	URL               string
	NeedsMetaExtraction bool
}

// IsEmpty reports whether no identifier field was populated.
func (p PaperIdentifier) IsEmpty() bool {
	return p.DOI == "" && p.PMID == "" && p.PMCID == "" && p.ArxivID == "" &&
		p.OpenAlexWorkID == "" && p.S2PaperID == "" && p.CRID == ""
}

// GetCanonicalID applies the fixed priority order (doi > pmid > pmcid >
// arxiv > openalex > s2 > empty) and returns the first present field's
// prefixed form. Callers needing the full meta/title/unknown fallback tiers
// use canonical.Index.CanonicalIDForPaper instead, since those tiers require
// the paper's title/author/year, which a bare URL extraction does not carry.
func (p PaperIdentifier) GetCanonicalID() string {
	switch {
	case p.DOI != "":
		return "doi:" + strings.ToLower(p.DOI)
	case p.PMID != "":
		return "pmid:" + p.PMID
	case p.PMCID != "":
		return "pmcid:" + p.PMCID
	case p.ArxivID != "":
		return "arxiv:" + strings.TrimPrefix(p.ArxivID, "arXiv:")
	case p.OpenAlexWorkID != "":
		return "openalex:" + p.OpenAlexWorkID
	case p.S2PaperID != "":
		return "s2:" + p.S2PaperID
	default:
		return ""
	}
}

var (
	doiPattern     = regexp.MustCompile(`(?i)doi\.org/(10\.\d{4,}(?:\.\d+)*/\S+)`)
	pmidPattern    = regexp.MustCompile(`(?i)pubmed\.ncbi\.nlm\.nih\.gov/(\d+)`)
	pmcidPattern   = regexp.MustCompile(`(?i)pmc\.ncbi\.nlm\.nih\.gov/articles/PMC(\d+)`)
	arxivPattern   = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/([a-z0-9.\-/]+?)(?:v\d+)?(?:\.pdf)?(?:[?#]|$)`)
	jstagePattern  = regexp.MustCompile(`(?i)jstage\.jst\.go\.jp/article/\S+/(10\.\d{4,}/\S+)`)
	ciniiPattern   = regexp.MustCompile(`(?i)cinii\.ac\.jp/crid/(\d+)`)
	openalexPattern = regexp.MustCompile(`(?i)openalex\.org/(W\d+)`)
	s2Pattern      = regexp.MustCompile(`(?i)semanticscholar\.org/paper/[^/]+/([0-9a-f]{40})(?:[/?#]|$)`)

	// natureDomainPattern / scienceDirectDomainPattern narrow a domain without
	// emitting a DOI directly; they only mark needs_meta_extraction.
	natureDomainPattern        = regexp.MustCompile(`(?i)nature\.com/articles/`)
	scienceDirectDomainPattern = regexp.MustCompile(`(?i)sciencedirect\.com/science/article/`)
)

// Extract applies the ordered 8-pattern cascade over a URL. When a DOI and an
// OpenAlex ID coexist in the URL, both fields are populated and DOI takes
// precedence in GetCanonicalID.
func Extract(url string) PaperIdentifier {
	id := PaperIdentifier{URL: url}

	if m := doiPattern.FindStringSubmatch(url); m != nil {
		id.DOI = strings.ToLower(strings.TrimRight(m[1], "/"))
	}
	if m := pmidPattern.FindStringSubmatch(url); m != nil {
		id.PMID = m[1]
	}
	if m := pmcidPattern.FindStringSubmatch(url); m != nil {
		id.PMCID = m[1]
	}
	if m := arxivPattern.FindStringSubmatch(url); m != nil {
		id.ArxivID = m[1]
	}
	if id.DOI == "" {
		if m := jstagePattern.FindStringSubmatch(url); m != nil {
			id.DOI = strings.ToLower(m[1])
		}
	}
	if m := ciniiPattern.FindStringSubmatch(url); m != nil {
		id.CRID = m[1]
	}
	if m := openalexPattern.FindStringSubmatch(url); m != nil {
		id.OpenAlexWorkID = m[1]
	}
	if m := s2Pattern.FindStringSubmatch(url); m != nil {
		id.S2PaperID = m[1]
	}

	if natureDomainPattern.MatchString(url) || scienceDirectDomainPattern.MatchString(url) {
		if id.DOI == "" {
			id.NeedsMetaExtraction = true
		}
	}

	return id
}
