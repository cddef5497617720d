package canonical

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CanonicalID is the opaque, prefixed identity string the index uses to
// deduplicate papers across sources. Priority order for a single record:
// doi > pmid > pmcid > arxiv > openalex > s2 > meta > title > url > unknown
// (§3). Immutable once created.
type CanonicalID string

var (
	punctuationPattern = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	leadingArticles    = regexp.MustCompile(`(?i)^(the|a|an)\s+`)
)

// NormalizeTitle lowercases, strips punctuation, drops a leading article,
// and collapses whitespace, per §4.2.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = punctuationPattern.ReplaceAllString(t, "")
	t = leadingArticles.ReplaceAllString(t, "")
	t = whitespacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// FirstAuthorSurname extracts a surname from an author name string per the
// §4.2 rule: "Last, First" -> last; "First Last" -> last whitespace token;
// single token -> that token; empty -> "".
func FirstAuthorSurname(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if idx := strings.Index(name, ","); idx >= 0 {
		return strings.TrimSpace(name[:idx])
	}
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// metaKey builds the composite md5(normalized_title|first_author_surname|year)
// string used for the "meta:" identity tier. Per spec.md §9 Open Questions,
// venue is deliberately NOT folded in: the source preserves this key shape
// and this repo preserves that decision (see DESIGN.md).
func metaKey(p Paper) string {
	title := NormalizeTitle(p.Title)
	surname := ""
	if len(p.Authors) > 0 {
		surname = strings.ToLower(FirstAuthorSurname(p.Authors[0].Name))
	}
	year := ""
	if p.Year != nil {
		year = strconv.Itoa(*p.Year)
	}
	return fmt.Sprintf("%s|%s|%s", title, surname, year)
}

// canonicalIDFromPaper applies the full §3/§4.2 priority cascade:
// doi -> meta -> title-similarity (handled by the caller, which has index
// access) -> fresh title hash -> unknown uuid. This function computes the
// structural tiers (doi, meta, title) that do not require a lookup; the
// title-similarity tier is resolved by Index.canonicalIDForPaper.
func canonicalIDFromPaper(p Paper) CanonicalID {
	if p.DOI != nil && *p.DOI != "" {
		return CanonicalID("doi:" + strings.ToLower(*p.DOI))
	}
	if len(p.Authors) > 0 && p.Year != nil {
		return CanonicalID("meta:" + md5Hex(metaKey(p))[:12])
	}
	return ""
}

// freshTitleID returns a deterministic "title:" tier canonical ID.
func freshTitleID(title string) CanonicalID {
	return CanonicalID("title:" + md5Hex(NormalizeTitle(title))[:12])
}

// unknownID returns a random "unknown:" tier canonical ID.
func unknownID() CanonicalID {
	return CanonicalID("unknown:" + uuid.NewString()[:8])
}

// jaccardSimilarity computes Jaccard similarity over whitespace-tokenized
// normalized titles.
func jaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(normalized string) map[string]bool {
	tokens := strings.Fields(normalized)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
