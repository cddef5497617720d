package canonical

import (
	"strings"
	"sync"

	"github.com/lancet-project/lancet/internal/ids"
)

// SerpResult is an opaque record produced by an external SERP provider
// (§6): title, url, snippet, engine, rank.
type SerpResult struct {
	Title   string
	URL     string
	Snippet string
	Engine  string
	Rank    int
}

// EntrySource describes whether a CanonicalEntry's evidence comes from an
// academic API, a SERP provider, or both.
type EntrySource string

const (
	SourceAPI  EntrySource = "api"
	SourceSERP EntrySource = "serp"
	SourceBoth EntrySource = "both"
)

// Entry is one index slot. Invariants (§3): Source == SourceSERP iff
// Paper == nil and SerpResults non-empty; Source == SourceAPI iff Paper != nil
// and SerpResults empty; Source == SourceBoth otherwise.
type Entry struct {
	CanonicalID CanonicalID
	Paper       *Paper
	SerpResults []SerpResult
	BestURL     string
}

func (e *Entry) recomputeSource() EntrySource {
	switch {
	case e.Paper != nil && len(e.SerpResults) == 0:
		return SourceAPI
	case e.Paper == nil && len(e.SerpResults) > 0:
		return SourceSERP
	default:
		return SourceBoth
	}
}

// Source reports the entry's current source classification.
func (e *Entry) Source() EntrySource {
	return e.recomputeSource()
}

// providerPriority ranks providers for the "keep the higher-priority
// provider's paper" merge rule (§4.2). Lower number wins; unlisted
// providers sort after all listed ones.
var providerPriority = map[string]int{
	"semantic_scholar": 1,
	"openalex":         2,
	"crossref":         3,
	"arxiv":            4,
	"unpaywall":        5,
}

func priorityOf(provider string) int {
	if p, ok := providerPriority[provider]; ok {
		return p
	}
	return len(providerPriority) + 1
}

// TitleSimilarityThreshold is the default Jaccard threshold for the
// title-similarity identity tier (§4.2, left as configuration per §9).
const TitleSimilarityThreshold = 0.9

// Index is the in-memory deduplication structure. Safe for concurrent use.
type Index struct {
	mu sync.Mutex

	entries map[CanonicalID]*Entry
	// titleIndex maps a normalized title to the canonical IDs of entries
	// registered under it, supporting FindByTitleSimilarity.
	titleIndex map[string][]CanonicalID
	// titleThreshold is this index's Jaccard threshold for the
	// title-similarity identity tier. Defaults to TitleSimilarityThreshold.
	titleThreshold float64
}

// NewIndex builds an empty Index using TitleSimilarityThreshold.
func NewIndex() *Index {
	return NewIndexWithThreshold(TitleSimilarityThreshold)
}

// NewIndexWithThreshold builds an empty Index with a caller-supplied
// title-similarity threshold, wired from internal/config (§9 Open Question).
func NewIndexWithThreshold(threshold float64) *Index {
	return &Index{
		entries:        make(map[CanonicalID]*Entry),
		titleIndex:     make(map[string][]CanonicalID),
		titleThreshold: threshold,
	}
}

// Len returns the current number of entries.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.entries)
}

// GetEntry returns the entry for a canonical ID, if any.
func (idx *Index) GetEntry(id CanonicalID) (*Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e, ok := idx.entries[id]
	return e, ok
}

// GetAllEntries returns all entries with a populated Paper (§4.6: "only
// entries with a populated paper are emitted").
func (idx *Index) GetAllEntries() []*Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]*Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if e.Paper != nil {
			out = append(out, e)
		}
	}
	return out
}

// canonicalIDForPaper resolves the full priority cascade: doi -> meta ->
// title-similarity lookup (this index's threshold) -> fresh title hash ->
// unknown uuid. Must be called with idx.mu held.
func (idx *Index) canonicalIDForPaperLocked(p Paper) CanonicalID {
	if id := canonicalIDFromPaper(p); id != "" {
		return id
	}
	if entry := idx.findByTitleSimilarityLocked(NormalizeTitle(p.Title), idx.titleThreshold); entry != nil {
		return entry.CanonicalID
	}
	if p.Title != "" {
		return freshTitleID(p.Title)
	}
	return unknownID()
}

func bestURLFor(id CanonicalID, p *Paper) string {
	if strings.HasPrefix(string(id), "doi:") && p != nil {
		return "https://doi.org/" + strings.TrimPrefix(string(id), "doi:")
	}
	if p != nil {
		switch {
		case p.DOI != nil && *p.DOI != "":
			return "https://doi.org/" + strings.ToLower(*p.DOI)
		case p.ArxivID != nil && *p.ArxivID != "":
			return "https://arxiv.org/abs/" + *p.ArxivID
		}
	}
	return ""
}

// mergeNumericMax returns the max of two optional ints, preferring whichever
// is non-nil when the other is nil.
func mergeNumericMax(existing, incoming *int) *int {
	switch {
	case existing == nil:
		return incoming
	case incoming == nil:
		return existing
	case *incoming > *existing:
		return incoming
	default:
		return existing
	}
}

// coalesce keeps existing if non-nil/non-empty, else uses incoming. Never
// overwrites a populated field with nil (§4.2).
func coalesceStr(existing, incoming *string) *string {
	if existing != nil && *existing != "" {
		return existing
	}
	return incoming
}

func coalesceBool(existing, incoming *bool) *bool {
	if existing != nil {
		return existing
	}
	return incoming
}

func coalesceInt(existing, incoming *int) *int {
	if existing != nil {
		return existing
	}
	return incoming
}

func coalesceTime[T any](existing, incoming *T) *T {
	if existing != nil {
		return existing
	}
	return incoming
}

// mergePapers merges incoming into the kept paper: counts via MAX, optional
// fields via coalesce, never overwriting a populated field with nil.
func mergePapers(kept, incoming Paper) Paper {
	kept.CitationCount = mergeNumericMax(kept.CitationCount, incoming.CitationCount)
	kept.ReferenceCount = mergeNumericMax(kept.ReferenceCount, incoming.ReferenceCount)
	kept.DOI = coalesceStr(kept.DOI, incoming.DOI)
	kept.ArxivID = coalesceStr(kept.ArxivID, incoming.ArxivID)
	kept.Venue = coalesceStr(kept.Venue, incoming.Venue)
	kept.Abstract = coalesceStr(kept.Abstract, incoming.Abstract)
	kept.OAUrl = coalesceStr(kept.OAUrl, incoming.OAUrl)
	kept.PDFUrl = coalesceStr(kept.PDFUrl, incoming.PDFUrl)
	kept.IsOpenAccess = coalesceBool(kept.IsOpenAccess, incoming.IsOpenAccess)
	kept.Year = coalesceInt(kept.Year, incoming.Year)
	kept.PublishedDate = coalesceTime(kept.PublishedDate, incoming.PublishedDate)
	if len(kept.Authors) == 0 {
		kept.Authors = incoming.Authors
	}
	return kept
}

// chooseKeptPaper applies the provider-priority rule: keep the
// higher-priority provider's paper; on tie, keep the first (existing).
func chooseKeptPaper(existing, incoming Paper) Paper {
	kept := existing
	other := incoming
	if priorityOf(incoming.SourceAPI) < priorityOf(existing.SourceAPI) {
		kept = incoming
		other = existing
	}
	return mergePapers(kept, other)
}

// RegisterPaper accumulates a Paper from an academic API into the index,
// returning its canonical ID (§4.2).
func (idx *Index) RegisterPaper(p Paper) CanonicalID {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.registerPaperLocked(p)
}

func (idx *Index) registerPaperLocked(p Paper) CanonicalID {
	id := idx.canonicalIDForPaperLocked(p)

	entry, exists := idx.entries[id]
	if !exists {
		entry = &Entry{CanonicalID: id, Paper: &p}
		entry.BestURL = bestURLFor(id, entry.Paper)
		idx.entries[id] = entry
		idx.indexTitleLocked(id, p.Title)
		return id
	}

	if entry.Paper == nil {
		entry.Paper = &p
	} else {
		merged := chooseKeptPaper(*entry.Paper, p)
		entry.Paper = &merged
	}
	entry.BestURL = bestURLFor(id, entry.Paper)
	return id
}

// RegisterSERPResult accumulates a SerpResult, extracting an identifier if
// none is supplied (§4.2).
func (idx *Index) RegisterSERPResult(result SerpResult, identifier *ids.PaperIdentifier) CanonicalID {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	id := identifier
	if id == nil {
		extracted := ids.Extract(result.URL)
		id = &extracted
	}

	var cid CanonicalID
	if structural := id.GetCanonicalID(); structural != "" {
		cid = CanonicalID(structural)
	} else if result.Title != "" {
		if existing := idx.findByTitleSimilarityLocked(NormalizeTitle(result.Title), idx.titleThreshold); existing != nil {
			cid = existing.CanonicalID
		} else {
			cid = freshTitleID(result.Title)
		}
	} else {
		cid = CanonicalID("url:" + md5Hex(result.URL)[:12])
	}

	entry, exists := idx.entries[cid]
	if !exists {
		entry = &Entry{CanonicalID: cid}
		idx.entries[cid] = entry
		idx.indexTitleLocked(cid, result.Title)
	}
	entry.SerpResults = append(entry.SerpResults, result)
	if entry.BestURL == "" {
		entry.BestURL = result.URL
	}
	return cid
}

// AttachPaperToEntry merges an academic Paper into the entry created for a
// SERP result, after a secondary API call resolves its DOI (§4.2, §4.5).
func (idx *Index) AttachPaperToEntry(serpCanonicalID CanonicalID, p Paper, sourceAPI string) CanonicalID {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	p.SourceAPI = sourceAPI
	serpEntry, exists := idx.entries[serpCanonicalID]
	if !exists {
		return idx.registerPaperLocked(p)
	}

	targetID := idx.canonicalIDForPaperLocked(p)

	if targetID == serpCanonicalID {
		merged := p
		if serpEntry.Paper != nil {
			merged = chooseKeptPaper(*serpEntry.Paper, p)
		}
		serpEntry.Paper = &merged
		serpEntry.BestURL = bestURLFor(targetID, serpEntry.Paper)
		return targetID
	}

	if targetEntry, targetExists := idx.entries[targetID]; targetExists {
		targetEntry.SerpResults = append(targetEntry.SerpResults, serpEntry.SerpResults...)
		merged := p
		if targetEntry.Paper != nil {
			merged = chooseKeptPaper(*targetEntry.Paper, p)
		}
		targetEntry.Paper = &merged
		targetEntry.BestURL = bestURLFor(targetID, targetEntry.Paper)
		delete(idx.entries, serpCanonicalID)
		idx.rekeyTitleIndexLocked(serpCanonicalID, targetID)
		return targetID
	}

	// Target does not exist: rekey the existing SERP entry in place.
	delete(idx.entries, serpCanonicalID)
	serpEntry.CanonicalID = targetID
	serpEntry.Paper = &p
	serpEntry.BestURL = bestURLFor(targetID, serpEntry.Paper)
	idx.entries[targetID] = serpEntry
	idx.rekeyTitleIndexLocked(serpCanonicalID, targetID)
	return targetID
}

func (idx *Index) indexTitleLocked(id CanonicalID, title string) {
	if title == "" {
		return
	}
	norm := NormalizeTitle(title)
	idx.titleIndex[norm] = append(idx.titleIndex[norm], id)
}

func (idx *Index) rekeyTitleIndexLocked(old, new CanonicalID) {
	for title, cids := range idx.titleIndex {
		for i, cid := range cids {
			if cid == old {
				cids[i] = new
			}
		}
		idx.titleIndex[title] = cids
	}
}

// FindByTitleSimilarity looks up an entry via Jaccard similarity over
// whitespace-tokenized normalized titles.
func (idx *Index) FindByTitleSimilarity(normalizedTitle string, threshold float64) (*Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e := idx.findByTitleSimilarityLocked(normalizedTitle, threshold)
	return e, e != nil
}

func (idx *Index) findByTitleSimilarityLocked(normalizedTitle string, threshold float64) *Entry {
	if normalizedTitle == "" {
		return nil
	}
	var best *Entry
	bestScore := 0.0
	for title, cids := range idx.titleIndex {
		score := jaccardSimilarity(normalizedTitle, title)
		if score >= threshold && score > bestScore {
			for _, cid := range cids {
				if e, ok := idx.entries[cid]; ok {
					best = e
					bestScore = score
				}
			}
		}
	}
	return best
}
