// Package serp implements the SERP-complement router that decides which
// academic API calls (if any) are worth making to enrich a search-engine
// result with an abstract and, when available, a DOI — grounded on
// spec.md §4.5's fastest_min_calls decision table. There is no
// original_source equivalent; original_source/src/search/serp_router.py
// does not exist, so this is implemented directly from the spec prose in
// the teacher's general client+logger idiom.
package serp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lancet-project/lancet/internal/academic"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/ids"
)

// Router selects a primary and optional secondary academic client to
// minimize calls while achieving "abstract + DOI (when available)".
type Router struct {
	semanticScholar academic.Client
	openAlex        academic.Client
	resolver        *ids.Resolver
	index           *canonical.Index
	logger          *slog.Logger
}

// NewRouter builds a Router. resolver may be nil if PMID/PMCID→DOI
// crosswalking is not configured (case 5 then degrades to a no-op).
func NewRouter(semanticScholar, openAlex academic.Client, resolver *ids.Resolver, index *canonical.Index, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		semanticScholar: semanticScholar,
		openAlex:        openAlex,
		resolver:        resolver,
		index:           index,
		logger:          logger,
	}
}

func hasAbstract(p *canonical.Paper) bool {
	return p != nil && p.Abstract != nil && *p.Abstract != ""
}

func (r *Router) fetch(ctx context.Context, client academic.Client, paperID string) *canonical.Paper {
	if client == nil {
		return nil
	}
	p, err := client.GetPaper(ctx, paperID)
	if err != nil {
		r.logger.Debug("academic fetch failed, trying fallback", slog.String("paper_id", paperID), slog.Any("error", err))
		return nil
	}
	return p
}

// Complement implements the 6-case table. serpCanonicalID is the entry
// RegisterSERPResult returned for this result. Returns the attached Paper,
// or nil if no API calls were made or none yielded an abstract-bearing
// Paper — in both cases the SERP entry is left untouched.
func (r *Router) Complement(ctx context.Context, serpCanonicalID canonical.CanonicalID, identifier ids.PaperIdentifier) *canonical.Paper {
	switch {
	case identifier.DOI != "":
		return r.complementByDOI(ctx, serpCanonicalID, identifier.DOI)

	case identifier.OpenAlexWorkID != "":
		primary := r.fetch(ctx, r.openAlex, identifier.OpenAlexWorkID)
		if hasAbstract(primary) {
			return r.attach(serpCanonicalID, primary, "openalex")
		}
		if primary != nil && primary.DOI != nil {
			secondary := r.fetch(ctx, r.semanticScholar, "DOI:"+*primary.DOI)
			if hasAbstract(secondary) {
				return r.attach(serpCanonicalID, secondary, "semantic_scholar")
			}
		}
		return r.bestEffort(serpCanonicalID, primary)

	case identifier.S2PaperID != "":
		primary := r.fetch(ctx, r.semanticScholar, identifier.S2PaperID)
		if hasAbstract(primary) {
			return r.attach(serpCanonicalID, primary, "semantic_scholar")
		}
		if primary != nil && primary.DOI != nil {
			secondary := r.fetch(ctx, r.openAlex, *primary.DOI)
			if hasAbstract(secondary) {
				return r.attach(serpCanonicalID, secondary, "openalex")
			}
		}
		return r.bestEffort(serpCanonicalID, primary)

	case identifier.ArxivID != "":
		primary := r.fetch(ctx, r.semanticScholar, "ArXiv:"+identifier.ArxivID)
		if hasAbstract(primary) {
			return r.attach(serpCanonicalID, primary, "semantic_scholar")
		}
		if primary != nil && primary.DOI != nil {
			secondary := r.fetch(ctx, r.openAlex, *primary.DOI)
			if hasAbstract(secondary) {
				return r.attach(serpCanonicalID, secondary, "openalex")
			}
		}
		return r.bestEffort(serpCanonicalID, primary)

	case identifier.PMID != "" || identifier.PMCID != "":
		if doi := r.resolveDOI(ctx, identifier); doi != "" {
			return r.complementByDOI(ctx, serpCanonicalID, doi)
		}
		return nil

	default:
		// case 6: no recognized identifier, no API calls.
		return nil
	}
}

func (r *Router) resolveDOI(ctx context.Context, identifier ids.PaperIdentifier) string {
	if r.resolver == nil {
		return ""
	}
	if identifier.PMID != "" {
		if doi, err := r.resolver.ResolvePMIDToDOI(ctx, identifier.PMID); err == nil && doi != "" {
			return doi
		}
	}
	if identifier.PMCID != "" {
		if res, err := r.resolver.ResolvePMCID(ctx, identifier.PMCID); err == nil && res != nil && res.DOI != "" {
			return res.DOI
		}
	}
	return ""
}

func (r *Router) complementByDOI(ctx context.Context, serpCanonicalID canonical.CanonicalID, doi string) *canonical.Paper {
	primary := r.fetch(ctx, r.semanticScholar, "DOI:"+doi)
	if hasAbstract(primary) {
		return r.attach(serpCanonicalID, primary, "semantic_scholar")
	}
	secondary := r.fetch(ctx, r.openAlex, fmt.Sprintf("https://doi.org/%s", doi))
	if hasAbstract(secondary) {
		return r.attach(serpCanonicalID, secondary, "openalex")
	}
	return r.bestEffort(serpCanonicalID, primary)
}

// bestEffort handles "both yield no abstract-bearing Paper": per §4.5 the
// SERP entry is left untouched and nil is returned, even if a bare
// metadata-only Paper was fetched.
func (r *Router) bestEffort(serpCanonicalID canonical.CanonicalID, primary *canonical.Paper) *canonical.Paper {
	return nil
}

func (r *Router) attach(serpCanonicalID canonical.CanonicalID, p *canonical.Paper, sourceAPI string) *canonical.Paper {
	if r.index == nil || p == nil {
		return p
	}
	r.index.AttachPaperToEntry(serpCanonicalID, *p, sourceAPI)
	return p
}
