package serp

import (
	"context"
	"log/slog"

	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/ids"
	"github.com/lancet-project/lancet/internal/providers"
	"github.com/lancet-project/lancet/internal/works"
)

// Pipeline runs spec.md §2's ingestion path end to end: a SERP provider
// result feeds IdentifierExtractor, which feeds CanonicalPaperIndex, which
// feeds Router, whose attached Paper (if any) is persisted through
// works.Persister. SPEC_FULL.md §6 names exa/tavily as the SERP source;
// this is that adaptation, generalized over any registered
// providers.SearchProvider so other engines can be swapped in later.
type Pipeline struct {
	providerManager providers.ProviderManager
	index           *canonical.Index
	router          *Router
	persister       *works.Persister
	logger          *slog.Logger
}

func NewPipeline(providerManager providers.ProviderManager, index *canonical.Index, router *Router, persister *works.Persister, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{providerManager: providerManager, index: index, router: router, persister: persister, logger: logger}
}

// Result is one SERP result's outcome after complement and persistence.
type Result struct {
	CanonicalID canonical.CanonicalID
	SerpResult  canonical.SerpResult
	Paper       *canonical.Paper
	Persisted   bool
}

// Run issues query against the named SERP provider (e.g. "exa", "tavily"),
// registers every hit into the canonical index, runs the complement router
// against each, and persists every complemented Paper.
func (p *Pipeline) Run(ctx context.Context, engine, query string, limit int) ([]Result, error) {
	provider, err := p.providerManager.GetProvider(engine)
	if err != nil {
		return nil, err
	}

	searchResult, err := provider.Search(ctx, &providers.SearchQuery{Query: query, Limit: limit})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(searchResult.Papers))
	for rank, paper := range searchResult.Papers {
		url := ""
		if paper.URL != nil {
			url = *paper.URL
		}
		serpResult := canonical.SerpResult{
			Title:  paper.Title,
			URL:    url,
			Engine: engine,
			Rank:   rank,
		}
		identifier := ids.Extract(url)
		cid := p.index.RegisterSERPResult(serpResult, &identifier)

		result := Result{CanonicalID: cid, SerpResult: serpResult}

		complemented := p.router.Complement(ctx, cid, identifier)
		if complemented != nil {
			result.Paper = complemented
			if p.persister != nil {
				if err := p.persister.PersistWork(ctx, *complemented, string(cid)); err != nil {
					p.logger.Warn("failed to persist complemented SERP result",
						slog.String("canonical_id", string(cid)), slog.String("error", err.Error()))
				} else {
					result.Persisted = true
				}
			}
		}
		results = append(results, result)
	}

	p.logger.Info("SERP ingestion pipeline completed",
		slog.String("engine", engine), slog.String("query", query), slog.Int("results", len(results)))
	return results, nil
}
