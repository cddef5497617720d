// Package citation implements breadth-first citation-graph expansion
// across multiple academic providers in parallel, grounded on spec.md
// §4.6 and the teacher's use of golang.org/x/sync/errgroup for bounded
// parallel fan-out (promoted to a direct go.mod dependency for this
// package).
package citation

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lancet-project/lancet/internal/academic"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/messaging"
)

// Direction selects which edges to expand at each frontier node.
type Direction string

const (
	DirectionReferences Direction = "references"
	DirectionCitations  Direction = "citations"
	DirectionBoth       Direction = "both"
)

const defaultFanOutCap = 20

// Traverser runs get_citation_graph over a configured set of enabled
// providers (typically Semantic Scholar + OpenAlex).
type Traverser struct {
	providers []academic.Client
	index     *canonical.Index
	logger    *slog.Logger
	fanOutCap int
	messaging *messaging.Client
}

// NewTraverser builds a Traverser. index accumulates every Paper
// encountered so the final result list is deduplicated by canonical
// identity (§4.6).
func NewTraverser(providers []academic.Client, index *canonical.Index, logger *slog.Logger) *Traverser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Traverser{providers: providers, index: index, logger: logger, fanOutCap: defaultFanOutCap}
}

// WithMessaging attaches an event publisher; citation discovery events are
// only published once one is set.
func (t *Traverser) WithMessaging(client *messaging.Client) *Traverser {
	t.messaging = client
	return t
}

func (t *Traverser) publishDiscovered(ctx context.Context, citingID, citedID string, depth int) {
	if t.messaging == nil {
		return
	}
	event := messaging.NewCitationDiscoveredEvent(citingID, citedID, depth)
	if err := t.messaging.PublishAsync(ctx, messaging.SubjectCitationDiscovered, event); err != nil {
		t.logger.Warn("failed to publish citation discovered event", slog.String("error", err.Error()))
	}
}

// Citation is a directed edge keyed on provider paper IDs (§4.6).
type Citation struct {
	CitingPaperID string
	CitedPaperID  string
	IsInfluential bool
}

// GetCitationGraph performs BFS expansion from paperID to the given depth.
// depth == 0 yields no papers and no citations. A visited set keyed on
// provider-scoped paper IDs prevents revisiting a node; per-provider
// exceptions are caught and logged without aborting the traversal.
func (t *Traverser) GetCitationGraph(ctx context.Context, paperID string, depth int, direction Direction) ([]*canonical.Paper, []Citation, error) {
	if depth == 0 {
		return nil, nil, nil
	}

	visited := map[string]bool{paperID: true}
	frontier := []string{paperID}
	var citations []Citation

	for level := 0; level < depth && len(frontier) > 0; level++ {
		next, levelCitations, err := t.expandFrontier(ctx, frontier, visited, direction, level)
		if err != nil {
			return nil, nil, err
		}
		citations = append(citations, levelCitations...)
		frontier = next
	}

	var papers []*canonical.Paper
	for _, e := range t.index.GetAllEntries() {
		if e.Paper != nil {
			papers = append(papers, e.Paper)
		}
	}
	return papers, citations, nil
}

// expandFrontier fetches references/citations for every node in frontier,
// one goroutine per (node, provider) pair, and returns the next frontier
// plus the citation rows discovered at this level.
func (t *Traverser) expandFrontier(ctx context.Context, frontier []string, visited map[string]bool, direction Direction, level int) ([]string, []Citation, error) {
	type edgeResult struct {
		node      string
		provider  string
		refs      []*canonical.Paper
		cites     []*canonical.Paper
	}

	type job struct {
		nodeIdx, providerIdx int
	}
	jobs := make([]job, 0, len(frontier)*len(t.providers))
	for ni := range frontier {
		for pi := range t.providers {
			jobs = append(jobs, job{ni, pi})
		}
	}
	out := make([]edgeResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	for idx, j := range jobs {
		idx, j := idx, j
		g.Go(func() error {
			node := frontier[j.nodeIdx]
			provider := t.providers[j.providerIdx]
			res := edgeResult{node: node, provider: provider.Name()}

			if direction == DirectionReferences || direction == DirectionBoth {
				refs, err := provider.GetReferences(gctx, node)
				if err != nil {
					t.logger.Warn("reference fetch failed, continuing with other providers",
						slog.String("provider", provider.Name()), slog.String("paper_id", node), slog.Any("error", err))
				} else {
					res.refs = capPapers(refs, t.fanOutCap)
				}
			}
			if direction == DirectionCitations || direction == DirectionBoth {
				cites, err := provider.GetCitations(gctx, node)
				if err != nil {
					t.logger.Warn("citation fetch failed, continuing with other providers",
						slog.String("provider", provider.Name()), slog.String("paper_id", node), slog.Any("error", err))
				} else {
					res.cites = capPapers(cites, t.fanOutCap)
				}
			}
			out[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var next []string
	var levelCitations []Citation
	seen := make(map[string]bool)

	for _, res := range out {
		for _, p := range res.refs {
			t.index.RegisterPaper(*p)
			levelCitations = append(levelCitations, Citation{CitingPaperID: res.node, CitedPaperID: p.ID})
			t.publishDiscovered(ctx, res.node, p.ID, level)
			if !visited[p.ID] && !seen[p.ID] {
				seen[p.ID] = true
				next = append(next, p.ID)
			}
		}
		for _, p := range res.cites {
			t.index.RegisterPaper(*p)
			levelCitations = append(levelCitations, Citation{CitingPaperID: p.ID, CitedPaperID: res.node})
			t.publishDiscovered(ctx, p.ID, res.node, level)
			if !visited[p.ID] && !seen[p.ID] {
				seen[p.ID] = true
				next = append(next, p.ID)
			}
		}
	}
	for _, id := range next {
		visited[id] = true
	}
	return next, levelCitations, nil
}

func capPapers(papers []*canonical.Paper, cap int) []*canonical.Paper {
	if len(papers) > cap {
		return papers[:cap]
	}
	return papers
}
