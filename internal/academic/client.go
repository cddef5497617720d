// Package academic defines the common AcademicClient contract implemented
// by each provider-specific subpackage (semanticscholar, openalex, crossref,
// arxiv, unpaywall), grounded on the teacher's internal/providers interface
// shape but narrowed to the operations spec.md §4.4 actually names.
package academic

import (
	"context"

	"github.com/lancet-project/lancet/internal/canonical"
)

// Client is implemented by every academic provider adapter. GetPaper
// returns (nil, nil) on the provider's 404 for a single-record fetch —
// never an error — per §4.4. Implementations never retry internally; the
// caller composes a single callable and drives it through
// internal/retry.Engine with the academic API policy.
type Client interface {
	Name() string
	Search(ctx context.Context, query string, limit int) (SearchResult, error)
	GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error)
	GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error)
	GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error)
}

// SearchResult is the uniform return shape for Client.Search.
type SearchResult struct {
	Papers     []*canonical.Paper
	TotalCount int
}
