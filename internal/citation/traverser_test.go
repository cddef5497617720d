package citation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancet-project/lancet/internal/academic"
	"github.com/lancet-project/lancet/internal/canonical"
)

type fakeProvider struct {
	name  string
	cites map[string][]*canonical.Paper
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	return academic.SearchResult{}, nil
}
func (f *fakeProvider) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	return nil, nil
}
func (f *fakeProvider) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}
func (f *fakeProvider) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return f.cites[paperID], nil
}

func TestGetCitationGraph_DepthZero_YieldsNothing(t *testing.T) {
	idx := canonical.NewIndex()
	tr := NewTraverser(nil, idx, nil)
	papers, cites, err := tr.GetCitationGraph(context.Background(), "s2:root", 0, DirectionCitations)
	require.NoError(t, err)
	assert.Empty(t, papers)
	assert.Empty(t, cites)
}

func TestGetCitationGraph_OneLevelCitations(t *testing.T) {
	provider := &fakeProvider{name: "semantic_scholar", cites: map[string][]*canonical.Paper{
		"s2:root": {{ID: "s2:child", Title: "child"}},
	}}
	idx := canonical.NewIndex()
	tr := NewTraverser([]academic.Client{provider}, idx, nil)

	papers, cites, err := tr.GetCitationGraph(context.Background(), "s2:root", 1, DirectionCitations)
	require.NoError(t, err)
	assert.Len(t, cites, 1)
	assert.Equal(t, "s2:child", cites[0].CitingPaperID)
	assert.Equal(t, "s2:root", cites[0].CitedPaperID)

	var found bool
	for _, p := range papers {
		if p.ID == "s2:child" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGetCitationGraph_ProviderErrorDoesNotAbort(t *testing.T) {
	idx := canonical.NewIndex()
	tr := NewTraverser([]academic.Client{&erroringProvider{}}, idx, nil)
	_, _, err := tr.GetCitationGraph(context.Background(), "s2:root", 1, DirectionCitations)
	require.NoError(t, err, "a per-provider fetch error must be logged and swallowed, not propagated")
}

type erroringProvider struct{}

func (erroringProvider) Name() string { return "broken" }
func (erroringProvider) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	return academic.SearchResult{}, nil
}
func (erroringProvider) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	return nil, nil
}
func (erroringProvider) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, assert.AnError
}
func (erroringProvider) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, assert.AnError
}
