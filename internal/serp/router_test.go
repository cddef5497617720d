package serp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancet-project/lancet/internal/academic"
	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/ids"
)

type stubClient struct {
	name    string
	papers  map[string]*canonical.Paper
	calls   []string
}

func (s *stubClient) Name() string { return s.name }
func (s *stubClient) Search(ctx context.Context, query string, limit int) (academic.SearchResult, error) {
	return academic.SearchResult{}, nil
}
func (s *stubClient) GetPaper(ctx context.Context, paperID string) (*canonical.Paper, error) {
	s.calls = append(s.calls, paperID)
	return s.papers[paperID], nil
}
func (s *stubClient) GetReferences(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}
func (s *stubClient) GetCitations(ctx context.Context, paperID string) ([]*canonical.Paper, error) {
	return nil, nil
}

func abstractPaper(id, abstract string) *canonical.Paper {
	return &canonical.Paper{ID: id, Title: "t", Abstract: &abstract}
}

func TestComplement_CaseDOI_PrimarySucceeds(t *testing.T) {
	s2 := &stubClient{name: "semantic_scholar", papers: map[string]*canonical.Paper{
		"DOI:10.1/x": abstractPaper("s2:abc", "an abstract"),
	}}
	oa := &stubClient{name: "openalex"}
	idx := canonical.NewIndex()
	cid := idx.RegisterSERPResult(canonical.SerpResult{Title: "t", URL: "https://x"}, &ids.PaperIdentifier{DOI: "10.1/x"})

	r := NewRouter(s2, oa, nil, idx, nil)
	p := r.Complement(context.Background(), cid, ids.PaperIdentifier{DOI: "10.1/x"})

	require.NotNil(t, p)
	assert.Empty(t, oa.calls, "secondary must not be called when primary has an abstract")
}

func TestComplement_CaseDOI_FallsBackToSecondary(t *testing.T) {
	s2 := &stubClient{name: "semantic_scholar", papers: map[string]*canonical.Paper{
		"DOI:10.1/x": {ID: "s2:abc", Title: "t"}, // no abstract
	}}
	oa := &stubClient{name: "openalex", papers: map[string]*canonical.Paper{
		"https://doi.org/10.1/x": abstractPaper("openalex:W1", "oa abstract"),
	}}
	idx := canonical.NewIndex()
	cid := idx.RegisterSERPResult(canonical.SerpResult{Title: "t", URL: "https://x"}, &ids.PaperIdentifier{DOI: "10.1/x"})

	r := NewRouter(s2, oa, nil, idx, nil)
	p := r.Complement(context.Background(), cid, ids.PaperIdentifier{DOI: "10.1/x"})

	require.NotNil(t, p)
	assert.Equal(t, "oa abstract", *p.Abstract)
}

func TestComplement_CaseNoIdentifier_NoAPICalls(t *testing.T) {
	s2 := &stubClient{name: "semantic_scholar"}
	oa := &stubClient{name: "openalex"}
	idx := canonical.NewIndex()
	cid := idx.RegisterSERPResult(canonical.SerpResult{Title: "t", URL: "https://x"}, &ids.PaperIdentifier{})

	r := NewRouter(s2, oa, nil, idx, nil)
	p := r.Complement(context.Background(), cid, ids.PaperIdentifier{})

	assert.Nil(t, p)
	assert.Empty(t, s2.calls)
	assert.Empty(t, oa.calls)
}
