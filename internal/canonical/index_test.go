package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancet-project/lancet/internal/ids"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestRegisterPaper_DOIDeduplicationAcrossProviders(t *testing.T) {
	idx := NewIndex()

	ssPaper := Paper{
		ID:            "s2:A",
		Title:         "Example Paper",
		DOI:           strPtr("10.1234/x"),
		CitationCount: intPtr(100),
		SourceAPI:     "semantic_scholar",
	}
	oaPaper := Paper{
		ID:            "openalex:W1",
		Title:         "Example Paper",
		DOI:           strPtr("10.1234/x"),
		CitationCount: intPtr(95),
		SourceAPI:     "openalex",
	}

	cid1 := idx.RegisterPaper(ssPaper)
	cid2 := idx.RegisterPaper(oaPaper)

	require.Equal(t, cid1, cid2)
	assert.Equal(t, CanonicalID("doi:10.1234/x"), cid1)

	entry, ok := idx.GetEntry(cid1)
	require.True(t, ok)
	assert.Equal(t, "semantic_scholar", entry.Paper.SourceAPI)
	assert.Equal(t, 100, *entry.Paper.CitationCount)
	assert.Equal(t, 1, idx.Len())
}

func TestRegisterPaper_I2_DOIAlwaysProducesDOIPrefix(t *testing.T) {
	idx := NewIndex()
	p := Paper{ID: "x", Title: "T", DOI: strPtr("10.1/ABC")}
	cid := idx.RegisterPaper(p)
	assert.Contains(t, string(cid), "doi:")
}

func TestSERPThenAttach_MergesUnderDOI(t *testing.T) {
	idx := NewIndex()

	serpResult := SerpResult{Title: "PeerJ Paper", URL: "https://openalex.org/W2741809807"}
	serpCID := idx.RegisterSERPResult(serpResult, nil)
	assert.Equal(t, CanonicalID("openalex:W2741809807"), serpCID)

	entry, ok := idx.GetEntry(serpCID)
	require.True(t, ok)
	assert.Equal(t, SourceSERP, entry.Source())

	abstract := "..."
	paper := Paper{
		ID:        "openalex:W2741809807",
		Title:     "PeerJ Paper",
		DOI:       strPtr("10.7717/peerj.4375"),
		Abstract:  &abstract,
		SourceAPI: "openalex",
	}
	finalCID := idx.AttachPaperToEntry(serpCID, paper, "openalex")

	assert.Equal(t, CanonicalID("doi:10.7717/peerj.4375"), finalCID)
	finalEntry, ok := idx.GetEntry(finalCID)
	require.True(t, ok)
	assert.Equal(t, SourceBoth, finalEntry.Source())
	assert.Equal(t, "https://doi.org/10.7717/peerj.4375", finalEntry.BestURL)
	assert.Equal(t, 1, idx.Len(), "I3: attach must not increase entry count")

	_, stillExists := idx.GetEntry(serpCID)
	assert.False(t, stillExists, "old SERP-keyed entry must be gone after rekey")
}

func TestAttachPaperToEntry_FallsBackToRegisterWhenSERPEntryMissing(t *testing.T) {
	idx := NewIndex()
	paper := Paper{ID: "s2:Z", Title: "New Paper", DOI: strPtr("10.1/new")}
	cid := idx.AttachPaperToEntry("openalex:W999", paper, "semantic_scholar")
	assert.Equal(t, CanonicalID("doi:10.1/new"), cid)
	assert.Equal(t, 1, idx.Len())
}

func TestGetCanonicalID_Extractor_DOITakesPriority(t *testing.T) {
	id := ids.Extract("https://doi.org/10.1234/abc")
	assert.Equal(t, "doi:10.1234/abc", id.GetCanonicalID())
}

func TestFirstAuthorSurname(t *testing.T) {
	assert.Equal(t, "Smith", FirstAuthorSurname("Smith, John"))
	assert.Equal(t, "Smith", FirstAuthorSurname("John Smith"))
	assert.Equal(t, "Smith", FirstAuthorSurname("Smith"))
	assert.Equal(t, "", FirstAuthorSurname(""))
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "quick brown fox", NormalizeTitle("The Quick, Brown Fox!"))
}
