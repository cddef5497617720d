package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCitationLoops_SimpleTriangle(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodePage, "a", NodePage, "b", RelationCites, nil)
	g.AddEdge(NodePage, "b", NodePage, "c", RelationCites, nil)
	g.AddEdge(NodePage, "c", NodePage, "a", RelationCites, nil)

	loops := g.DetectCitationLoops()
	assert.Len(t, loops, 1)
	assert.Len(t, loops[0].Nodes, 3)
	assert.Equal(t, SeverityHigh, loops[0].Severity)
}

func TestDetectCitationLoops_NoSpuriousDuplicates(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodePage, "a", NodePage, "b", RelationCites, nil)
	g.AddEdge(NodePage, "b", NodePage, "a", RelationCites, nil)

	loops := g.DetectCitationLoops()
	assert.Len(t, loops, 1, "a 2-cycle must be reported exactly once, not once per starting node")
	assert.Equal(t, SeverityCritical, loops[0].Severity)
}

func TestDetectCitationLoops_Acyclic(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodePage, "a", NodePage, "b", RelationCites, nil)
	g.AddEdge(NodePage, "b", NodePage, "c", RelationCites, nil)

	assert.Empty(t, g.DetectCitationLoops())
}

func TestDetectRoundTrips(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodePage, "a", NodePage, "b", RelationCites, nil)
	g.AddEdge(NodePage, "b", NodePage, "a", RelationCites, nil)
	g.AddEdge(NodePage, "c", NodePage, "d", RelationCites, nil)

	rts := g.DetectRoundTrips()
	assert.Len(t, rts, 1)
}

func TestDetectSelfReferences_Direct(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodePage, "a", NodePage, "a", RelationCites, nil)

	refs := g.DetectSelfReferences()
	assert.Len(t, refs, 1)
	assert.Equal(t, SeverityCritical, refs[0].Severity)
	assert.False(t, refs[0].SameDomain)
}

func TestDetectSelfReferences_SameDomain(t *testing.T) {
	g := NewGraph()
	g.AddNode(NodePage, "a", map[string]any{"domain": "arxiv.org"})
	g.AddNode(NodePage, "b", map[string]any{"domain": "arxiv.org"})
	g.AddEdge(NodePage, "a", NodePage, "b", RelationCites, nil)

	refs := g.DetectSelfReferences()
	assert.Len(t, refs, 1)
	assert.Equal(t, SeverityMedium, refs[0].Severity)
	assert.True(t, refs[0].SameDomain)
}

func TestCalculateCitationPenalties_ComposeMultiplicatively(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodePage, "a", NodePage, "a", RelationCites, nil)

	penalties := g.CalculateCitationPenalties()
	assert.InDelta(t, 0.1, penalties[makeNodeID(NodePage, "a")], 1e-9)
}

func TestFindContradictions_ClaimPairOnly(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodeClaim, "c1", NodeClaim, "c2", RelationRefutes, nil)
	g.AddEdge(NodePage, "p1", NodeClaim, "c3", RelationRefutes, nil)

	cs := g.FindContradictions()
	assert.Len(t, cs, 1, "only claim-claim REFUTES pairs count as contradictions")
}

func TestGetPrimarySourceRatio(t *testing.T) {
	g := NewGraph()
	g.AddNode(NodePage, "a", nil)
	g.AddNode(NodePage, "b", nil)
	g.AddEdge(NodePage, "a", NodePage, "b", RelationCites, nil)

	r := g.GetPrimarySourceRatio()
	assert.InDelta(t, 0.5, r.Ratio, 1e-9)
	assert.False(t, r.MeetsThreshold)
}

func TestGetCitationIntegrityReport_PerfectGraphScoresOne(t *testing.T) {
	g := NewGraph()
	g.AddEdge(NodePage, "a", NodePage, "b", RelationCites, nil)

	report := g.GetCitationIntegrityReport()
	assert.Equal(t, 1.0, report.IntegrityScore)
	assert.Empty(t, report.Loops)
}
