// Package evidence implements a typed, in-memory directed graph of claims,
// fragments, and pages with citation-integrity analysis, grounded on
// original_source/src/filter/evidence_graph.py's EvidenceGraph (a wrapper
// around networkx.DiGraph; this package hand-rolls the graph primitives and
// cycle enumeration networkx would otherwise provide).
package evidence

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// NodeType identifies what kind of object a node represents.
type NodeType string

const (
	NodeClaim    NodeType = "claim"
	NodeFragment NodeType = "fragment"
	NodePage     NodeType = "page"
)

// RelationType identifies the semantic relation an edge carries.
type RelationType string

const (
	RelationSupports RelationType = "supports"
	RelationRefutes  RelationType = "refutes"
	RelationCites    RelationType = "cites"
	RelationNeutral  RelationType = "neutral"
)

// NodeID is the composite "<type>:<object_id>" identifier (§4.7).
type NodeID string

func makeNodeID(t NodeType, objectID string) NodeID {
	return NodeID(fmt.Sprintf("%s:%s", t, objectID))
}

// Node is one graph vertex with a freeform attribute bag. AddNode merges
// whatever keys the caller passes; AddAcademicPageWithCitations writes the
// academic page keys. Claim adoption status is kept outside the bag.
type Node struct {
	Type     NodeType
	ObjectID string
	Attrs    map[string]any
}

// Edge is one directed relationship between two nodes.
type Edge struct {
	ID              string
	Source          NodeID
	Target          NodeID
	Relation        RelationType
	Confidence      float64
	NLILabel        string
	NLIConfidence   float64
	IsAcademic      bool
	IsInfluential   bool
	CitationContext string
	IsContradiction bool
	CauseID         string
}

// AdoptionStatus tracks whether a claim has been accepted into a downstream
// report (carried forward from original_source's set_claim_adoption_status,
// §10 of SPEC_FULL.md).
type AdoptionStatus string

const (
	AdoptionPending  AdoptionStatus = "pending"
	AdoptionAdopted  AdoptionStatus = "adopted"
	AdoptionRejected AdoptionStatus = "rejected"
)

// Graph is a typed directed multigraph of claims, fragments, and pages.
// Safe for concurrent use.
type Graph struct {
	mu sync.RWMutex

	nodes map[NodeID]*Node
	edges map[string]*Edge

	outgoing map[NodeID][]string // edge IDs keyed by source
	incoming map[NodeID][]string // edge IDs keyed by target

	adoption map[NodeID]AdoptionStatus
}

// NewGraph builds an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[NodeID]*Node),
		edges:    make(map[string]*Edge),
		outgoing: make(map[NodeID][]string),
		incoming: make(map[NodeID][]string),
		adoption: make(map[NodeID]AdoptionStatus),
	}
}

// AddNode inserts a node or, if it already exists, merges attrs into the
// existing node's attribute bag. Returns the composite node ID.
func (g *Graph) AddNode(t NodeType, objectID string, attrs map[string]any) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNodeLocked(t, objectID, attrs)
}

func (g *Graph) addNodeLocked(t NodeType, objectID string, attrs map[string]any) NodeID {
	id := makeNodeID(t, objectID)
	n, ok := g.nodes[id]
	if !ok {
		n = &Node{Type: t, ObjectID: objectID, Attrs: make(map[string]any)}
		g.nodes[id] = n
	}
	for k, v := range attrs {
		n.Attrs[k] = v
	}
	return id
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id NodeID) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// AddEdge creates src/tgt if missing and appends a fresh edge. attrs
// populates the Edge's typed fields by key name (confidence, nli_label,
// nli_confidence, is_academic, is_influential, citation_context, cause_id);
// unrecognized keys are ignored per §9's "unknown fields are rejected at
// the boundary".
func (g *Graph) AddEdge(srcType NodeType, srcID string, tgtType NodeType, tgtID string, relation RelationType, attrs map[string]any) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	src := g.addNodeLocked(srcType, srcID, nil)
	tgt := g.addNodeLocked(tgtType, tgtID, nil)

	edge := &Edge{
		ID:       uuid.NewString(),
		Source:   src,
		Target:   tgt,
		Relation: relation,
	}
	if v, ok := attrs["confidence"].(float64); ok {
		edge.Confidence = v
	}
	if v, ok := attrs["nli_label"].(string); ok {
		edge.NLILabel = v
	}
	if v, ok := attrs["nli_confidence"].(float64); ok {
		edge.NLIConfidence = v
	}
	if v, ok := attrs["is_academic"].(bool); ok {
		edge.IsAcademic = v
	}
	if v, ok := attrs["is_influential"].(bool); ok {
		edge.IsInfluential = v
	}
	if v, ok := attrs["citation_context"].(string); ok {
		edge.CitationContext = v
	}
	if v, ok := attrs["cause_id"].(string); ok {
		edge.CauseID = v
	}

	g.edges[edge.ID] = edge
	g.outgoing[src] = append(g.outgoing[src], edge.ID)
	g.incoming[tgt] = append(g.incoming[tgt], edge.ID)
	return edge.ID
}

// incomingEdgesLocked returns edges of the given relation(s) incoming to
// target.
func (g *Graph) incomingEdgesLocked(target NodeID, relations ...RelationType) []*Edge {
	want := make(map[RelationType]bool, len(relations))
	for _, r := range relations {
		want[r] = true
	}
	var out []*Edge
	for _, edgeID := range g.incoming[target] {
		e := g.edges[edgeID]
		if e == nil {
			continue
		}
		if len(want) == 0 || want[e.Relation] {
			out = append(out, e)
		}
	}
	return out
}

// GetSupportingEvidence returns every edge supporting a claim.
func (g *Graph) GetSupportingEvidence(claimID string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.incomingEdgesLocked(makeNodeID(NodeClaim, claimID), RelationSupports)
}

// GetRefutingEvidence returns every edge refuting a claim.
func (g *Graph) GetRefutingEvidence(claimID string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.incomingEdgesLocked(makeNodeID(NodeClaim, claimID), RelationRefutes)
}

// AllEvidence groups a claim's incoming edges by relation category.
type AllEvidence struct {
	Supports []*Edge
	Refutes  []*Edge
	Neutral  []*Edge
}

// GetAllEvidence returns every category of evidence for a claim.
func (g *Graph) GetAllEvidence(claimID string) AllEvidence {
	g.mu.RLock()
	defer g.mu.RUnlock()
	claim := makeNodeID(NodeClaim, claimID)
	return AllEvidence{
		Supports: g.incomingEdgesLocked(claim, RelationSupports),
		Refutes:  g.incomingEdgesLocked(claim, RelationRefutes),
		Neutral:  g.incomingEdgesLocked(claim, RelationNeutral),
	}
}

// SetClaimAdoptionStatus records whether a claim has been adopted into a
// downstream report.
func (g *Graph) SetClaimAdoptionStatus(claimID string, status AdoptionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.adoption[makeNodeID(NodeClaim, claimID)] = status
}

// GetClaimAdoptionStatus returns a claim's adoption status, defaulting to
// AdoptionPending if never set.
func (g *Graph) GetClaimAdoptionStatus(claimID string) AdoptionStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if s, ok := g.adoption[makeNodeID(NodeClaim, claimID)]; ok {
		return s
	}
	return AdoptionPending
}

// ClaimsByAdoptionStatus returns every claim node ID currently at status.
func (g *Graph) ClaimsByAdoptionStatus(status AdoptionStatus) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []string
	for id, n := range g.nodes {
		if n.Type != NodeClaim {
			continue
		}
		s, ok := g.adoption[id]
		if !ok {
			s = AdoptionPending
		}
		if s == status {
			out = append(out, n.ObjectID)
		}
	}
	sort.Strings(out)
	return out
}

// AddAcademicPageWithCitations annotates a page node with academic metadata
// and creates PAGE→PAGE CITES edges for each citation whose target maps to
// a known page ID. Citations with no page mapping are skipped, not errored
// (§4.7).
func (g *Graph) AddAcademicPageWithCitations(pageID string, meta PageMetadata, citations []PageCitation, paperToPageMap map[string]string) {
	g.mu.Lock()
	g.addNodeLocked(NodePage, pageID, map[string]any{
		"is_academic":    true,
		"doi":            meta.DOI,
		"citation_count": meta.CitationCount,
		"year":           meta.Year,
		"venue":          meta.Venue,
		"source_api":     meta.SourceAPI,
		"domain":         meta.Domain,
	})
	// AddEdge takes g.mu itself.
	g.mu.Unlock()

	for _, c := range citations {
		targetPageID, ok := paperToPageMap[c.CitedPaperID]
		if !ok {
			continue
		}
		g.AddEdge(NodePage, pageID, NodePage, targetPageID, RelationCites, map[string]any{
			"is_academic":       true,
			"is_influential":    c.IsInfluential,
			"citation_context":  c.Context,
		})
	}
}

// PageMetadata carries the academic attributes attached to a page node.
type PageMetadata struct {
	DOI           string
	CitationCount int
	Year          int
	Venue         string
	SourceAPI     string
	Domain        string
}

// PageCitation is one citation row used by AddAcademicPageWithCitations,
// keyed on provider paper IDs per §4.6.
type PageCitation struct {
	CitedPaperID  string
	IsInfluential bool
	Context       string
}
