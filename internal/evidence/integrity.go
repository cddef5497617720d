package evidence

import "sort"

// Severity tiers a citation-integrity problem by how damaging it is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Contradiction is an unordered claim-claim pair where at least one
// direction carries a REFUTES relation.
type Contradiction struct {
	ClaimA NodeID
	ClaimB NodeID
}

// FindContradictions returns every unordered claim pair with a REFUTES edge
// in either direction.
func (g *Graph) FindContradictions() []Contradiction {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[[2]NodeID]bool)
	var out []Contradiction
	for _, e := range g.edges {
		if e.Relation != RelationRefutes {
			continue
		}
		if g.nodes[e.Source] == nil || g.nodes[e.Target] == nil {
			continue
		}
		if g.nodes[e.Source].Type != NodeClaim || g.nodes[e.Target].Type != NodeClaim {
			continue
		}
		key := canonicalPair(e.Source, e.Target)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Contradiction{ClaimA: key[0], ClaimB: key[1]})
	}
	return out
}

// MarkContradictions sets IsContradiction=true on both directions' REFUTES
// edges for every contradicting pair.
func (g *Graph) MarkContradictions() {
	contradictions := g.FindContradictions()

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range contradictions {
		for _, e := range g.edges {
			if e.Relation != RelationRefutes {
				continue
			}
			if (e.Source == c.ClaimA && e.Target == c.ClaimB) || (e.Source == c.ClaimB && e.Target == c.ClaimA) {
				e.IsContradiction = true
			}
		}
	}
}

// Loop is one simple cycle found in the CITES-only subgraph.
type Loop struct {
	Nodes    []NodeID
	Severity Severity
}

func severityForLoopLength(length int) Severity {
	switch {
	case length <= 2:
		return SeverityCritical
	case length == 3:
		return SeverityHigh
	case length <= 5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// citesAdjacencyLocked builds an adjacency list over CITES edges, excluding
// self-loops (handled by DetectSelfReferences instead). Must be called with
// g.mu held.
func (g *Graph) citesAdjacencyLocked() map[NodeID][]NodeID {
	adj := make(map[NodeID][]NodeID)
	for _, e := range g.edges {
		if e.Relation != RelationCites {
			continue
		}
		if e.Source == e.Target {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

// DetectCitationLoops returns every simple cycle in the CITES subgraph
// exactly once (I9), with a length-indexed severity tier. Grounded on
// original_source's nx.simple_cycles; since no equivalent library-provided
// enumerator exists in Go, this hand-rolls a standard "start from the
// lowest-indexed vertex on the cycle" DFS that visits each elementary
// circuit exactly once.
func (g *Graph) DetectCitationLoops() []Loop {
	g.mu.RLock()
	adj := g.citesAdjacencyLocked()
	g.mu.RUnlock()

	nodeSet := make(map[NodeID]bool)
	for src, targets := range adj {
		nodeSet[src] = true
		for _, t := range targets {
			nodeSet[t] = true
		}
	}
	nodes := make([]NodeID, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	index := make(map[NodeID]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	var loops []Loop
	for i, start := range nodes {
		var path []NodeID
		onPath := make(map[NodeID]bool)

		var dfs func(v NodeID)
		dfs = func(v NodeID) {
			path = append(path, v)
			onPath[v] = true

			for _, w := range adj[v] {
				if index[w] < i {
					continue
				}
				if w == start {
					cycle := make([]NodeID, len(path))
					copy(cycle, path)
					loops = append(loops, Loop{Nodes: cycle, Severity: severityForLoopLength(len(cycle))})
					continue
				}
				if index[w] > i && !onPath[w] {
					dfs(w)
				}
			}

			path = path[:len(path)-1]
			onPath[v] = false
		}
		dfs(start)
	}
	return loops
}

// RoundTrip is an unordered pair of nodes with bidirectional CITES edges.
type RoundTrip struct {
	NodeA NodeID
	NodeB NodeID
}

// DetectRoundTrips returns every unordered pair with a CITES edge in both
// directions.
func (g *Graph) DetectRoundTrips() []RoundTrip {
	g.mu.RLock()
	defer g.mu.RUnlock()

	pairs := make(map[NodeID]map[NodeID]bool)
	for _, e := range g.edges {
		if e.Relation != RelationCites || e.Source == e.Target {
			continue
		}
		if pairs[e.Source] == nil {
			pairs[e.Source] = make(map[NodeID]bool)
		}
		pairs[e.Source][e.Target] = true
	}

	seen := make(map[[2]NodeID]bool)
	var out []RoundTrip
	for src, targets := range pairs {
		for tgt := range targets {
			if pairs[tgt] != nil && pairs[tgt][src] {
				key := canonicalPair(src, tgt)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, RoundTrip{NodeA: key[0], NodeB: key[1]})
			}
		}
	}
	return out
}

// SelfReference is either a direct self-loop (critical) or a citation
// between two pages sharing the same "domain" attribute (medium).
type SelfReference struct {
	Node     NodeID
	Target   NodeID
	Severity Severity
	SameDomain bool
}

// DetectSelfReferences returns direct A→A CITES edges (critical) and
// same-domain-attribute citations (medium).
func (g *Graph) DetectSelfReferences() []SelfReference {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []SelfReference
	for _, e := range g.edges {
		if e.Relation != RelationCites {
			continue
		}
		if e.Source == e.Target {
			out = append(out, SelfReference{Node: e.Source, Target: e.Target, Severity: SeverityCritical})
			continue
		}
		srcNode := g.nodes[e.Source]
		tgtNode := g.nodes[e.Target]
		if srcNode == nil || tgtNode == nil {
			continue
		}
		srcDomain, _ := srcNode.Attrs["domain"].(string)
		tgtDomain, _ := tgtNode.Attrs["domain"].(string)
		if srcDomain != "" && srcDomain == tgtDomain {
			out = append(out, SelfReference{Node: e.Source, Target: e.Target, Severity: SeverityMedium, SameDomain: true})
		}
	}
	return out
}

func canonicalPair(a, b NodeID) [2]NodeID {
	if a <= b {
		return [2]NodeID{a, b}
	}
	return [2]NodeID{b, a}
}

var loopSeverityFactor = map[Severity]float64{
	SeverityCritical: 0.2,
	SeverityHigh:     0.4,
	SeverityMedium:   0.6,
	SeverityLow:      0.8,
}

var selfRefSeverityFactor = map[Severity]float64{
	SeverityCritical: 0.1,
	SeverityHigh:     0.3,
	SeverityMedium:   0.5,
	SeverityLow:      0.7,
}

// CalculateCitationPenalties returns, per node, a multiplicative penalty
// starting at 1.0: each loop multiplies every member by its severity
// factor; each round-trip multiplies both nodes by 0.3; a direct
// self-reference multiplies the node by 0.1; a same-domain self-reference
// multiplies the source by 0.5 and the target by 0.6. Penalties compose
// multiplicatively and clamp to [0, 1].
func (g *Graph) CalculateCitationPenalties() map[NodeID]float64 {
	penalties := make(map[NodeID]float64)
	apply := func(id NodeID, factor float64) {
		if _, ok := penalties[id]; !ok {
			penalties[id] = 1.0
		}
		penalties[id] *= factor
	}

	for _, loop := range g.DetectCitationLoops() {
		factor := loopSeverityFactor[loop.Severity]
		for _, n := range loop.Nodes {
			apply(n, factor)
		}
	}

	for _, rt := range g.DetectRoundTrips() {
		apply(rt.NodeA, 0.3)
		apply(rt.NodeB, 0.3)
	}

	for _, sr := range g.DetectSelfReferences() {
		if sr.SameDomain {
			apply(sr.Node, 0.5)
			apply(sr.Target, 0.6)
		} else {
			apply(sr.Node, selfRefSeverityFactor[sr.Severity])
		}
	}

	for id, p := range penalties {
		if p < 0 {
			penalties[id] = 0
		} else if p > 1 {
			penalties[id] = 1
		}
	}
	return penalties
}

// IntegrityReport aggregates loops/round-trips/self-references/penalties
// into one summary, supplementing §4.7 with the original's
// get_citation_integrity_report (§10 of SPEC_FULL.md).
type IntegrityReport struct {
	Loops            []Loop
	RoundTrips       []RoundTrip
	SelfReferences   []SelfReference
	Penalties        map[NodeID]float64
	IntegrityScore   float64
}

// GetCitationIntegrityReport computes IntegrityReport.IntegrityScore as
// 1 - (count of distinct problematic nodes / max(len(penalties), 1)),
// clamped to [0, 1].
func (g *Graph) GetCitationIntegrityReport() IntegrityReport {
	loops := g.DetectCitationLoops()
	roundTrips := g.DetectRoundTrips()
	selfRefs := g.DetectSelfReferences()
	penalties := g.CalculateCitationPenalties()

	problematic := make(map[NodeID]bool)
	for _, l := range loops {
		for _, n := range l.Nodes {
			problematic[n] = true
		}
	}
	for _, rt := range roundTrips {
		problematic[rt.NodeA] = true
		problematic[rt.NodeB] = true
	}
	for _, sr := range selfRefs {
		problematic[sr.Node] = true
	}

	denom := len(penalties)
	if denom == 0 {
		denom = 1
	}
	score := 1 - float64(len(problematic))/float64(denom)
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}

	return IntegrityReport{
		Loops:          loops,
		RoundTrips:     roundTrips,
		SelfReferences: selfRefs,
		Penalties:      penalties,
		IntegrityScore: score,
	}
}

// PrimarySourceRatio reports the fraction of PAGE nodes with no outgoing
// CITES edge to another PAGE.
type PrimarySourceRatio struct {
	Ratio          float64
	MeetsThreshold bool
}

const primarySourceThreshold = 0.6

// GetPrimarySourceRatio computes the fraction of PAGE nodes that are
// primary sources (§4.7, glossary).
func (g *Graph) GetPrimarySourceRatio() PrimarySourceRatio {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var pages, primary int
	for id, n := range g.nodes {
		if n.Type != NodePage {
			continue
		}
		pages++
		hasOutgoingPageCite := false
		for _, edgeID := range g.outgoing[id] {
			e := g.edges[edgeID]
			if e == nil || e.Relation != RelationCites {
				continue
			}
			if target := g.nodes[e.Target]; target != nil && target.Type == NodePage {
				hasOutgoingPageCite = true
				break
			}
		}
		if !hasOutgoingPageCite {
			primary++
		}
	}

	if pages == 0 {
		return PrimarySourceRatio{Ratio: 0, MeetsThreshold: false}
	}
	ratio := float64(primary) / float64(pages)
	return PrimarySourceRatio{Ratio: ratio, MeetsThreshold: ratio >= primarySourceThreshold}
}
