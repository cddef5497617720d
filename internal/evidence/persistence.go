package evidence

import (
	"context"

	"github.com/lancet-project/lancet/internal/errors"
	"github.com/lancet-project/lancet/internal/models"

	"gorm.io/gorm"
)

// SaveToDB persists the full graph to the edges/evidence_nodes/claim_adoptions
// tables, grounded on original_source's EvidenceGraph.save_to_db. Existing
// rows for nodes and edges present in g are replaced; nodes/edges absent from
// g are left untouched (this is an upsert, not a full-table sync).
func (g *Graph) SaveToDB(ctx context.Context, db *gorm.DB) error {
	g.mu.RLock()
	nodes := make([]models.EvidenceNode, 0, len(g.nodes))
	for id, n := range g.nodes {
		nodes = append(nodes, models.EvidenceNode{
			ID:       string(id),
			Type:     string(n.Type),
			ObjectID: n.ObjectID,
			Attrs:    n.Attrs,
		})
	}
	edges := make([]models.EvidenceEdge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, models.EvidenceEdge{
			ID:              e.ID,
			Source:          string(e.Source),
			Target:          string(e.Target),
			Relation:        string(e.Relation),
			Confidence:      e.Confidence,
			NLILabel:        e.NLILabel,
			NLIConfidence:   e.NLIConfidence,
			IsAcademic:      e.IsAcademic,
			IsInfluential:   e.IsInfluential,
			CitationContext: e.CitationContext,
			IsContradiction: e.IsContradiction,
			CauseID:         e.CauseID,
		})
	}
	adoptions := make([]models.ClaimAdoption, 0, len(g.adoption))
	for id, status := range g.adoption {
		adoptions = append(adoptions, models.ClaimAdoption{
			ClaimID: string(id),
			Status:  string(status),
		})
	}
	g.mu.RUnlock()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(nodes) > 0 {
			if err := tx.Save(&nodes).Error; err != nil {
				return errors.NewDatabaseError("save_evidence_nodes", err)
			}
		}
		if len(edges) > 0 {
			if err := tx.Save(&edges).Error; err != nil {
				return errors.NewDatabaseError("save_evidence_edges", err)
			}
		}
		if len(adoptions) > 0 {
			if err := tx.Save(&adoptions).Error; err != nil {
				return errors.NewDatabaseError("save_claim_adoptions", err)
			}
		}
		return nil
	})
}

// LoadFromDB replaces g's in-memory contents with every node/edge/adoption
// row found in db. Intended for process restart recovery.
func (g *Graph) LoadFromDB(ctx context.Context, db *gorm.DB) error {
	var nodeRows []models.EvidenceNode
	if err := db.WithContext(ctx).Find(&nodeRows).Error; err != nil {
		return errors.NewDatabaseError("load_evidence_nodes", err)
	}
	var edgeRows []models.EvidenceEdge
	if err := db.WithContext(ctx).Find(&edgeRows).Error; err != nil {
		return errors.NewDatabaseError("load_evidence_edges", err)
	}
	var adoptionRows []models.ClaimAdoption
	if err := db.WithContext(ctx).Find(&adoptionRows).Error; err != nil {
		return errors.NewDatabaseError("load_claim_adoptions", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[NodeID]*Node, len(nodeRows))
	for _, row := range nodeRows {
		g.nodes[NodeID(row.ID)] = &Node{Type: NodeType(row.Type), ObjectID: row.ObjectID, Attrs: row.Attrs}
	}

	g.edges = make(map[string]*Edge, len(edgeRows))
	g.outgoing = make(map[NodeID][]string, len(nodeRows))
	g.incoming = make(map[NodeID][]string, len(nodeRows))
	for _, row := range edgeRows {
		e := &Edge{
			ID:              row.ID,
			Source:          NodeID(row.Source),
			Target:          NodeID(row.Target),
			Relation:        RelationType(row.Relation),
			Confidence:      row.Confidence,
			NLILabel:        row.NLILabel,
			NLIConfidence:   row.NLIConfidence,
			IsAcademic:      row.IsAcademic,
			IsInfluential:   row.IsInfluential,
			CitationContext: row.CitationContext,
			IsContradiction: row.IsContradiction,
			CauseID:         row.CauseID,
		}
		g.edges[e.ID] = e
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e.ID)
		g.incoming[e.Target] = append(g.incoming[e.Target], e.ID)
	}

	g.adoption = make(map[NodeID]AdoptionStatus, len(adoptionRows))
	for _, row := range adoptionRows {
		g.adoption[NodeID(row.ClaimID)] = AdoptionStatus(row.Status)
	}

	return nil
}

type causeIDKey struct{}

// WithCause attaches a causal-trace ID to ctx so downstream AddEdge calls can
// thread it onto the edges they create via CauseIDFromContext, supplementing
// §4.7 with the original's CausalTrace (§10 of SPEC_FULL.md).
func WithCause(ctx context.Context, causeID string) context.Context {
	return context.WithValue(ctx, causeIDKey{}, causeID)
}

// CauseIDFromContext returns the causal-trace ID attached by WithCause, or
// "" if none was set.
func CauseIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(causeIDKey{}).(string)
	return v
}

// AddEdgeWithCause is AddEdge with the attrs["cause_id"] populated from ctx
// when not already set explicitly.
func (g *Graph) AddEdgeWithCause(ctx context.Context, srcType NodeType, srcID string, tgtType NodeType, tgtID string, relation RelationType, attrs map[string]any) string {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	if _, ok := attrs["cause_id"]; !ok {
		if cause := CauseIDFromContext(ctx); cause != "" {
			attrs["cause_id"] = cause
		}
	}
	return g.AddEdge(srcType, srcID, tgtType, tgtID, relation, attrs)
}
