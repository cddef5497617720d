package models

import "time"

// EvidenceNode persists one evidence.Graph vertex (§6 edges/nodes tables).
type EvidenceNode struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(255)"`
	Type      string         `json:"type" gorm:"type:varchar(20);not null;index" validate:"required,oneof=claim fragment page"`
	ObjectID  string         `json:"object_id" gorm:"type:varchar(255);not null;index"`
	Attrs     map[string]any `json:"attrs" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (EvidenceNode) TableName() string { return "evidence_nodes" }

// EvidenceEdge persists one evidence.Graph edge.
type EvidenceEdge struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Source          string    `json:"source" gorm:"type:varchar(255);not null;index"`
	Target          string    `json:"target" gorm:"type:varchar(255);not null;index"`
	Relation        string    `json:"relation" gorm:"type:varchar(20);not null;index" validate:"required,oneof=supports refutes cites neutral"`
	Confidence      float64   `json:"confidence"`
	NLILabel        string    `json:"nli_label" gorm:"type:varchar(50)"`
	NLIConfidence   float64   `json:"nli_confidence"`
	IsAcademic      bool      `json:"is_academic" gorm:"index"`
	IsInfluential   bool      `json:"is_influential"`
	CitationContext string    `json:"citation_context" gorm:"type:text"`
	IsContradiction bool      `json:"is_contradiction" gorm:"index"`
	CauseID         string    `json:"cause_id" gorm:"type:varchar(255);index"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (EvidenceEdge) TableName() string { return "edges" }

// ClaimAdoption persists one claim's adoption status (§4.7).
type ClaimAdoption struct {
	ClaimID   string    `json:"claim_id" gorm:"primaryKey;type:varchar(255)"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null" validate:"required,oneof=pending adopted rejected"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ClaimAdoption) TableName() string { return "claim_adoptions" }
