package models

import "time"

// Work is one row of the normalized works table, the canonical-identity
// projection of a bibliographic record persisted by WorkPersister (§4.9).
type Work struct {
	CanonicalID    string    `json:"canonical_id" gorm:"primaryKey;type:varchar(255)"`
	Title          string    `json:"title" gorm:"type:text;not null"`
	Year           *int      `json:"year,omitempty"`
	PublishedDate  *time.Time `json:"published_date,omitempty"`
	Venue          *string   `json:"venue,omitempty" gorm:"type:varchar(500)"`
	DOI            *string   `json:"doi,omitempty" gorm:"type:varchar(255);index"`
	CitationCount  int       `json:"citation_count" gorm:"default:0"`
	ReferenceCount int       `json:"reference_count" gorm:"default:0"`
	IsOpenAccess   *bool     `json:"is_open_access,omitempty"`
	OAUrl          *string   `json:"oa_url,omitempty" gorm:"type:varchar(2048)"`
	PDFUrl         *string   `json:"pdf_url,omitempty" gorm:"type:varchar(2048)"`
	SourceAPI      string    `json:"source_api" gorm:"type:varchar(100)"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Work) TableName() string { return "works" }

// WorkAuthor is one ordered author row for a Work.
type WorkAuthor struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(32)"`
	CanonicalID string `json:"canonical_id" gorm:"type:varchar(255);not null;index"`
	Position    int    `json:"position" gorm:"not null"`
	Name        string `json:"name" gorm:"type:varchar(500);not null"`
	Affiliation string `json:"affiliation" gorm:"type:varchar(500)"`
	ORCID       string `json:"orcid" gorm:"type:varchar(50)"`
}

func (WorkAuthor) TableName() string { return "work_authors" }

// WorkIdentifier maps one (provider, provider_paper_id) pair to a
// canonical_id, the sole supported mapping between provider identifiers
// and page rows (§4.9).
type WorkIdentifier struct {
	ID              string  `json:"id" gorm:"primaryKey;type:varchar(32)"`
	CanonicalID     string  `json:"canonical_id" gorm:"type:varchar(255);not null;index"`
	Provider        string  `json:"provider" gorm:"type:varchar(100);not null;uniqueIndex:idx_provider_paper"`
	ProviderPaperID string  `json:"provider_paper_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_provider_paper"`
	DOI             *string `json:"doi,omitempty" gorm:"type:varchar(255)"`
	ArxivID         *string `json:"arxiv_id,omitempty" gorm:"type:varchar(50)"`
}

func (WorkIdentifier) TableName() string { return "work_identifiers" }
