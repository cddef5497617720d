package models

import "time"

// Page is a crawled/fetched page row, keyed into the canonical-identity
// space via CanonicalID when the page turned out to be an academic
// record (§6: tasks/queries/pages/fragments/claims schema).
type Page struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	TaskID      string    `json:"task_id" gorm:"type:varchar(64);index"`
	URL         string    `json:"url" gorm:"type:varchar(2048);not null"`
	CanonicalID *string   `json:"canonical_id,omitempty" gorm:"type:varchar(255);index"`
	Title       string    `json:"title" gorm:"type:text"`
	FetchedAt   time.Time `json:"fetched_at" gorm:"autoCreateTime"`
}

func (Page) TableName() string { return "pages" }
