// Package works persists bibliographic records into the normalized
// works/work_authors/work_identifiers tables, grounded on
// original_source/src/storage/works.py's persist_work and spec.md §4.9.
package works

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/errors"
	"github.com/lancet-project/lancet/internal/messaging"
	"github.com/lancet-project/lancet/internal/models"
)

// Persister executes the three-table upsert described in §4.9.
type Persister struct {
	db        *gorm.DB
	logger    *slog.Logger
	messaging *messaging.Client
}

func NewPersister(db *gorm.DB, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{db: db, logger: logger}
}

// WithMessaging attaches an event publisher; paper-registered events are
// only published once one is set.
func (p *Persister) WithMessaging(client *messaging.Client) *Persister {
	p.messaging = client
	return p
}

// PersistWork upserts paper into works (MAX-merging counts, coalescing
// optional fields), inserts work_authors only when none exist yet for
// canonicalID, and upserts the (provider, provider_paper_id) identifier
// row, coalescing doi/arxiv_id.
func (p *Persister) PersistWork(ctx context.Context, paper canonical.Paper, canonicalID string) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		work := models.Work{
			CanonicalID:    canonicalID,
			Title:          paper.Title,
			Year:           paper.Year,
			PublishedDate:  paper.PublishedDate,
			Venue:          paper.Venue,
			DOI:            paper.DOI,
			IsOpenAccess:   paper.IsOpenAccess,
			OAUrl:          paper.OAUrl,
			PDFUrl:         paper.PDFUrl,
			SourceAPI:      paper.SourceAPI,
		}
		if paper.CitationCount != nil {
			work.CitationCount = *paper.CitationCount
		}
		if paper.ReferenceCount != nil {
			work.ReferenceCount = *paper.ReferenceCount
		}

		// clause.OnConflict cannot express MAX()/COALESCE() against the
		// excluded row, so the works upsert always goes through raw SQL.
		if err := p.upsertWorkRaw(tx, work); err != nil {
			return err
		}

		var authorCount int64
		if err := tx.Model(&models.WorkAuthor{}).Where("canonical_id = ?", canonicalID).Count(&authorCount).Error; err != nil {
			return errors.NewDatabaseError("count_work_authors", err)
		}
		if authorCount == 0 {
			for pos, author := range paper.Authors {
				row := models.WorkAuthor{
					ID:          "wa_" + uuid.NewString()[:12],
					CanonicalID: canonicalID,
					Position:    pos,
					Name:        author.Name,
					Affiliation: author.Affiliation,
					ORCID:       author.ORCID,
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
					return errors.NewDatabaseError("insert_work_author", err)
				}
			}
		}

		identifier := models.WorkIdentifier{
			ID:              "wi_" + uuid.NewString()[:12],
			CanonicalID:     canonicalID,
			Provider:        paper.SourceAPI,
			ProviderPaperID: paper.ID,
			DOI:             paper.DOI,
			ArxivID:         paper.ArxivID,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider"}, {Name: "provider_paper_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"doi":      gorm.Expr("COALESCE(excluded.doi, work_identifiers.doi)"),
				"arxiv_id": gorm.Expr("COALESCE(excluded.arxiv_id, work_identifiers.arxiv_id)"),
			}),
		}).Create(&identifier).Error; err != nil {
			return errors.NewDatabaseError("upsert_work_identifier", err)
		}

		p.logger.Debug("persisted work", slog.String("canonical_id", canonicalID), slog.String("paper_id", paper.ID), slog.Int("authors", len(paper.Authors)))
		return nil
	})
	if err != nil {
		return err
	}
	p.publishRegistered(ctx, canonicalID, paper)
	return nil
}

func (p *Persister) publishRegistered(ctx context.Context, canonicalID string, paper canonical.Paper) {
	if p.messaging == nil {
		return
	}
	event := messaging.NewPaperRegisteredEvent(canonicalID, paper.ID, paper.SourceAPI, paper.Title)
	if err := p.messaging.PublishAsync(ctx, messaging.SubjectPaperRegistered, event); err != nil {
		p.logger.Warn("failed to publish paper registered event", slog.String("error", err.Error()))
	}
}

func (p *Persister) upsertWorkRaw(tx *gorm.DB, w models.Work) error {
	return tx.Exec(`
		INSERT INTO works (canonical_id, title, year, published_date, venue, doi, citation_count, reference_count, is_open_access, oa_url, pdf_url, source_api)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(canonical_id) DO UPDATE SET
			citation_count = MAX(works.citation_count, excluded.citation_count),
			reference_count = MAX(works.reference_count, excluded.reference_count),
			is_open_access = COALESCE(excluded.is_open_access, works.is_open_access),
			oa_url = COALESCE(excluded.oa_url, works.oa_url),
			pdf_url = COALESCE(excluded.pdf_url, works.pdf_url)
	`, w.CanonicalID, w.Title, w.Year, w.PublishedDate, w.Venue, w.DOI, w.CitationCount, w.ReferenceCount, w.IsOpenAccess, w.OAUrl, w.PDFUrl, w.SourceAPI).Error
}

// ResolvePaperIDToPageID joins work_identifiers → pages via canonical_id.
func (p *Persister) ResolvePaperIDToPageID(ctx context.Context, paperID string) (string, error) {
	var pageID string
	err := p.db.WithContext(ctx).Raw(`
		SELECT p.id FROM work_identifiers wi
		JOIN pages p ON p.canonical_id = wi.canonical_id
		WHERE wi.provider_paper_id = ?
		LIMIT 1
	`, paperID).Scan(&pageID).Error
	if err != nil {
		return "", errors.NewDatabaseError("resolve_paper_id_to_page_id", err)
	}
	return pageID, nil
}

// GetCanonicalIDForPaperID looks up canonical_id by provider_paper_id.
func (p *Persister) GetCanonicalIDForPaperID(ctx context.Context, paperID string) (string, error) {
	var identifier models.WorkIdentifier
	err := p.db.WithContext(ctx).Where("provider_paper_id = ?", paperID).First(&identifier).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", errors.NewDatabaseError("get_canonical_id_for_paper_id", err)
	}
	return identifier.CanonicalID, nil
}
