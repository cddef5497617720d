package works

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lancet-project/lancet/internal/canonical"
	"github.com/lancet-project/lancet/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Work{}, &models.WorkAuthor{}, &models.WorkIdentifier{}, &models.Page{}))
	return db
}

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func TestPersistWork_InsertsNewWork(t *testing.T) {
	db := newTestDB(t)
	p := NewPersister(db, nil)

	paper := canonical.Paper{
		ID:            "s2:abc123",
		Title:         "Attention is all you need",
		Authors:       []canonical.Author{{Name: "A. Vaswani"}},
		DOI:           strp("10.1000/xyz"),
		CitationCount: intp(10),
		SourceAPI:     "semantic_scholar",
	}
	err := p.PersistWork(context.Background(), paper, "canon:1")
	require.NoError(t, err)

	var work models.Work
	require.NoError(t, db.First(&work, "canonical_id = ?", "canon:1").Error)
	require.Equal(t, "Attention is all you need", work.Title)
	require.Equal(t, 10, work.CitationCount)

	var authors []models.WorkAuthor
	require.NoError(t, db.Where("canonical_id = ?", "canon:1").Find(&authors).Error)
	require.Len(t, authors, 1)

	canonicalID, err := p.GetCanonicalIDForPaperID(context.Background(), "s2:abc123")
	require.NoError(t, err)
	require.Equal(t, "canon:1", canonicalID)
}

func TestPersistWork_MergesCitationCountWithMax(t *testing.T) {
	db := newTestDB(t)
	p := NewPersister(db, nil)
	ctx := context.Background()

	first := canonical.Paper{ID: "s2:a", Title: "t", CitationCount: intp(5), SourceAPI: "semantic_scholar"}
	require.NoError(t, p.PersistWork(ctx, first, "canon:2"))

	second := canonical.Paper{ID: "openalex:a", Title: "t", CitationCount: intp(2), SourceAPI: "openalex"}
	require.NoError(t, p.PersistWork(ctx, second, "canon:2"))

	var work models.Work
	require.NoError(t, db.First(&work, "canonical_id = ?", "canon:2").Error)
	require.Equal(t, 5, work.CitationCount, "merge must keep the higher count, not overwrite it")
}

func TestPersistWork_DoesNotDuplicateAuthorsOnSecondPersist(t *testing.T) {
	db := newTestDB(t)
	p := NewPersister(db, nil)
	ctx := context.Background()

	paper := canonical.Paper{ID: "s2:b", Title: "t", Authors: []canonical.Author{{Name: "X"}, {Name: "Y"}}, SourceAPI: "semantic_scholar"}
	require.NoError(t, p.PersistWork(ctx, paper, "canon:3"))
	require.NoError(t, p.PersistWork(ctx, paper, "canon:3"))

	var count int64
	require.NoError(t, db.Model(&models.WorkAuthor{}).Where("canonical_id = ?", "canon:3").Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestResolvePaperIDToPageID_JoinsThroughCanonicalID(t *testing.T) {
	db := newTestDB(t)
	p := NewPersister(db, nil)
	ctx := context.Background()

	paper := canonical.Paper{ID: "s2:c", Title: "t", SourceAPI: "semantic_scholar"}
	require.NoError(t, p.PersistWork(ctx, paper, "canon:4"))

	cid := "canon:4"
	require.NoError(t, db.Create(&models.Page{ID: "page:1", URL: "https://example.com", CanonicalID: &cid}).Error)

	pageID, err := p.ResolvePaperIDToPageID(ctx, "s2:c")
	require.NoError(t, err)
	require.Equal(t, "page:1", pageID)
}
