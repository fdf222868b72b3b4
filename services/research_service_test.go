package services

import (
	"jetlex_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResearchLifecycle(t *testing.T) {
	db := setupServiceTestDB(t)
	author := createTestUser(t, db, models.RoleColaboradorA)

	_, err := CreateResearch(db, ResearchInput{Title: "", Content: "x"}, author)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = CreateResearch(db, ResearchInput{Title: "x", Content: "y", Category: "cocina"}, author)
	assert.ErrorIs(t, err, ErrValidation)

	r, err := CreateResearch(db, ResearchInput{Title: "Mercado de taxis aéreos", Content: "Análisis", Category: models.ResearchCategoryAviacionCivil}, author)
	require.NoError(t, err)
	assert.Equal(t, models.ResearchStatusBorrador, r.Status)
	assert.Equal(t, models.VisibilityEquipo, r.Visibility)

	recent, err := RecentPublishedResearch(db, time.Now().Add(-time.Hour), 3)
	require.NoError(t, err)
	assert.Empty(t, recent)

	_, err = SetResearchStatus(db, r.ID, models.ResearchStatusPublicado)
	require.NoError(t, err)
	recent, err = RecentPublishedResearch(db, time.Now().Add(-time.Hour), 3)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	_, err = SetResearchStatus(db, r.ID, "viral")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = SetResearchStatus(db, "missing", models.ResearchStatusArchivado)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := ListResearch(db, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Author)
	assert.Equal(t, author.ID, all[0].Author.ID)
}
