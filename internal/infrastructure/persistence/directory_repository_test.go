package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/earthcare/backend/internal/domain/directory"
	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEnterpriseRepository(t *testing.T) {
	db := setupImportTestDB(t)
	repo := NewGormEnterpriseRepository(db)
	ctx := context.Background()

	category := directory.CategoryLandProjects
	enterprise, err := directory.NewEnterprise(uuid.New(), directory.EnterprisePatch{
		Name:     strPtr("Green Valley Farm"),
		Website:  strPtr("https://GreenValley.example"),
		Category: &category,
		Tags:     []string{"soil", "water"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, enterprise))

	t.Run("FindByID round trips", func(t *testing.T) {
		found, err := repo.FindByID(ctx, enterprise.ID)
		require.NoError(t, err)
		assert.Equal(t, "Green Valley Farm", found.Name)
		assert.Equal(t, directory.CategoryLandProjects, found.Category)
		assert.Equal(t, []string{"soil", "water"}, found.Tags)
	})

	t.Run("matches name ignoring case and spaces", func(t *testing.T) {
		found, err := repo.FindByNormalizedName(ctx, "  green VALLEY farm ")
		require.NoError(t, err)
		assert.Equal(t, enterprise.ID, found.ID)
	})

	t.Run("matches website ignoring case", func(t *testing.T) {
		found, err := repo.FindByNormalizedWebsite(ctx, "https://greenvalley.example")
		require.NoError(t, err)
		assert.Equal(t, enterprise.ID, found.ID)
	})

	t.Run("empty website never matches", func(t *testing.T) {
		_, err := repo.FindByNormalizedWebsite(ctx, "  ")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown name returns ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByNormalizedName(ctx, "Blue Ridge")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save merges an update", func(t *testing.T) {
		require.NoError(t, enterprise.Apply(directory.EnterprisePatch{Location: strPtr("Oregon")}))
		require.NoError(t, repo.Save(ctx, enterprise))

		found, err := repo.FindByID(ctx, enterprise.ID)
		require.NoError(t, err)
		assert.Equal(t, "Oregon", found.Location)
		assert.Equal(t, "Green Valley Farm", found.Name)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestPersonRepository(t *testing.T) {
	db := setupImportTestDB(t)
	repo := NewGormPersonRepository(db)
	ctx := context.Background()

	workspaceID := uuid.New()
	enterpriseID := uuid.New()
	person, err := directory.NewPerson(workspaceID, uuid.New(), directory.PersonPatch{
		FirstName:    strPtr("Ada"),
		LastName:     strPtr("Moss"),
		Email:        strPtr("Ada@Example.org"),
		EnterpriseID: &enterpriseID,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, person))

	t.Run("matches email within the workspace", func(t *testing.T) {
		found, err := repo.FindByNormalizedEmail(ctx, workspaceID, " ada@example.ORG")
		require.NoError(t, err)
		assert.Equal(t, person.ID, found.ID)
		assert.Equal(t, directory.InvitationNotInvited, found.InvitationStatus)
	})

	t.Run("other workspaces do not match", func(t *testing.T) {
		_, err := repo.FindByNormalizedEmail(ctx, uuid.New(), "ada@example.org")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByID(ctx, uuid.New(), person.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("matches name at the same enterprise", func(t *testing.T) {
		found, err := repo.FindByNormalizedName(ctx, workspaceID, enterpriseID, "ADA", " moss ")
		require.NoError(t, err)
		assert.Equal(t, person.ID, found.ID)

		_, err = repo.FindByNormalizedName(ctx, workspaceID, uuid.New(), "Ada", "Moss")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("counts per workspace", func(t *testing.T) {
		count, err := repo.CountForWorkspace(ctx, workspaceID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestOpportunityRepository(t *testing.T) {
	db := setupImportTestDB(t)
	repo := NewGormOpportunityRepository(db)
	ctx := context.Background()

	workspaceID := uuid.New()
	enterpriseID := uuid.New()
	value := decimal.RequireFromString("25000.50")
	probability := 40
	closeDate := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	opportunity, err := directory.NewOpportunity(workspaceID, uuid.New(), directory.OpportunityPatch{
		Title:             strPtr("Watershed Grant"),
		Value:             &value,
		Currency:          strPtr("usd"),
		Probability:       &probability,
		EnterpriseID:      &enterpriseID,
		ExpectedCloseDate: &closeDate,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, opportunity))

	t.Run("round trips value and optional fields", func(t *testing.T) {
		found, err := repo.FindByID(ctx, workspaceID, opportunity.ID)
		require.NoError(t, err)
		require.NotNil(t, found.Value)
		assert.True(t, value.Equal(*found.Value))
		assert.Equal(t, "USD", found.Currency)
		require.NotNil(t, found.Probability)
		assert.Equal(t, 40, *found.Probability)
		assert.Equal(t, directory.OpportunityLead, found.Status)
		require.NotNil(t, found.ExpectedCloseDate)
	})

	t.Run("matches title with and without enterprise", func(t *testing.T) {
		found, err := repo.FindByNormalizedTitle(ctx, workspaceID, "watershed grant", nil)
		require.NoError(t, err)
		assert.Equal(t, opportunity.ID, found.ID)

		found, err = repo.FindByNormalizedTitle(ctx, workspaceID, "WATERSHED GRANT", &enterpriseID)
		require.NoError(t, err)
		assert.Equal(t, opportunity.ID, found.ID)

		otherEnterprise := uuid.New()
		_, err = repo.FindByNormalizedTitle(ctx, workspaceID, "Watershed Grant", &otherEnterprise)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("opportunity without value stays nil", func(t *testing.T) {
		bare, err := directory.NewOpportunity(workspaceID, uuid.New(), directory.OpportunityPatch{
			Title: strPtr("Seed Swap"),
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, bare))

		found, err := repo.FindByID(ctx, workspaceID, bare.ID)
		require.NoError(t, err)
		assert.Nil(t, found.Value)
		assert.Nil(t, found.Probability)

		count, err := repo.CountForWorkspace(ctx, workspaceID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
