package persistence

import (
	"context"
	"errors"

	"github.com/earthcare/backend/internal/domain/directory"
	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/earthcare/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEnterpriseRepository implements directory.EnterpriseRepository using GORM
type GormEnterpriseRepository struct {
	db *gorm.DB
}

// NewGormEnterpriseRepository creates a new GormEnterpriseRepository
func NewGormEnterpriseRepository(db *gorm.DB) *GormEnterpriseRepository {
	return &GormEnterpriseRepository{db: db}
}

// FindByID finds an enterprise by ID
func (r *GormEnterpriseRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Enterprise, error) {
	var model models.EnterpriseModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByNormalizedName finds the oldest enterprise with the same name, ignoring case and surrounding spaces
func (r *GormEnterpriseRepository) FindByNormalizedName(ctx context.Context, name string) (*directory.Enterprise, error) {
	var model models.EnterpriseModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(name)) = ?", directory.NormalizeKey(name)).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByNormalizedWebsite finds the oldest enterprise with the same website, ignoring case and surrounding spaces
func (r *GormEnterpriseRepository) FindByNormalizedWebsite(ctx context.Context, website string) (*directory.Enterprise, error) {
	key := directory.NormalizeKey(website)
	if key == "" {
		return nil, shared.ErrNotFound
	}

	var model models.EnterpriseModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(website)) = ?", key).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates an enterprise
func (r *GormEnterpriseRepository) Save(ctx context.Context, enterprise *directory.Enterprise) error {
	model := models.EnterpriseModelFromDomain(enterprise)
	return r.db.WithContext(ctx).Save(model).Error
}

// Count counts all enterprises
func (r *GormEnterpriseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EnterpriseModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GormPersonRepository implements directory.PersonRepository using GORM
type GormPersonRepository struct {
	db *gorm.DB
}

// NewGormPersonRepository creates a new GormPersonRepository
func NewGormPersonRepository(db *gorm.DB) *GormPersonRepository {
	return &GormPersonRepository{db: db}
}

// FindByID finds a person by ID within a workspace
func (r *GormPersonRepository) FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*directory.Person, error) {
	var model models.PersonModel
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND id = ?", workspaceID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByNormalizedEmail finds the oldest person in the workspace with the same email
func (r *GormPersonRepository) FindByNormalizedEmail(ctx context.Context, workspaceID uuid.UUID, email string) (*directory.Person, error) {
	key := directory.NormalizeKey(email)
	if key == "" {
		return nil, shared.ErrNotFound
	}

	var model models.PersonModel
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND LOWER(TRIM(email)) = ?", workspaceID, key).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByNormalizedName finds the oldest person with the same first and last name at an enterprise
func (r *GormPersonRepository) FindByNormalizedName(
	ctx context.Context,
	workspaceID, enterpriseID uuid.UUID,
	firstName, lastName string,
) (*directory.Person, error) {
	var model models.PersonModel
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND enterprise_id = ?", workspaceID, enterpriseID).
		Where("LOWER(TRIM(first_name)) = ? AND LOWER(TRIM(last_name)) = ?",
			directory.NormalizeKey(firstName), directory.NormalizeKey(lastName)).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a person
func (r *GormPersonRepository) Save(ctx context.Context, person *directory.Person) error {
	model := models.PersonModelFromDomain(person)
	return r.db.WithContext(ctx).Save(model).Error
}

// CountForWorkspace counts the people in a workspace
func (r *GormPersonRepository) CountForWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PersonModel{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GormOpportunityRepository implements directory.OpportunityRepository using GORM
type GormOpportunityRepository struct {
	db *gorm.DB
}

// NewGormOpportunityRepository creates a new GormOpportunityRepository
func NewGormOpportunityRepository(db *gorm.DB) *GormOpportunityRepository {
	return &GormOpportunityRepository{db: db}
}

// FindByID finds an opportunity by ID within a workspace
func (r *GormOpportunityRepository) FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*directory.Opportunity, error) {
	var model models.OpportunityModel
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND id = ?", workspaceID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// FindByNormalizedTitle finds the oldest opportunity in the workspace with the same title,
// narrowed to one enterprise when enterpriseID is set
func (r *GormOpportunityRepository) FindByNormalizedTitle(
	ctx context.Context,
	workspaceID uuid.UUID,
	title string,
	enterpriseID *uuid.UUID,
) (*directory.Opportunity, error) {
	query := r.db.WithContext(ctx).
		Where("workspace_id = ? AND LOWER(TRIM(title)) = ?", workspaceID, directory.NormalizeKey(title))
	if enterpriseID != nil {
		query = query.Where("enterprise_id = ?", *enterpriseID)
	}

	var model models.OpportunityModel
	if err := query.Order("created_at ASC").First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates an opportunity
func (r *GormOpportunityRepository) Save(ctx context.Context, opportunity *directory.Opportunity) error {
	model := models.OpportunityModelFromDomain(opportunity)
	return r.db.WithContext(ctx).Save(model).Error
}

// CountForWorkspace counts the opportunities in a workspace
func (r *GormOpportunityRepository) CountForWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OpportunityModel{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// Compile-time interface compliance checks
var (
	_ directory.EnterpriseRepository  = (*GormEnterpriseRepository)(nil)
	_ directory.PersonRepository      = (*GormPersonRepository)(nil)
	_ directory.OpportunityRepository = (*GormOpportunityRepository)(nil)
)
