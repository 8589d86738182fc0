package importapp

import (
	"context"

	"github.com/earthcare/backend/internal/domain/directory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ============================================================================
// Mocks
// ============================================================================

// MockEnterpriseRepository is a mock implementation of directory.EnterpriseRepository
type MockEnterpriseRepository struct {
	mock.Mock
}

func (m *MockEnterpriseRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Enterprise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Enterprise), args.Error(1)
}

func (m *MockEnterpriseRepository) FindByNormalizedName(ctx context.Context, name string) (*directory.Enterprise, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Enterprise), args.Error(1)
}

func (m *MockEnterpriseRepository) FindByNormalizedWebsite(ctx context.Context, website string) (*directory.Enterprise, error) {
	args := m.Called(ctx, website)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Enterprise), args.Error(1)
}

func (m *MockEnterpriseRepository) Save(ctx context.Context, enterprise *directory.Enterprise) error {
	args := m.Called(ctx, enterprise)
	return args.Error(0)
}

func (m *MockEnterpriseRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPersonRepository is a mock implementation of directory.PersonRepository
type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*directory.Person, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Person), args.Error(1)
}

func (m *MockPersonRepository) FindByNormalizedEmail(ctx context.Context, workspaceID uuid.UUID, email string) (*directory.Person, error) {
	args := m.Called(ctx, workspaceID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Person), args.Error(1)
}

func (m *MockPersonRepository) FindByNormalizedName(ctx context.Context, workspaceID, enterpriseID uuid.UUID, firstName, lastName string) (*directory.Person, error) {
	args := m.Called(ctx, workspaceID, enterpriseID, firstName, lastName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Person), args.Error(1)
}

func (m *MockPersonRepository) Save(ctx context.Context, person *directory.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

func (m *MockPersonRepository) CountForWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(int64), args.Error(1)
}

// MockOpportunityRepository is a mock implementation of directory.OpportunityRepository
type MockOpportunityRepository struct {
	mock.Mock
}

func (m *MockOpportunityRepository) FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*directory.Opportunity, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) FindByNormalizedTitle(ctx context.Context, workspaceID uuid.UUID, title string, enterpriseID *uuid.UUID) (*directory.Opportunity, error) {
	args := m.Called(ctx, workspaceID, title, enterpriseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) Save(ctx context.Context, opportunity *directory.Opportunity) error {
	args := m.Called(ctx, opportunity)
	return args.Error(0)
}

func (m *MockOpportunityRepository) CountForWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(int64), args.Error(1)
}

func strPtr(s string) *string {
	return &s
}
