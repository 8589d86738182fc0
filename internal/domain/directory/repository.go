package directory

import (
	"context"

	"github.com/google/uuid"
)

// EnterpriseRepository persists directory enterprises.
// Lookups return shared.ErrNotFound when nothing matches.
type EnterpriseRepository interface {
	// FindByID finds an enterprise by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Enterprise, error)

	// FindByNormalizedName finds the first enterprise whose trimmed, lower-cased name equals name
	FindByNormalizedName(ctx context.Context, name string) (*Enterprise, error)

	// FindByNormalizedWebsite finds the first enterprise whose trimmed, lower-cased website equals website
	FindByNormalizedWebsite(ctx context.Context, website string) (*Enterprise, error)

	// Save creates or updates an enterprise
	Save(ctx context.Context, enterprise *Enterprise) error

	// Count counts all enterprises
	Count(ctx context.Context) (int64, error)
}

// PersonRepository persists workspace contacts
type PersonRepository interface {
	// FindByID finds a person by ID within a workspace
	FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*Person, error)

	// FindByNormalizedEmail finds a person by email within a workspace
	FindByNormalizedEmail(ctx context.Context, workspaceID uuid.UUID, email string) (*Person, error)

	// FindByNormalizedName finds a person by first and last name within an enterprise of a workspace
	FindByNormalizedName(ctx context.Context, workspaceID, enterpriseID uuid.UUID, firstName, lastName string) (*Person, error)

	// Save creates or updates a person
	Save(ctx context.Context, person *Person) error

	// CountForWorkspace counts the people in a workspace
	CountForWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error)
}

// OpportunityRepository persists workspace opportunities
type OpportunityRepository interface {
	// FindByID finds an opportunity by ID within a workspace
	FindByID(ctx context.Context, workspaceID, id uuid.UUID) (*Opportunity, error)

	// FindByNormalizedTitle finds an opportunity by title within a workspace,
	// restricted to the enterprise when enterpriseID is not nil
	FindByNormalizedTitle(ctx context.Context, workspaceID uuid.UUID, title string, enterpriseID *uuid.UUID) (*Opportunity, error)

	// Save creates or updates an opportunity
	Save(ctx context.Context, opportunity *Opportunity) error

	// CountForWorkspace counts the opportunities in a workspace
	CountForWorkspace(ctx context.Context, workspaceID uuid.UUID) (int64, error)
}
