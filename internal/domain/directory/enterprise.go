package directory

import (
	"strings"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EnterpriseCategory groups enterprises in the network directory
type EnterpriseCategory string

const (
	CategoryLandProjects      EnterpriseCategory = "land_projects"
	CategoryCapitalSources    EnterpriseCategory = "capital_sources"
	CategoryOpenSourceTools   EnterpriseCategory = "open_source_tools"
	CategoryNetworkOrganizers EnterpriseCategory = "network_organizers"
)

// EnterpriseCategories lists the valid categories
var EnterpriseCategories = []EnterpriseCategory{
	CategoryLandProjects,
	CategoryCapitalSources,
	CategoryOpenSourceTools,
	CategoryNetworkOrganizers,
}

// IsValid checks if the category is valid
func (c EnterpriseCategory) IsValid() bool {
	for _, category := range EnterpriseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Enterprise is an organization listed in the network directory.
// Enterprises are shared by every workspace.
type Enterprise struct {
	shared.BaseAggregateRoot
	CreatedBy    uuid.UUID
	Name         string
	Description  string
	Category     EnterpriseCategory
	Location     string
	Website      string
	ContactEmail string
	Tags         []string
	IsVerified   bool
}

// EnterprisePatch holds the enterprise fields present in an import row.
// Nil fields are left untouched when applied.
type EnterprisePatch struct {
	Name         *string
	Description  *string
	Category     *EnterpriseCategory
	Location     *string
	Website      *string
	ContactEmail *string
	Tags         []string
	IsVerified   *bool
}

// NewEnterprise creates an enterprise from a patch; name is required
func NewEnterprise(createdBy uuid.UUID, patch EnterprisePatch) (*Enterprise, error) {
	if patch.Name == nil || strings.TrimSpace(*patch.Name) == "" {
		return nil, requiredField("name")
	}

	enterprise := &Enterprise{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CreatedBy:         createdBy,
		Tags:              []string{},
	}
	if err := enterprise.apply(patch); err != nil {
		return nil, err
	}
	return enterprise, nil
}

// Apply merges the present patch fields into the enterprise
func (e *Enterprise) Apply(patch EnterprisePatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return requiredField("name")
	}
	if err := e.apply(patch); err != nil {
		return err
	}
	e.Touch()
	return nil
}

func (e *Enterprise) apply(patch EnterprisePatch) error {
	if patch.Name != nil {
		if err := maxLen("name", *patch.Name, 255); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if err := maxLen("description", *patch.Description, 5000); err != nil {
			return err
		}
	}
	if patch.Category != nil && !patch.Category.IsValid() {
		return invalidField("category", "must be one of land_projects, capital_sources, open_source_tools, network_organizers")
	}

	setString(&e.Name, patch.Name)
	setString(&e.Description, patch.Description)
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	setString(&e.Location, patch.Location)
	setString(&e.Website, patch.Website)
	setString(&e.ContactEmail, patch.ContactEmail)
	if patch.Tags != nil {
		e.Tags = append([]string{}, patch.Tags...)
	}
	if patch.IsVerified != nil {
		e.IsVerified = *patch.IsVerified
	}
	return nil
}
