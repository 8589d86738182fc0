package importapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/directory"
	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Match is an existing record that a mapped row duplicates
type Match struct {
	Kind        bulk.EntityKind
	Enterprise  *directory.Enterprise
	Person      *directory.Person
	Opportunity *directory.Opportunity
}

// ID returns the id of the matched record
func (m *Match) ID() uuid.UUID {
	switch {
	case m.Enterprise != nil:
		return m.Enterprise.ID
	case m.Person != nil:
		return m.Person.ID
	case m.Opportunity != nil:
		return m.Opportunity.ID
	}
	return uuid.Nil
}

// DuplicateResolver finds existing records that a mapped row duplicates
type DuplicateResolver struct {
	enterprises   directory.EnterpriseRepository
	people        directory.PersonRepository
	opportunities directory.OpportunityRepository
}

// NewDuplicateResolver creates a new DuplicateResolver
func NewDuplicateResolver(
	enterprises directory.EnterpriseRepository,
	people directory.PersonRepository,
	opportunities directory.OpportunityRepository,
) *DuplicateResolver {
	return &DuplicateResolver{
		enterprises:   enterprises,
		people:        people,
		opportunities: opportunities,
	}
}

// Resolve returns the existing record rec duplicates, or nil when it should be created.
// The create_new strategy never matches and performs no lookup.
func (r *DuplicateResolver) Resolve(ctx context.Context, rec *MappedRecord, strategy bulk.DuplicateStrategy, workspaceID uuid.UUID) (*Match, error) {
	if strategy == bulk.StrategyCreateNew {
		return nil, nil
	}

	switch rec.Kind {
	case bulk.EntityEnterprise:
		return r.resolveEnterprise(ctx, rec.Enterprise)
	case bulk.EntityPerson:
		return r.resolvePerson(ctx, rec.Person, workspaceID)
	case bulk.EntityOpportunity:
		return r.resolveOpportunity(ctx, rec.Opportunity, workspaceID)
	}
	return nil, fmt.Errorf("resolve duplicates: unsupported entity kind %q", rec.Kind)
}

func (r *DuplicateResolver) resolveEnterprise(ctx context.Context, patch *directory.EnterprisePatch) (*Match, error) {
	if name := normalized(patch.Name); name != "" {
		e, err := r.enterprises.FindByNormalizedName(ctx, name)
		if found, err := matched(err); err != nil {
			return nil, fmt.Errorf("find enterprise by name: %w", err)
		} else if found {
			return &Match{Kind: bulk.EntityEnterprise, Enterprise: e}, nil
		}
	}

	if website := normalized(patch.Website); website != "" {
		e, err := r.enterprises.FindByNormalizedWebsite(ctx, website)
		if found, err := matched(err); err != nil {
			return nil, fmt.Errorf("find enterprise by website: %w", err)
		} else if found {
			return &Match{Kind: bulk.EntityEnterprise, Enterprise: e}, nil
		}
	}

	return nil, nil
}

func (r *DuplicateResolver) resolvePerson(ctx context.Context, patch *directory.PersonPatch, workspaceID uuid.UUID) (*Match, error) {
	if email := normalized(patch.Email); email != "" {
		p, err := r.people.FindByNormalizedEmail(ctx, workspaceID, email)
		if found, err := matched(err); err != nil {
			return nil, fmt.Errorf("find person by email: %w", err)
		} else if found {
			return &Match{Kind: bulk.EntityPerson, Person: p}, nil
		}
	}

	first, last := normalized(patch.FirstName), normalized(patch.LastName)
	if first != "" && last != "" && patch.EnterpriseID != nil {
		p, err := r.people.FindByNormalizedName(ctx, workspaceID, *patch.EnterpriseID, first, last)
		if found, err := matched(err); err != nil {
			return nil, fmt.Errorf("find person by name: %w", err)
		} else if found {
			return &Match{Kind: bulk.EntityPerson, Person: p}, nil
		}
	}

	return nil, nil
}

func (r *DuplicateResolver) resolveOpportunity(ctx context.Context, patch *directory.OpportunityPatch, workspaceID uuid.UUID) (*Match, error) {
	title := normalized(patch.Title)
	if title == "" {
		return nil, nil
	}

	o, err := r.opportunities.FindByNormalizedTitle(ctx, workspaceID, title, patch.EnterpriseID)
	if found, err := matched(err); err != nil {
		return nil, fmt.Errorf("find opportunity by title: %w", err)
	} else if found {
		return &Match{Kind: bulk.EntityOpportunity, Opportunity: o}, nil
	}
	return nil, nil
}

func normalized(s *string) string {
	if s == nil {
		return ""
	}
	return directory.NormalizeKey(*s)
}

// matched turns a repository lookup error into (found, err); not found is not an error
func matched(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return false, err
}
