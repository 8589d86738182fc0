package importapp

import (
	"context"
	"fmt"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/directory"
	"github.com/google/uuid"
)

// RecordWriter persists mapped rows as directory records
type RecordWriter struct {
	enterprises   directory.EnterpriseRepository
	people        directory.PersonRepository
	opportunities directory.OpportunityRepository
}

// NewRecordWriter creates a new RecordWriter
func NewRecordWriter(
	enterprises directory.EnterpriseRepository,
	people directory.PersonRepository,
	opportunities directory.OpportunityRepository,
) *RecordWriter {
	return &RecordWriter{
		enterprises:   enterprises,
		people:        people,
		opportunities: opportunities,
	}
}

// Create inserts a new record built from rec and returns its id
func (w *RecordWriter) Create(ctx context.Context, rec *MappedRecord, workspaceID, userID uuid.UUID) (uuid.UUID, error) {
	switch rec.Kind {
	case bulk.EntityEnterprise:
		enterprise, err := directory.NewEnterprise(userID, *rec.Enterprise)
		if err != nil {
			return uuid.Nil, err
		}
		if err := w.enterprises.Save(ctx, enterprise); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save enterprise: %w", err)
		}
		return enterprise.ID, nil
	case bulk.EntityPerson:
		person, err := directory.NewPerson(workspaceID, userID, *rec.Person)
		if err != nil {
			return uuid.Nil, err
		}
		if err := w.people.Save(ctx, person); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save person: %w", err)
		}
		return person.ID, nil
	case bulk.EntityOpportunity:
		opportunity, err := directory.NewOpportunity(workspaceID, userID, *rec.Opportunity)
		if err != nil {
			return uuid.Nil, err
		}
		if err := w.opportunities.Save(ctx, opportunity); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save opportunity: %w", err)
		}
		return opportunity.ID, nil
	}
	return uuid.Nil, fmt.Errorf("create record: unsupported entity kind %q", rec.Kind)
}

// Update merges rec into the matched record; fields absent from rec are kept
func (w *RecordWriter) Update(ctx context.Context, match *Match, rec *MappedRecord) error {
	switch {
	case match.Enterprise != nil && rec.Enterprise != nil:
		if err := match.Enterprise.Apply(*rec.Enterprise); err != nil {
			return err
		}
		if err := w.enterprises.Save(ctx, match.Enterprise); err != nil {
			return fmt.Errorf("failed to update enterprise: %w", err)
		}
		return nil
	case match.Person != nil && rec.Person != nil:
		if err := match.Person.Apply(*rec.Person); err != nil {
			return err
		}
		if err := w.people.Save(ctx, match.Person); err != nil {
			return fmt.Errorf("failed to update person: %w", err)
		}
		return nil
	case match.Opportunity != nil && rec.Opportunity != nil:
		if err := match.Opportunity.Apply(*rec.Opportunity); err != nil {
			return err
		}
		if err := w.opportunities.Save(ctx, match.Opportunity); err != nil {
			return fmt.Errorf("failed to update opportunity: %w", err)
		}
		return nil
	}
	return fmt.Errorf("update record: match and row are of different kinds")
}
