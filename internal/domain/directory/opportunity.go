package directory

import (
	"strings"
	"time"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpportunityStatus is the pipeline stage of an opportunity
type OpportunityStatus string

const (
	OpportunityLead        OpportunityStatus = "lead"
	OpportunityQualified   OpportunityStatus = "qualified"
	OpportunityProposal    OpportunityStatus = "proposal"
	OpportunityNegotiation OpportunityStatus = "negotiation"
	OpportunityClosedWon   OpportunityStatus = "closed_won"
	OpportunityClosedLost  OpportunityStatus = "closed_lost"
)

// OpportunityStatuses lists the valid stages in pipeline order
var OpportunityStatuses = []OpportunityStatus{
	OpportunityLead,
	OpportunityQualified,
	OpportunityProposal,
	OpportunityNegotiation,
	OpportunityClosedWon,
	OpportunityClosedLost,
}

// IsValid checks if the status is valid
func (s OpportunityStatus) IsValid() bool {
	for _, status := range OpportunityStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsClosed returns true for won or lost opportunities
func (s OpportunityStatus) IsClosed() bool {
	return s == OpportunityClosedWon || s == OpportunityClosedLost
}

// Opportunity is a deal tracked in a workspace pipeline
type Opportunity struct {
	shared.WorkspaceAggregateRoot
	Title             string
	Description       string
	Value             *decimal.Decimal
	Currency          string
	Status            OpportunityStatus
	Probability       *int
	EnterpriseID      *uuid.UUID
	PrimaryContactID  *uuid.UUID
	ExpectedCloseDate *time.Time
	Notes             string
}

// OpportunityPatch holds the opportunity fields present in an import row
type OpportunityPatch struct {
	Title             *string
	Description       *string
	Value             *decimal.Decimal
	Currency          *string
	Status            *OpportunityStatus
	Probability       *int
	EnterpriseID      *uuid.UUID
	PrimaryContactID  *uuid.UUID
	ExpectedCloseDate *time.Time
	Notes             *string
}

// NewOpportunity creates an opportunity in a workspace; title is required
func NewOpportunity(workspaceID, createdBy uuid.UUID, patch OpportunityPatch) (*Opportunity, error) {
	if patch.Title == nil || strings.TrimSpace(*patch.Title) == "" {
		return nil, requiredField("title")
	}

	opportunity := &Opportunity{
		WorkspaceAggregateRoot: shared.NewWorkspaceAggregateRoot(workspaceID, createdBy),
		Status:                 OpportunityLead,
	}
	if err := opportunity.apply(patch); err != nil {
		return nil, err
	}
	return opportunity, nil
}

// Apply merges the present patch fields into the opportunity
func (o *Opportunity) Apply(patch OpportunityPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return requiredField("title")
	}
	if err := o.apply(patch); err != nil {
		return err
	}
	o.Touch()
	return nil
}

func (o *Opportunity) apply(patch OpportunityPatch) error {
	if patch.Title != nil {
		if err := maxLen("title", *patch.Title, 255); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if err := maxLen("description", *patch.Description, 5000); err != nil {
			return err
		}
	}
	if patch.Notes != nil {
		if err := maxLen("notes", *patch.Notes, 5000); err != nil {
			return err
		}
	}
	if patch.Value != nil && patch.Value.IsNegative() {
		return invalidField("value", "cannot be negative")
	}
	if patch.Currency != nil && len(*patch.Currency) != 3 {
		return invalidField("currency", "must be a 3-letter code")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return invalidField("status", "must be a valid pipeline stage")
	}
	if patch.Probability != nil && (*patch.Probability < 0 || *patch.Probability > 100) {
		return invalidField("probability", "must be between 0 and 100")
	}

	setString(&o.Title, patch.Title)
	setString(&o.Description, patch.Description)
	if patch.Value != nil {
		v := *patch.Value
		o.Value = &v
	}
	if patch.Currency != nil {
		o.Currency = strings.ToUpper(*patch.Currency)
	}
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.Probability != nil {
		p := *patch.Probability
		o.Probability = &p
	}
	if patch.EnterpriseID != nil {
		id := *patch.EnterpriseID
		o.EnterpriseID = &id
	}
	if patch.PrimaryContactID != nil {
		id := *patch.PrimaryContactID
		o.PrimaryContactID = &id
	}
	if patch.ExpectedCloseDate != nil {
		d := *patch.ExpectedCloseDate
		o.ExpectedCloseDate = &d
	}
	setString(&o.Notes, patch.Notes)
	return nil
}
