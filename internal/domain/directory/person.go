package directory

import (
	"strings"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvitationStatus tracks whether a contact was invited to the network
type InvitationStatus string

const (
	InvitationNotInvited InvitationStatus = "not_invited"
	InvitationInvited    InvitationStatus = "invited"
	InvitationSignedUp   InvitationStatus = "signed_up"
)

// IsValid checks if the invitation status is valid
func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationNotInvited, InvitationInvited, InvitationSignedUp:
		return true
	}
	return false
}

// Person is a contact kept in a workspace
type Person struct {
	shared.WorkspaceAggregateRoot
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Title            string
	EnterpriseID     *uuid.UUID
	LinkedInURL      string
	Notes            string
	InvitationStatus InvitationStatus
}

// PersonPatch holds the person fields present in an import row
type PersonPatch struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	Title            *string
	EnterpriseID     *uuid.UUID
	LinkedInURL      *string
	Notes            *string
	InvitationStatus *InvitationStatus
}

// FullName returns "first last"
func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// NewPerson creates a person in a workspace; first and last name are required
func NewPerson(workspaceID, createdBy uuid.UUID, patch PersonPatch) (*Person, error) {
	if patch.FirstName == nil || strings.TrimSpace(*patch.FirstName) == "" {
		return nil, requiredField("first_name")
	}
	if patch.LastName == nil || strings.TrimSpace(*patch.LastName) == "" {
		return nil, requiredField("last_name")
	}

	person := &Person{
		WorkspaceAggregateRoot: shared.NewWorkspaceAggregateRoot(workspaceID, createdBy),
		InvitationStatus:       InvitationNotInvited,
	}
	if err := person.apply(patch); err != nil {
		return nil, err
	}
	return person, nil
}

// Apply merges the present patch fields into the person
func (p *Person) Apply(patch PersonPatch) error {
	if patch.FirstName != nil && strings.TrimSpace(*patch.FirstName) == "" {
		return requiredField("first_name")
	}
	if patch.LastName != nil && strings.TrimSpace(*patch.LastName) == "" {
		return requiredField("last_name")
	}
	if err := p.apply(patch); err != nil {
		return err
	}
	p.Touch()
	return nil
}

func (p *Person) apply(patch PersonPatch) error {
	limits := []struct {
		field string
		value *string
		limit int
	}{
		{"first_name", patch.FirstName, 100},
		{"last_name", patch.LastName, 100},
		{"phone", patch.Phone, 50},
		{"title", patch.Title, 150},
		{"notes", patch.Notes, 5000},
	}
	for _, l := range limits {
		if l.value == nil {
			continue
		}
		if err := maxLen(l.field, *l.value, l.limit); err != nil {
			return err
		}
	}
	if patch.InvitationStatus != nil && !patch.InvitationStatus.IsValid() {
		return invalidField("invitation_status", "must be one of not_invited, invited, signed_up")
	}

	setString(&p.FirstName, patch.FirstName)
	setString(&p.LastName, patch.LastName)
	setString(&p.Email, patch.Email)
	setString(&p.Phone, patch.Phone)
	setString(&p.Title, patch.Title)
	if patch.EnterpriseID != nil {
		id := *patch.EnterpriseID
		p.EnterpriseID = &id
	}
	setString(&p.LinkedInURL, patch.LinkedInURL)
	setString(&p.Notes, patch.Notes)
	if patch.InvitationStatus != nil {
		p.InvitationStatus = *patch.InvitationStatus
	}
	return nil
}
