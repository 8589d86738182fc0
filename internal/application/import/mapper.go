package importapp

import (
	"strings"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/directory"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
)

// MappedRecord is a validated row converted to the patch of its entity kind.
// Exactly one of the patch pointers is set.
type MappedRecord struct {
	Kind        bulk.EntityKind
	Fields      map[string]string
	Enterprise  *directory.EnterprisePatch
	Person      *directory.PersonPatch
	Opportunity *directory.OpportunityPatch
}

// MapResult is the outcome of mapping one row
type MapResult struct {
	Valid  bool
	Data   *MappedRecord
	Errors []string
}

// RowMapper maps decoded CSV records onto entity fields and validates them
type RowMapper struct{}

// NewRowMapper creates a new RowMapper
func NewRowMapper() *RowMapper {
	return &RowMapper{}
}

// Map projects record through mapping and validates the present fields.
// Row problems are reported in MapResult.Errors; an unknown kind is returned as an error.
func (m *RowMapper) Map(record map[string]string, kind bulk.EntityKind, mapping bulk.ColumnMapping) (*MapResult, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(mapping))
	for column, field := range mapping {
		value, ok := record[column]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		fields[field] = value
	}

	values, fieldErrs := schema.Validate(fields)
	if fieldErrs.HasErrors() {
		return &MapResult{Valid: false, Errors: fieldErrs.Messages()}, nil
	}

	data := &MappedRecord{Kind: kind, Fields: fields}
	switch kind {
	case bulk.EntityEnterprise:
		data.Enterprise = enterprisePatch(values)
	case bulk.EntityPerson:
		data.Person = personPatch(values)
	case bulk.EntityOpportunity:
		data.Opportunity = opportunityPatch(values)
	}

	return &MapResult{Valid: true, Data: data}, nil
}

func enterprisePatch(v csvimport.Values) *directory.EnterprisePatch {
	patch := &directory.EnterprisePatch{
		Name:         v.String("name"),
		Description:  v.String("description"),
		Location:     v.String("location"),
		Website:      v.String("website"),
		ContactEmail: v.String("contact_email"),
		Tags:         v.List("tags"),
		IsVerified:   v.Bool("is_verified"),
	}
	if category := v.String("category"); category != nil {
		c := directory.EnterpriseCategory(*category)
		patch.Category = &c
	}
	return patch
}

func personPatch(v csvimport.Values) *directory.PersonPatch {
	patch := &directory.PersonPatch{
		FirstName:    v.String("first_name"),
		LastName:     v.String("last_name"),
		Email:        v.String("email"),
		Phone:        v.String("phone"),
		Title:        v.String("title"),
		EnterpriseID: v.UUID("enterprise_id"),
		LinkedInURL:  v.String("linkedin_url"),
		Notes:        v.String("notes"),
	}
	if status := v.String("invitation_status"); status != nil {
		s := directory.InvitationStatus(*status)
		patch.InvitationStatus = &s
	}
	return patch
}

func opportunityPatch(v csvimport.Values) *directory.OpportunityPatch {
	patch := &directory.OpportunityPatch{
		Title:             v.String("title"),
		Description:       v.String("description"),
		Value:             v.Decimal("value"),
		Currency:          v.String("currency"),
		Probability:       v.Int("probability"),
		EnterpriseID:      v.UUID("enterprise_id"),
		PrimaryContactID:  v.UUID("primary_contact_id"),
		ExpectedCloseDate: v.Date("expected_close_date"),
		Notes:             v.String("notes"),
	}
	if status := v.String("status"); status != nil {
		s := directory.OpportunityStatus(*status)
		patch.Status = &s
	}
	return patch
}
