package importapp

import (
	"fmt"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/directory"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// EnterpriseRules returns the validation rules for enterprise import
func EnterpriseRules() []csvimport.FieldRule {
	categories := make([]string, len(directory.EnterpriseCategories))
	for i, c := range directory.EnterpriseCategories {
		categories[i] = string(c)
	}

	return []csvimport.FieldRule{
		csvimport.Field("name").Required().String().MaxLength(255).Example("Green Valley Cooperative").Build(),
		csvimport.Field("description").String().MaxLength(5000).Example("Regenerative farming cooperative").Build(),
		csvimport.Field("category").Enum(categories...).Example("land_projects").Build(),
		csvimport.Field("location").String().MaxLength(255).Example("Oaxaca, Mexico").Build(),
		csvimport.Field("website").URL().MaxLength(500).Example("https://greenvalley.example").Build(),
		csvimport.Field("contact_email").Email().MaxLength(255).Example("hello@greenvalley.example").Build(),
		csvimport.Field("tags").List(";,").Example("agroforestry;soil").Build(),
		csvimport.Field("is_verified").Bool().Example("false").Build(),
	}
}

// PersonRules returns the validation rules for person import
func PersonRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("first_name").Required().String().MaxLength(100).Example("Ana").Build(),
		csvimport.Field("last_name").Required().String().MaxLength(100).Example("Silva").Build(),
		csvimport.Field("email").Email().MaxLength(255).Example("ana.silva@example.org").Build(),
		csvimport.Field("phone").String().MaxLength(50).Example("+351 912 345 678").Build(),
		csvimport.Field("title").String().MaxLength(150).Example("Program Lead").Build(),
		csvimport.Field("enterprise_id").UUID().Example("").Build(),
		csvimport.Field("linkedin_url").URL().MaxLength(500).Example("https://www.linkedin.com/in/anasilva").Build(),
		csvimport.Field("notes").String().MaxLength(5000).Example("Met at the regional summit").Build(),
		csvimport.Field("invitation_status").Enum(
			string(directory.InvitationNotInvited),
			string(directory.InvitationInvited),
			string(directory.InvitationSignedUp),
		).Example("not_invited").Build(),
	}
}

// OpportunityRules returns the validation rules for opportunity import
func OpportunityRules() []csvimport.FieldRule {
	statuses := make([]string, len(directory.OpportunityStatuses))
	for i, s := range directory.OpportunityStatuses {
		statuses[i] = string(s)
	}

	return []csvimport.FieldRule{
		csvimport.Field("title").Required().String().MaxLength(255).Example("Watershed restoration grant").Build(),
		csvimport.Field("description").String().MaxLength(5000).Example("Three-year restoration program").Build(),
		csvimport.Field("value").Decimal().MinValue(decimal.Zero).Example("25000.00").Build(),
		csvimport.Field("currency").String().Pattern(`^[A-Za-z]{3}$`, "3-letter currency code").Example("USD").Build(),
		csvimport.Field("status").Enum(statuses...).Example("qualified").Build(),
		csvimport.Field("probability").Int().Range(decimal.Zero, decimal.NewFromInt(100)).Example("60").Build(),
		csvimport.Field("enterprise_id").UUID().Example("").Build(),
		csvimport.Field("primary_contact_id").UUID().Example("").Build(),
		csvimport.Field("expected_close_date").Date().Example("2026-06-30").Build(),
		csvimport.Field("notes").String().MaxLength(5000).Example("Follow up after board meeting").Build(),
	}
}

var schemas = map[bulk.EntityKind]*csvimport.FieldValidator{
	bulk.EntityEnterprise:  csvimport.NewFieldValidator(EnterpriseRules()),
	bulk.EntityPerson:      csvimport.NewFieldValidator(PersonRules()),
	bulk.EntityOpportunity: csvimport.NewFieldValidator(OpportunityRules()),
}

// SchemaFor returns the field validator of an entity kind
func SchemaFor(kind bulk.EntityKind) (*csvimport.FieldValidator, error) {
	schema, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", csvimport.ErrUnknownEntityKind, kind)
	}
	return schema, nil
}

// ImportFields returns the importable field names of an entity kind in template order
func ImportFields(kind bulk.EntityKind) ([]string, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	return schema.Fields(), nil
}

// ValidateMapping checks that every mapping target is an import field of kind
func ValidateMapping(kind bulk.EntityKind, mapping bulk.ColumnMapping) error {
	schema, err := SchemaFor(kind)
	if err != nil {
		return err
	}

	seen := make(map[string]string, len(mapping))
	for column, field := range mapping {
		if field == "" {
			continue
		}
		if !schema.HasField(field) {
			return fmt.Errorf("column %q maps to unknown field %q", column, field)
		}
		if other, ok := seen[field]; ok {
			return fmt.Errorf("columns %q and %q both map to field %q", other, column, field)
		}
		seen[field] = column
	}
	return nil
}
