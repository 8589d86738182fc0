package importapp

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/earthcare/backend/internal/domain/bulk"
)

// More sample rows per kind; the first row comes from the rule examples
var templateExamples = map[bulk.EntityKind][]map[string]string{
	bulk.EntityEnterprise: {
		{
			"name":          "Open Seed Commons",
			"description":   "Open source seed registry",
			"category":      "open_source_tools",
			"location":      "Berlin, Germany",
			"website":       "https://openseed.example",
			"contact_email": "team@openseed.example",
			"tags":          "seeds;biodiversity",
			"is_verified":   "true",
		},
		{
			"name":        "Regen Capital Circle",
			"category":    "capital_sources",
			"location":    "Nairobi, Kenya",
			"tags":        "finance",
			"is_verified": "false",
		},
	},
	bulk.EntityPerson: {
		{
			"first_name":        "Kwame",
			"last_name":         "Mensah",
			"email":             "kwame@example.org",
			"title":             "Field Coordinator",
			"invitation_status": "invited",
		},
		{
			"first_name": "Lena",
			"last_name":  "Fischer",
			"phone":      "+49 30 1234567",
			"notes":      "Prefers email contact",
		},
	},
	bulk.EntityOpportunity: {
		{
			"title":       "Community solar partnership",
			"value":       "120000",
			"currency":    "EUR",
			"status":      "proposal",
			"probability": "35",
		},
		{
			"title":               "Tool sponsorship",
			"description":         "Annual sponsorship of mapping tools",
			"status":              "lead",
			"expected_close_date": "2026-12-15",
		},
	},
}

// Template renders a CSV import template for kind: the import fields as header plus three example rows
func Template(kind bulk.EntityKind) ([]byte, string, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, "", err
	}

	fields := schema.Fields()
	rows := make([]map[string]string, 0, 3)

	first := make(map[string]string, len(fields))
	for _, rule := range schema.Rules() {
		first[rule.Field] = rule.Example
	}
	rows = append(rows, first)
	rows = append(rows, templateExamples[kind]...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, "", err
	}
	for _, row := range rows {
		record := make([]string, len(fields))
		for i, field := range fields {
			record[i] = row[field]
		}
		if err := w.Write(record); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), fmt.Sprintf("%s_import_template.csv", kind), nil
}
