package models

import (
	"encoding/json"
	"time"

	"github.com/earthcare/backend/internal/domain/directory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnterpriseModel is the persistence model for the Enterprise aggregate.
// Enterprises are shared across workspaces.
type EnterpriseModel struct {
	AggregateModel
	CreatedBy    uuid.UUID                    `gorm:"type:uuid;not null"`
	Name         string                       `gorm:"type:varchar(255);not null;index"`
	Description  string                       `gorm:"type:text"`
	Category     directory.EnterpriseCategory `gorm:"type:varchar(30)"`
	Location     string                       `gorm:"type:varchar(255)"`
	Website      string                       `gorm:"type:varchar(500);index"`
	ContactEmail string                       `gorm:"type:varchar(255)"`
	Tags         string                       `gorm:"type:jsonb;not null;default:'[]'"`
	IsVerified   bool                         `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (EnterpriseModel) TableName() string {
	return "enterprises"
}

// ToDomain converts the persistence model to a domain Enterprise.
func (m *EnterpriseModel) ToDomain() *directory.Enterprise {
	tags := []string{}
	if m.Tags != "" {
		_ = json.Unmarshal([]byte(m.Tags), &tags)
	}
	return &directory.Enterprise{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CreatedBy:         m.CreatedBy,
		Name:              m.Name,
		Description:       m.Description,
		Category:          m.Category,
		Location:          m.Location,
		Website:           m.Website,
		ContactEmail:      m.ContactEmail,
		Tags:              tags,
		IsVerified:        m.IsVerified,
	}
}

// EnterpriseModelFromDomain creates a new persistence model from a domain Enterprise.
func EnterpriseModelFromDomain(e *directory.Enterprise) *EnterpriseModel {
	m := &EnterpriseModel{
		CreatedBy:    e.CreatedBy,
		Name:         e.Name,
		Description:  e.Description,
		Category:     e.Category,
		Location:     e.Location,
		Website:      e.Website,
		ContactEmail: e.ContactEmail,
		Tags:         "[]",
		IsVerified:   e.IsVerified,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	if len(e.Tags) > 0 {
		if data, err := json.Marshal(e.Tags); err == nil {
			m.Tags = string(data)
		}
	}
	return m
}

// PersonModel is the persistence model for the Person aggregate.
type PersonModel struct {
	WorkspaceAggregateModel
	FirstName        string                     `gorm:"type:varchar(100);not null"`
	LastName         string                     `gorm:"type:varchar(100);not null"`
	Email            string                     `gorm:"type:varchar(255);index"`
	Phone            string                     `gorm:"type:varchar(50)"`
	Title            string                     `gorm:"type:varchar(150)"`
	EnterpriseID     *uuid.UUID                 `gorm:"type:uuid;index"`
	LinkedInURL      string                     `gorm:"column:linkedin_url;type:varchar(500)"`
	Notes            string                     `gorm:"type:text"`
	InvitationStatus directory.InvitationStatus `gorm:"type:varchar(20);not null;default:'not_invited'"`
}

// TableName returns the table name for GORM
func (PersonModel) TableName() string {
	return "people"
}

// ToDomain converts the persistence model to a domain Person.
func (m *PersonModel) ToDomain() *directory.Person {
	return &directory.Person{
		WorkspaceAggregateRoot: m.ToWorkspaceAggregateRoot(),
		FirstName:              m.FirstName,
		LastName:               m.LastName,
		Email:                  m.Email,
		Phone:                  m.Phone,
		Title:                  m.Title,
		EnterpriseID:           m.EnterpriseID,
		LinkedInURL:            m.LinkedInURL,
		Notes:                  m.Notes,
		InvitationStatus:       m.InvitationStatus,
	}
}

// PersonModelFromDomain creates a new persistence model from a domain Person.
func PersonModelFromDomain(p *directory.Person) *PersonModel {
	m := &PersonModel{
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Phone:            p.Phone,
		Title:            p.Title,
		EnterpriseID:     p.EnterpriseID,
		LinkedInURL:      p.LinkedInURL,
		Notes:            p.Notes,
		InvitationStatus: p.InvitationStatus,
	}
	m.FromDomainWorkspaceAggregateRoot(p.WorkspaceAggregateRoot)
	return m
}

// OpportunityModel is the persistence model for the Opportunity aggregate.
type OpportunityModel struct {
	WorkspaceAggregateModel
	Title             string                      `gorm:"type:varchar(255);not null"`
	Description       string                      `gorm:"type:text"`
	Value             decimal.NullDecimal         `gorm:"type:decimal(18,2)"`
	Currency          string                      `gorm:"type:varchar(3)"`
	Status            directory.OpportunityStatus `gorm:"type:varchar(20);not null;default:'lead'"`
	Probability       *int
	EnterpriseID      *uuid.UUID `gorm:"type:uuid;index"`
	PrimaryContactID  *uuid.UUID `gorm:"type:uuid"`
	ExpectedCloseDate *time.Time
	Notes             string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OpportunityModel) TableName() string {
	return "opportunities"
}

// ToDomain converts the persistence model to a domain Opportunity.
func (m *OpportunityModel) ToDomain() *directory.Opportunity {
	o := &directory.Opportunity{
		WorkspaceAggregateRoot: m.ToWorkspaceAggregateRoot(),
		Title:                  m.Title,
		Description:            m.Description,
		Currency:               m.Currency,
		Status:                 m.Status,
		Probability:            m.Probability,
		EnterpriseID:           m.EnterpriseID,
		PrimaryContactID:       m.PrimaryContactID,
		ExpectedCloseDate:      m.ExpectedCloseDate,
		Notes:                  m.Notes,
	}
	if m.Value.Valid {
		v := m.Value.Decimal
		o.Value = &v
	}
	return o
}

// OpportunityModelFromDomain creates a new persistence model from a domain Opportunity.
func OpportunityModelFromDomain(o *directory.Opportunity) *OpportunityModel {
	m := &OpportunityModel{
		Title:             o.Title,
		Description:       o.Description,
		Currency:          o.Currency,
		Status:            o.Status,
		Probability:       o.Probability,
		EnterpriseID:      o.EnterpriseID,
		PrimaryContactID:  o.PrimaryContactID,
		ExpectedCloseDate: o.ExpectedCloseDate,
		Notes:             o.Notes,
	}
	m.FromDomainWorkspaceAggregateRoot(o.WorkspaceAggregateRoot)
	if o.Value != nil {
		m.Value = decimal.NullDecimal{Decimal: *o.Value, Valid: true}
	}
	return m
}
