package models

import (
	"encoding/json"
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/google/uuid"
)

// ImportJobModel is the persistence model for the ImportJob aggregate.
type ImportJobModel struct {
	WorkspaceAggregateModel
	EntityType     bulk.EntityKind        `gorm:"type:varchar(20);not null;index"`
	FileName       string                 `gorm:"type:varchar(255);not null"`
	FileSize       int64                  `gorm:"not null;default:0"`
	ContentType    string                 `gorm:"type:varchar(100)"`
	FileKey        string                 `gorm:"type:varchar(500);not null"`
	ColumnMapping  *string                `gorm:"type:jsonb"` // NULL until configured
	Strategy       bulk.DuplicateStrategy `gorm:"type:varchar(20);not null;default:'skip'"`
	Status         bulk.JobStatus         `gorm:"type:varchar(20);not null;index"`
	TotalRows      int                    `gorm:"not null;default:0"`
	ProcessedRows  int                    `gorm:"not null;default:0"`
	SuccessfulRows int                    `gorm:"not null;default:0"`
	FailedRows     int                    `gorm:"not null;default:0"`
	ErrorSummary   string                 `gorm:"type:text"`
	LeaseOwner     string                 `gorm:"type:varchar(100)"`
	LeaseExpiresAt *time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (ImportJobModel) TableName() string {
	return "import_jobs"
}

// ToDomain converts the persistence model to a domain ImportJob.
func (m *ImportJobModel) ToDomain() *bulk.ImportJob {
	job := &bulk.ImportJob{
		WorkspaceAggregateRoot: m.ToWorkspaceAggregateRoot(),
		EntityType:             m.EntityType,
		FileName:               m.FileName,
		FileSize:               m.FileSize,
		ContentType:            m.ContentType,
		FileKey:                m.FileKey,
		Strategy:               m.Strategy,
		Status:                 m.Status,
		TotalRows:              m.TotalRows,
		ProcessedRows:          m.ProcessedRows,
		SuccessfulRows:         m.SuccessfulRows,
		FailedRows:             m.FailedRows,
		ErrorSummary:           m.ErrorSummary,
		LeaseOwner:             m.LeaseOwner,
		LeaseExpiresAt:         m.LeaseExpiresAt,
		StartedAt:              m.StartedAt,
		CompletedAt:            m.CompletedAt,
	}

	if m.ColumnMapping != nil {
		var mapping bulk.ColumnMapping
		if err := json.Unmarshal([]byte(*m.ColumnMapping), &mapping); err == nil {
			job.Mapping = mapping
		}
	}

	return job
}

// FromDomain populates the persistence model from a domain ImportJob.
func (m *ImportJobModel) FromDomain(j *bulk.ImportJob) {
	m.FromDomainWorkspaceAggregateRoot(j.WorkspaceAggregateRoot)
	m.EntityType = j.EntityType
	m.FileName = j.FileName
	m.FileSize = j.FileSize
	m.ContentType = j.ContentType
	m.FileKey = j.FileKey
	m.Strategy = j.Strategy
	m.Status = j.Status
	m.TotalRows = j.TotalRows
	m.ProcessedRows = j.ProcessedRows
	m.SuccessfulRows = j.SuccessfulRows
	m.FailedRows = j.FailedRows
	m.ErrorSummary = j.ErrorSummary
	m.LeaseOwner = j.LeaseOwner
	m.LeaseExpiresAt = j.LeaseExpiresAt
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt

	m.ColumnMapping = nil
	if j.Mapping != nil {
		if data, err := json.Marshal(j.Mapping); err == nil {
			s := string(data)
			m.ColumnMapping = &s
		}
	}
}

// ImportJobModelFromDomain creates a new persistence model from a domain ImportJob.
func ImportJobModelFromDomain(j *bulk.ImportJob) *ImportJobModel {
	m := &ImportJobModel{}
	m.FromDomain(j)
	return m
}

// ImportRowErrorModel is the persistence model for ImportRowError.
type ImportRowErrorModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key"`
	JobID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_import_row_errors_job_row,priority:1"`
	RowNumber int               `gorm:"not null;uniqueIndex:idx_import_row_errors_job_row,priority:2"`
	RawData   string            `gorm:"type:jsonb;not null"`
	Message   string            `gorm:"type:text;not null"`
	ErrorType bulk.RowErrorType `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ImportRowErrorModel) TableName() string {
	return "import_row_errors"
}

// ToDomain converts the persistence model to a domain ImportRowError.
func (m *ImportRowErrorModel) ToDomain() *bulk.ImportRowError {
	raw := map[string]string{}
	_ = json.Unmarshal([]byte(m.RawData), &raw)

	return &bulk.ImportRowError{
		ID:        m.ID,
		JobID:     m.JobID,
		RowNumber: m.RowNumber,
		RawData:   raw,
		Message:   m.Message,
		ErrorType: m.ErrorType,
		CreatedAt: m.CreatedAt,
	}
}

// ImportRowErrorModelFromDomain creates a new persistence model from a domain ImportRowError.
func ImportRowErrorModelFromDomain(e *bulk.ImportRowError) *ImportRowErrorModel {
	raw, err := json.Marshal(e.RawData)
	if err != nil {
		raw = []byte("{}")
	}
	return &ImportRowErrorModel{
		ID:        e.ID,
		JobID:     e.JobID,
		RowNumber: e.RowNumber,
		RawData:   string(raw),
		Message:   e.Message,
		ErrorType: e.ErrorType,
		CreatedAt: e.CreatedAt,
	}
}

// ImportFileModel stores uploaded file bytes when the database file store is used.
type ImportFileModel struct {
	Key         string    `gorm:"column:object_key;type:varchar(500);primary_key"`
	ContentType string    `gorm:"type:varchar(100)"`
	Size        int64     `gorm:"not null;default:0"`
	Data        []byte    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ImportFileModel) TableName() string {
	return "import_files"
}
