package bulk

import (
	"fmt"
	"strings"
	"time"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityKind represents the directory entity a job imports into
type EntityKind string

const (
	EntityEnterprise  EntityKind = "enterprise"
	EntityPerson      EntityKind = "person"
	EntityOpportunity EntityKind = "opportunity"
)

// AllEntityKinds lists the supported import targets
var AllEntityKinds = []EntityKind{EntityEnterprise, EntityPerson, EntityOpportunity}

// IsValid checks if the entity kind is supported
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityEnterprise, EntityPerson, EntityOpportunity:
		return true
	}
	return false
}

// JobStatus represents the status of an import job
type JobStatus string

const (
	JobStatusUploaded   JobStatus = "uploaded"
	JobStatusMapping    JobStatus = "mapping"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusUploaded, JobStatusMapping, JobStatusProcessing,
		JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// NonTerminalStatuses are the states from which a job may still be cancelled
var NonTerminalStatuses = []JobStatus{JobStatusUploaded, JobStatusMapping, JobStatusProcessing}

// transitions is the forward-only state machine of an import job
var transitions = map[JobStatus][]JobStatus{
	JobStatusUploaded:   {JobStatusMapping, JobStatusFailed, JobStatusCancelled},
	JobStatusMapping:    {JobStatusProcessing, JobStatusFailed, JobStatusCancelled},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
}

// CanTransitionTo reports whether the state machine allows moving to next
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DuplicateStrategy governs how a row matching an existing record is handled
type DuplicateStrategy string

const (
	StrategySkip      DuplicateStrategy = "skip"
	StrategyUpdate    DuplicateStrategy = "update"
	StrategyCreateNew DuplicateStrategy = "create_new"
)

// IsValid checks if the strategy is valid
func (d DuplicateStrategy) IsValid() bool {
	switch d {
	case StrategySkip, StrategyUpdate, StrategyCreateNew:
		return true
	}
	return false
}

// ColumnMapping maps a CSV column name to a target entity field name
type ColumnMapping map[string]string

// TargetFields returns the mapped target field names
func (m ColumnMapping) TargetFields() []string {
	fields := make([]string, 0, len(m))
	for _, field := range m {
		fields = append(fields, field)
	}
	return fields
}

// ImportJob is one bulk-import attempt from upload through terminal status
type ImportJob struct {
	shared.WorkspaceAggregateRoot
	EntityType     EntityKind
	FileName       string
	FileSize       int64
	ContentType    string
	FileKey        string
	Mapping        ColumnMapping
	Strategy       DuplicateStrategy
	Status         JobStatus
	TotalRows      int
	ProcessedRows  int
	SuccessfulRows int
	FailedRows     int
	ErrorSummary   string
	LeaseOwner     string
	LeaseExpiresAt *time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// NewImportJob creates a job in uploaded status for a decoded file
func NewImportJob(
	workspaceID, ownerID uuid.UUID,
	entityType EntityKind,
	fileName string,
	fileSize int64,
	contentType string,
	totalRows int,
) (*ImportJob, error) {
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", fmt.Sprintf("Invalid entity type: %s", entityType))
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Import job must have an owner")
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size cannot be negative")
	}
	if totalRows < 0 {
		return nil, shared.NewDomainError("INVALID_TOTAL_ROWS", "Total rows cannot be negative")
	}

	job := &ImportJob{
		WorkspaceAggregateRoot: shared.NewWorkspaceAggregateRoot(workspaceID, ownerID),
		EntityType:             entityType,
		FileName:               fileName,
		FileSize:               fileSize,
		ContentType:            contentType,
		Strategy:               StrategySkip,
		Status:                 JobStatusUploaded,
		TotalRows:              totalRows,
	}
	job.FileKey = fmt.Sprintf("imports/%s/%s.csv", ownerID, job.ID)

	return job, nil
}

// transition moves the job to next if the state machine allows it
func (j *ImportJob) transition(next JobStatus) error {
	if !j.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move import job from %s to %s", j.Status, next))
	}
	j.Status = next
	j.Touch()
	return nil
}

// Configure stores the column mapping and duplicate strategy and moves the job to mapping
func (j *ImportJob) Configure(mapping ColumnMapping, strategy DuplicateStrategy) error {
	if j.Status != JobStatusUploaded {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Import job can only be configured when uploaded, current status: %s", j.Status))
	}
	if !strategy.IsValid() {
		return shared.NewDomainError("INVALID_STRATEGY", fmt.Sprintf("Invalid duplicate strategy: %s", strategy))
	}
	if len(mapping) == 0 {
		return shared.NewDomainError("INVALID_MAPPING", "Column mapping cannot be empty")
	}

	cleaned := make(ColumnMapping, len(mapping))
	for column, field := range mapping {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		cleaned[column] = field
	}
	if len(cleaned) == 0 {
		return shared.NewDomainError("INVALID_MAPPING", "Column mapping does not map any column")
	}

	j.Mapping = cleaned
	j.Strategy = strategy
	return j.transition(JobStatusMapping)
}

// StartProcessing marks the job as claimed by a processor
func (j *ImportJob) StartProcessing(leaseOwner string, leaseUntil time.Time) error {
	if err := j.transition(JobStatusProcessing); err != nil {
		return err
	}
	now := time.Now()
	j.StartedAt = &now
	j.LeaseOwner = leaseOwner
	j.LeaseExpiresAt = &leaseUntil
	return nil
}

// ConfirmTotal records the decoded row count; the total never changes once set
func (j *ImportJob) ConfirmTotal(total int) error {
	if total < 0 {
		return shared.NewDomainError("INVALID_TOTAL_ROWS", "Total rows cannot be negative")
	}
	if j.TotalRows != 0 && j.TotalRows != total {
		return shared.NewDomainError("TOTAL_ROWS_CHANGED",
			fmt.Sprintf("Decoded %d rows but the job was uploaded with %d", total, j.TotalRows))
	}
	j.TotalRows = total
	return nil
}

// RecordProgress updates the row counters
func (j *ImportJob) RecordProgress(successful, failed int) error {
	if successful < 0 || failed < 0 {
		return shared.NewDomainError("INVALID_PROGRESS", "Row counters cannot be negative")
	}
	if successful+failed > j.TotalRows {
		return shared.NewDomainError("INVALID_PROGRESS",
			fmt.Sprintf("Processed %d rows out of %d", successful+failed, j.TotalRows))
	}
	j.SuccessfulRows = successful
	j.FailedRows = failed
	j.ProcessedRows = successful + failed
	j.UpdatedAt = time.Now()
	return nil
}

// Finalize derives the terminal status from the row counters
func (j *ImportJob) Finalize() error {
	if j.Status != JobStatusProcessing {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot finalize import job from state: %s", j.Status))
	}

	next := JobStatusCompleted
	switch {
	case j.FailedRows == 0:
		j.ErrorSummary = ""
	case j.SuccessfulRows == 0:
		next = JobStatusFailed
		j.ErrorSummary = fmt.Sprintf("All %d rows failed to import", j.FailedRows)
	default:
		j.ErrorSummary = fmt.Sprintf("%d of %d rows failed to import", j.FailedRows, j.TotalRows)
	}

	if err := j.transition(next); err != nil {
		return err
	}
	j.markFinished()
	return nil
}

// Fail finalizes the job as failed with the given summary
func (j *ImportJob) Fail(summary string) error {
	if err := j.transition(JobStatusFailed); err != nil {
		return err
	}
	j.ErrorSummary = summary
	j.markFinished()
	return nil
}

// Cancel marks the job as cancelled
func (j *ImportJob) Cancel() error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel import job in terminal state: %s", j.Status))
	}
	if err := j.transition(JobStatusCancelled); err != nil {
		return err
	}
	j.markFinished()
	return nil
}

func (j *ImportJob) markFinished() {
	now := time.Now()
	j.CompletedAt = &now
	j.LeaseOwner = ""
	j.LeaseExpiresAt = nil
}

// HasFailures returns true if any row failed
func (j *ImportJob) HasFailures() bool {
	return j.FailedRows > 0
}

// Duration returns how long the job has been (or was) processing
func (j *ImportJob) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}
