package bulk

import (
	"fmt"
	"time"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RowErrorType classifies why a row failed
type RowErrorType string

const (
	RowErrorValidation RowErrorType = "validation"
	RowErrorDuplicate  RowErrorType = "duplicate"
	RowErrorSystem     RowErrorType = "system"
)

// IsValid checks if the error type is valid
func (t RowErrorType) IsValid() bool {
	switch t {
	case RowErrorValidation, RowErrorDuplicate, RowErrorSystem:
		return true
	}
	return false
}

// ImportRowError records one failed or skipped row of a job
type ImportRowError struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	RowNumber int
	RawData   map[string]string
	Message   string
	ErrorType RowErrorType
	CreatedAt time.Time
}

// NewImportRowError creates a row error; row numbers are 1-based
func NewImportRowError(jobID uuid.UUID, rowNumber int, raw map[string]string, errorType RowErrorType, message string) (*ImportRowError, error) {
	if jobID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_JOB", "Row error must belong to a job")
	}
	if rowNumber < 1 {
		return nil, shared.NewDomainError("INVALID_ROW_NUMBER", fmt.Sprintf("Row number must be positive, got %d", rowNumber))
	}
	if !errorType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ERROR_TYPE", fmt.Sprintf("Invalid row error type: %s", errorType))
	}
	if raw == nil {
		raw = map[string]string{}
	}

	return &ImportRowError{
		ID:        uuid.New(),
		JobID:     jobID,
		RowNumber: rowNumber,
		RawData:   raw,
		Message:   message,
		ErrorType: errorType,
		CreatedAt: time.Now(),
	}, nil
}
