package dto

import (
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
)

// ImportUploadRequest represents the multipart form fields of an upload
type ImportUploadRequest struct {
	EntityType string `form:"entity_type" binding:"required"`
}

// ImportUploadResponse represents the job created for an uploaded file
// @Description Upload result with the detected CSV headers
type ImportUploadResponse struct {
	JobID     string   `json:"job_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Headers   []string `json:"headers" example:"Name,Website,Location"`
	TotalRows int      `json:"total_rows" example:"120"`
}

// ImportConfigureRequest represents the column mapping and duplicate strategy of a job
type ImportConfigureRequest struct {
	Mapping           map[string]string `json:"mapping" binding:"required"`
	DuplicateStrategy string            `json:"duplicate_strategy" binding:"required"`
}

// ImportHistoryRequest represents the query parameters of the history listing
type ImportHistoryRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1"`
	EntityType string `form:"entity_type"`
	Status     string `form:"status"`
}

// ImportErrorsRequest represents the paging parameters of the row error listing
type ImportErrorsRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1"`
}

// ImportJobResponse represents an import job
// @Description Import job metadata and progress counters
type ImportJobResponse struct {
	ID                string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EntityType        string            `json:"entity_type" example:"enterprise"`
	FileName          string            `json:"file_name" example:"enterprises.csv"`
	FileSize          int64             `json:"file_size" example:"20480"`
	Status            string            `json:"status" example:"processing"`
	DuplicateStrategy string            `json:"duplicate_strategy,omitempty" example:"skip"`
	Mapping           map[string]string `json:"mapping,omitempty"`
	TotalRows         int               `json:"total_rows" example:"120"`
	ProcessedRows     int               `json:"processed_rows" example:"60"`
	SuccessfulRows    int               `json:"successful_rows" example:"58"`
	FailedRows        int               `json:"failed_rows" example:"2"`
	ErrorSummary      string            `json:"error_summary,omitempty"`
	StartedAt         *time.Time        `json:"started_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ImportRowErrorResponse represents a failed row
// @Description A row that could not be imported
type ImportRowErrorResponse struct {
	RowNumber int               `json:"row_number" example:"7"`
	ErrorType string            `json:"error_type" example:"validation"`
	Message   string            `json:"message" example:"email: must be a valid email address"`
	RawData   map[string]string `json:"raw_data"`
}

// ImportStatusResponse represents a status poll
// @Description Job progress with the first failed rows
type ImportStatusResponse struct {
	ImportJobResponse
	Errors        []ImportRowErrorResponse `json:"errors"`
	HasMoreErrors bool                     `json:"has_more_errors"`
}

// ToImportJobResponse converts a domain job to its response shape
func ToImportJobResponse(job *bulk.ImportJob) ImportJobResponse {
	var mapping map[string]string
	if len(job.Mapping) > 0 {
		mapping = make(map[string]string, len(job.Mapping))
		for column, field := range job.Mapping {
			mapping[column] = field
		}
	}

	return ImportJobResponse{
		ID:                job.ID.String(),
		EntityType:        string(job.EntityType),
		FileName:          job.FileName,
		FileSize:          job.FileSize,
		Status:            string(job.Status),
		DuplicateStrategy: string(job.Strategy),
		Mapping:           mapping,
		TotalRows:         job.TotalRows,
		ProcessedRows:     job.ProcessedRows,
		SuccessfulRows:    job.SuccessfulRows,
		FailedRows:        job.FailedRows,
		ErrorSummary:      job.ErrorSummary,
		StartedAt:         job.StartedAt,
		CompletedAt:       job.CompletedAt,
		CreatedAt:         job.CreatedAt,
		UpdatedAt:         job.UpdatedAt,
	}
}

// ToImportJobResponses converts a list of domain jobs
func ToImportJobResponses(jobs []*bulk.ImportJob) []ImportJobResponse {
	out := make([]ImportJobResponse, len(jobs))
	for i, job := range jobs {
		out[i] = ToImportJobResponse(job)
	}
	return out
}

// ToImportRowErrorResponses converts a list of row errors
func ToImportRowErrorResponses(rowErrs []*bulk.ImportRowError) []ImportRowErrorResponse {
	out := make([]ImportRowErrorResponse, len(rowErrs))
	for i, rowErr := range rowErrs {
		raw := rowErr.RawData
		if raw == nil {
			raw = map[string]string{}
		}
		out[i] = ImportRowErrorResponse{
			RowNumber: rowErr.RowNumber,
			ErrorType: string(rowErr.ErrorType),
			Message:   rowErr.Message,
			RawData:   raw,
		}
	}
	return out
}
