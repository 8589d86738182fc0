package importapp

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/shared"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
	"github.com/earthcare/backend/internal/infrastructure/telemetry"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxFileSize is the upload limit when none is configured (10MB)
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

var allowedContentTypes = map[string]bool{
	"text/csv":        true,
	"application/csv": true,
	"text/plain":      true,
}

// JobRunner schedules and signals job processing
type JobRunner interface {
	Trigger(jobID uuid.UUID)
	Cancel(jobID uuid.UUID) bool
}

// ServiceConfig holds the import endpoint settings
type ServiceConfig struct {
	MaxFileSize      int64
	StatusErrorLimit int
}

// UploadInput is an uploaded CSV file
type UploadInput struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	EntityType  string
	FileName    string
	ContentType string
	Data        []byte
}

// UploadResult describes the job created for an upload
type UploadResult struct {
	Job     *bulk.ImportJob
	Headers []string
}

// ConfigureInput carries the mapping and strategy of a job
type ConfigureInput struct {
	UserID   uuid.UUID
	JobID    uuid.UUID
	Mapping  map[string]string
	Strategy string
}

// StatusResult is a job with its first row errors
type StatusResult struct {
	Job           *bulk.ImportJob
	Errors        []*bulk.ImportRowError
	HasMoreErrors bool
}

// HistoryFilter defines the filter options for listing import jobs
type HistoryFilter struct {
	EntityType string
	Status     string
}

// RowErrorPage is a page of row errors
type RowErrorPage struct {
	Items      []*bulk.ImportRowError
	TotalCount int64
	Page       int
	PageSize   int
}

// ImportService implements the import endpoints
type ImportService struct {
	jobs      bulk.ImportJobRepository
	rowErrors bulk.ImportRowErrorRepository
	files     bulk.RawFileStore
	runner    JobRunner
	decoder   *csvimport.Decoder
	cfg       ServiceConfig
	logger    *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	jobs bulk.ImportJobRepository,
	rowErrors bulk.ImportRowErrorRepository,
	files bulk.RawFileStore,
	runner JobRunner,
	cfg ServiceConfig,
	logger *zap.Logger,
) *ImportService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.StatusErrorLimit <= 0 {
		cfg.StatusErrorLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		jobs:      jobs,
		rowErrors: rowErrors,
		files:     files,
		runner:    runner,
		decoder:   csvimport.NewDecoder(),
		cfg:       cfg,
		logger:    logger,
	}
}

// Upload validates and decodes a CSV file, retains its bytes and creates an uploaded job
func (s *ImportService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "import.upload",
		telemetry.AttrImportEntity.String(in.EntityType),
	)
	defer span.End()

	kind := bulk.EntityKind(in.EntityType)
	if !kind.IsValid() {
		return nil, shared.NewDomainError(csvimport.ErrCodeImportInvalidEntity,
			fmt.Sprintf("Entity type must be one of enterprise, person, opportunity, got %q", in.EntityType))
	}
	if int64(len(in.Data)) > s.cfg.MaxFileSize {
		return nil, shared.NewDomainError(csvimport.ErrCodeImportFileTooLarge,
			fmt.Sprintf("File exceeds the maximum size of %d bytes", s.cfg.MaxFileSize))
	}
	if len(in.Data) == 0 {
		return nil, shared.NewDomainError(csvimport.ErrCodeImportEmptyFile, "The uploaded file is empty")
	}
	if !isCSVUpload(in.FileName, in.ContentType, in.Data) {
		return nil, shared.NewDomainError(csvimport.ErrCodeImportInvalidFileType, "Only CSV files can be imported")
	}

	table, err := s.decoder.Decode(in.Data)
	if err != nil {
		return nil, shared.NewDomainError(csvimport.ErrorCode(err), decodeMessage(err))
	}

	job, err := bulk.NewImportJob(in.WorkspaceID, in.UserID, kind,
		filepath.Base(in.FileName), int64(len(in.Data)), in.ContentType, len(table.Rows))
	if err != nil {
		return nil, err
	}

	if err := s.files.Put(ctx, job.FileKey, in.Data, "text/csv"); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}

	s.logger.Info("Import file uploaded",
		zap.String("job_id", job.ID.String()),
		zap.String("entity_type", string(kind)),
		zap.Int("total_rows", job.TotalRows),
		zap.Int64("file_size", job.FileSize),
	)

	return &UploadResult{Job: job, Headers: table.Headers}, nil
}

// isCSVUpload accepts a declared CSV/text MIME type or a .csv name, and rejects binary content.
// NUL-free UTF-8 is text whatever its leading bytes resemble; anything else is sniffed.
func isCSVUpload(fileName, contentType string, data []byte) bool {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[declared] && !strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return false
	}

	if utf8.Valid(data) && bytes.IndexByte(data, 0) < 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func decodeMessage(err error) string {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile):
		return "The file has no data rows"
	case errors.Is(err, csvimport.ErrInvalidEncoding):
		return "The file must be UTF-8 encoded"
	default:
		return err.Error()
	}
}

// Configure sets the column mapping and duplicate strategy and schedules processing
func (s *ImportService) Configure(ctx context.Context, in ConfigureInput) (*bulk.ImportJob, error) {
	job, err := s.jobs.FindByIDForOwner(ctx, in.UserID, in.JobID)
	if err != nil {
		return nil, err
	}

	strategy := bulk.DuplicateStrategy(in.Strategy)
	if !strategy.IsValid() {
		return nil, shared.NewDomainError(csvimport.ErrCodeImportInvalidStrategy,
			fmt.Sprintf("Duplicate strategy must be one of skip, update, create_new, got %q", in.Strategy))
	}
	if job.Status != bulk.JobStatusUploaded {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Import job can only be configured when uploaded, current status: %s", job.Status))
	}

	mapping := bulk.ColumnMapping(in.Mapping)
	if err := ValidateMapping(job.EntityType, mapping); err != nil {
		return nil, shared.NewDomainError(csvimport.ErrCodeImportInvalidMapping, err.Error())
	}
	if err := job.Configure(mapping, strategy); err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "INVALID_MAPPING" {
			return nil, shared.NewDomainError(csvimport.ErrCodeImportInvalidMapping, domainErr.Message)
		}
		return nil, err
	}

	saved, err := s.jobs.SaveIfStatus(ctx, job, bulk.JobStatusUploaded)
	if err != nil {
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}
	if !saved {
		return nil, shared.NewDomainError("INVALID_STATE", "Import job was modified concurrently")
	}

	s.runner.Trigger(job.ID)

	s.logger.Info("Import job configured",
		zap.String("job_id", job.ID.String()),
		zap.String("strategy", string(strategy)),
		zap.Int("mapped_columns", len(job.Mapping)),
	)
	return job, nil
}

// GetStatus returns the job and, if rows failed, its first row errors
func (s *ImportService) GetStatus(ctx context.Context, userID, jobID uuid.UUID) (*StatusResult, error) {
	job, err := s.jobs.FindByIDForOwner(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Job: job, Errors: []*bulk.ImportRowError{}}
	if job.FailedRows == 0 {
		return result, nil
	}

	// One extra row tells whether more errors exist
	rowErrs, err := s.rowErrors.FindByJob(ctx, job.ID, s.cfg.StatusErrorLimit+1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load row errors: %w", err)
	}
	if len(rowErrs) > s.cfg.StatusErrorLimit {
		result.HasMoreErrors = true
		rowErrs = rowErrs[:s.cfg.StatusErrorLimit]
	}
	result.Errors = rowErrs
	return result, nil
}

// Cancel marks a non-terminal job as cancelled and signals a running loop
func (s *ImportService) Cancel(ctx context.Context, userID, jobID uuid.UUID) (*bulk.ImportJob, error) {
	job, err := s.jobs.FindByIDForOwner(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if err := job.Cancel(); err != nil {
		return nil, err
	}

	ok, err := s.jobs.TransitionIf(ctx, jobID, bulk.NonTerminalStatuses, bulk.JobStatusCancelled, "", time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to cancel import job: %w", err)
	}
	if !ok {
		return nil, shared.NewDomainError("INVALID_STATE", "Import job already finished")
	}

	signalled := s.runner.Cancel(jobID)
	s.logger.Info("Import job cancelled",
		zap.String("job_id", jobID.String()),
		zap.Bool("running", signalled),
	)

	return s.jobs.FindByIDForOwner(ctx, userID, jobID)
}

// ListHistory lists the caller's jobs, newest first
func (s *ImportService) ListHistory(ctx context.Context, userID uuid.UUID, filter HistoryFilter, page, pageSize int) (*bulk.ImportJobListResult, error) {
	repoFilter := bulk.ImportJobFilter{}

	if filter.EntityType != "" {
		entityType := bulk.EntityKind(filter.EntityType)
		if !entityType.IsValid() {
			return nil, shared.NewDomainError(csvimport.ErrCodeImportInvalidEntity,
				fmt.Sprintf("Invalid entity type: %s", filter.EntityType))
		}
		repoFilter.EntityType = &entityType
	}
	if filter.Status != "" {
		status := bulk.JobStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid status: %s", filter.Status))
		}
		repoFilter.Status = &status
	}

	paging := pageFilter(page, pageSize)
	return s.jobs.FindAllForOwner(ctx, userID, repoFilter, paging.Page, paging.PageSize)
}

// ListErrors returns a page of a job's row errors ordered by row number
func (s *ImportService) ListErrors(ctx context.Context, userID, jobID uuid.UUID, page, pageSize int) (*RowErrorPage, error) {
	job, err := s.jobs.FindByIDForOwner(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	filter := pageFilter(page, pageSize)
	items, err := s.rowErrors.FindByJob(ctx, job.ID, filter.PageSize, filter.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to load row errors: %w", err)
	}
	total, err := s.rowErrors.CountByJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count row errors: %w", err)
	}

	return &RowErrorPage{Items: items, TotalCount: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// ExportErrorsCSV renders every row error of a job as CSV: row, error_type, message, raw_data
func (s *ImportService) ExportErrorsCSV(ctx context.Context, userID, jobID uuid.UUID) ([]byte, string, error) {
	job, err := s.jobs.FindByIDForOwner(ctx, userID, jobID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"row", "error_type", "message", "raw_data"}); err != nil {
		return nil, "", err
	}

	const batchSize = 500
	for offset := 0; ; offset += batchSize {
		batch, err := s.rowErrors.FindByJob(ctx, job.ID, batchSize, offset)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load row errors: %w", err)
		}
		for _, rowErr := range batch {
			raw, err := json.Marshal(rowErr.RawData)
			if err != nil {
				return nil, "", err
			}
			if err := w.Write([]string{
				strconv.Itoa(rowErr.RowNumber),
				string(rowErr.ErrorType),
				rowErr.Message,
				string(raw),
			}); err != nil {
				return nil, "", err
			}
		}
		if len(batch) < batchSize {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	fileName := fmt.Sprintf("import_errors_%s_%s.csv", job.EntityType, job.ID.String()[:8])
	return buf.Bytes(), fileName, nil
}

func pageFilter(page, pageSize int) shared.Filter {
	return shared.Filter{Page: page, PageSize: pageSize}.Normalize(100)
}
