package importapp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
	"github.com/earthcare/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Summary stored on jobs whose processor stopped without finishing
const interruptedSummary = "processing interrupted"

// RowOutcome is how a single row ended
type RowOutcome string

const (
	OutcomeCreated    RowOutcome = "created"
	OutcomeUpdated    RowOutcome = "updated"
	OutcomeDuplicate  RowOutcome = "duplicate"
	OutcomeValidation RowOutcome = "validation_error"
	OutcomeSystem     RowOutcome = "system_error"
)

// Succeeded returns true if the row was written
func (o RowOutcome) Succeeded() bool {
	return o == OutcomeCreated || o == OutcomeUpdated
}

// RowResolver finds the existing record a row duplicates
type RowResolver interface {
	Resolve(ctx context.Context, rec *MappedRecord, strategy bulk.DuplicateStrategy, workspaceID uuid.UUID) (*Match, error)
}

// RowWriter creates or merge-updates directory records
type RowWriter interface {
	Create(ctx context.Context, rec *MappedRecord, workspaceID, userID uuid.UUID) (uuid.UUID, error)
	Update(ctx context.Context, match *Match, rec *MappedRecord) error
}

// Metrics receives import counters
type Metrics interface {
	RowProcessed(ctx context.Context, entityType, outcome string)
	JobFinished(ctx context.Context, entityType, status string)
}

type noopMetrics struct{}

func (noopMetrics) RowProcessed(context.Context, string, string) {}
func (noopMetrics) JobFinished(context.Context, string, string)  {}

// OrchestratorConfig holds the processing settings
type OrchestratorConfig struct {
	WorkerID           string
	CheckpointInterval int
	LeaseDuration      time.Duration
	LockTTL            time.Duration
}

// DefaultOrchestratorConfig returns the default processing settings
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		WorkerID:           "import-worker",
		CheckpointInterval: 10,
		LeaseDuration:      2 * time.Minute,
		LockTTL:            30 * time.Minute,
	}
}

// OrchestratorDeps are the collaborators of the orchestrator
type OrchestratorDeps struct {
	Jobs      bulk.ImportJobRepository
	RowErrors bulk.ImportRowErrorRepository
	Files     bulk.RawFileStore
	Lock      bulk.JobLock
	Resolver  RowResolver
	Writer    RowWriter
}

// OrchestratorOption is a functional option for Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithDecoder overrides the CSV decoder
func WithDecoder(d *csvimport.Decoder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.decoder = d
	}
}

// Orchestrator drives an import job from mapping to a terminal status.
// Distinct jobs run concurrently; rows of one job are processed in file order.
type Orchestrator struct {
	deps    OrchestratorDeps
	cfg     OrchestratorConfig
	mapper  *RowMapper
	decoder *csvimport.Decoder
	metrics Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	active map[uuid.UUID]context.CancelFunc

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	defaults := DefaultOrchestratorConfig()
	if cfg.WorkerID == "" {
		cfg.WorkerID = defaults.WorkerID
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = defaults.CheckpointInterval
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = defaults.LeaseDuration
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		deps:       deps,
		cfg:        cfg,
		mapper:     NewRowMapper(),
		decoder:    csvimport.NewDecoder(),
		metrics:    noopMetrics{},
		logger:     logger,
		active:     make(map[uuid.UUID]context.CancelFunc),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Trigger starts processing jobID in the background and returns immediately
func (o *Orchestrator) Trigger(jobID uuid.UUID) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.Run(o.rootCtx, jobID); err != nil {
			o.logger.Error("Import job run failed",
				zap.String("job_id", jobID.String()),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every triggered run has returned
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown stops running jobs and waits for them until ctx expires
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.rootCancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel signals the running loop of jobID in this process, if any
func (o *Orchestrator) Cancel(jobID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	cancel, ok := o.active[jobID]
	if ok {
		cancel()
	}
	return ok
}

// IsActive reports whether jobID is running in this process
func (o *Orchestrator) IsActive(jobID uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.active[jobID]
	return ok
}

func (o *Orchestrator) markActive(jobID uuid.UUID, cancel context.CancelFunc) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, running := o.active[jobID]; running {
		return false
	}
	o.active[jobID] = cancel
	return true
}

func (o *Orchestrator) clearActive(jobID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, jobID)
}

// Run processes jobID synchronously. It is a no-op when the job is already
// running here, locked by another worker, or no longer in mapping status.
func (o *Orchestrator) Run(ctx context.Context, jobID uuid.UUID) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !o.markActive(jobID, cancel) {
		o.logger.Debug("Import job already running in this process", zap.String("job_id", jobID.String()))
		return nil
	}
	defer o.clearActive(jobID)

	// Store writes must survive a cancel of the run
	storeCtx := context.WithoutCancel(ctx)

	acquired, err := o.deps.Lock.Acquire(storeCtx, jobID, o.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire lock for job %s: %w", jobID, err)
	}
	if !acquired {
		o.logger.Info("Import job locked by another worker", zap.String("job_id", jobID.String()))
		return nil
	}
	defer func() {
		if err := o.deps.Lock.Release(storeCtx, jobID); err != nil {
			o.logger.Warn("Failed to release import job lock",
				zap.String("job_id", jobID.String()),
				zap.Error(err),
			)
		}
	}()

	claimed, err := o.deps.Jobs.ClaimForProcessing(storeCtx, jobID, o.cfg.WorkerID, time.Now().Add(o.cfg.LeaseDuration))
	if err != nil {
		return fmt.Errorf("failed to claim job %s: %w", jobID, err)
	}
	if !claimed {
		o.logger.Debug("Import job not in mapping status, skipping", zap.String("job_id", jobID.String()))
		return nil
	}

	spanCtx, span := telemetry.StartSpan(storeCtx, "import.job.run",
		telemetry.AttrJobID.String(jobID.String()),
	)
	defer span.End()

	if kind, err := o.process(runCtx, spanCtx, jobID); err != nil {
		telemetry.RecordError(span, err)
		o.failJob(spanCtx, jobID, kind, err.Error())
		return nil
	}

	telemetry.SetOK(span)
	return nil
}

// process runs the row loop and returns the job's entity type.
// A returned error is fatal for the job.
func (o *Orchestrator) process(runCtx, ctx context.Context, jobID uuid.UUID) (bulk.EntityKind, error) {
	job, err := o.deps.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("failed to load import job: %w", err)
	}
	kind := job.EntityType

	log := o.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("entity_type", string(job.EntityType)),
		zap.String("strategy", string(job.Strategy)),
	)
	telemetry.Annotate(ctx,
		telemetry.AttrImportEntity.String(string(job.EntityType)),
		telemetry.AttrStrategy.String(string(job.Strategy)),
		telemetry.AttrTotalRows.Int(job.TotalRows),
	)

	if _, err := SchemaFor(job.EntityType); err != nil {
		return kind, err
	}

	data, err := o.deps.Files.Get(ctx, job.FileKey)
	if err != nil {
		return kind, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	table, err := o.decoder.Decode(data)
	if err != nil {
		return kind, fmt.Errorf("failed to decode uploaded file: %w", err)
	}
	if err := job.ConfirmTotal(len(table.Rows)); err != nil {
		return kind, err
	}

	log.Info("Import job processing started", zap.Int("total_rows", job.TotalRows))

	successful, failed := 0, 0
	stopped := false
	// Slow rows must not let the lease lapse between row-count checkpoints
	renewEvery := o.cfg.LeaseDuration / 3
	lastCheckpoint := time.Now()
	for i, row := range table.Rows {
		if runCtx.Err() != nil {
			stopped = true
			break
		}

		outcome, err := o.processRow(ctx, job, row)
		if err != nil {
			return kind, err
		}
		if outcome.Succeeded() {
			successful++
		} else {
			failed++
		}
		o.metrics.RowProcessed(ctx, string(job.EntityType), string(outcome))

		due := (i+1)%o.cfg.CheckpointInterval == 0 || time.Since(lastCheckpoint) >= renewEvery
		if due && i+1 < len(table.Rows) {
			if err := o.checkpoint(ctx, job, successful, failed); err != nil {
				log.Warn("Failed to persist import progress", zap.Error(err))
			}
			lastCheckpoint = time.Now()
			status, err := o.deps.Jobs.GetStatus(ctx, job.ID)
			if err == nil && status == bulk.JobStatusCancelled {
				stopped = true
				break
			}
		}
	}

	if err := o.checkpoint(ctx, job, successful, failed); err != nil {
		return kind, fmt.Errorf("failed to persist final counters: %w", err)
	}

	if stopped {
		return kind, o.stop(ctx, job, log)
	}

	if err := job.Finalize(); err != nil {
		return kind, err
	}
	saved, err := o.deps.Jobs.SaveIfStatus(ctx, job, bulk.JobStatusProcessing)
	if err != nil {
		return kind, fmt.Errorf("failed to finalize import job: %w", err)
	}
	if !saved {
		log.Info("Import job changed status while finishing, keeping stored status")
		return kind, nil
	}

	o.metrics.JobFinished(ctx, string(job.EntityType), string(job.Status))
	log.Info("Import job finished",
		zap.String("status", string(job.Status)),
		zap.Int("successful_rows", job.SuccessfulRows),
		zap.Int("failed_rows", job.FailedRows),
		zap.Duration("duration", job.Duration()),
	)
	return kind, nil
}

// stop handles a loop that ended early: a user cancel keeps the cancelled
// status, anything else (shutdown) fails the job as interrupted
func (o *Orchestrator) stop(ctx context.Context, job *bulk.ImportJob, log *zap.Logger) error {
	status, err := o.deps.Jobs.GetStatus(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to read job status: %w", err)
	}

	if status == bulk.JobStatusCancelled {
		o.metrics.JobFinished(ctx, string(job.EntityType), string(bulk.JobStatusCancelled))
		log.Info("Import job cancelled",
			zap.Int("processed_rows", job.ProcessedRows),
			zap.Int("total_rows", job.TotalRows),
		)
		return nil
	}

	o.failJob(ctx, job.ID, job.EntityType, interruptedSummary)
	return nil
}

func (o *Orchestrator) checkpoint(ctx context.Context, job *bulk.ImportJob, successful, failed int) error {
	if err := job.RecordProgress(successful, failed); err != nil {
		return err
	}
	return o.deps.Jobs.UpdateProgress(ctx, job.ID,
		job.ProcessedRows, job.SuccessfulRows, job.FailedRows,
		time.Now().Add(o.cfg.LeaseDuration))
}

// failJob moves a processing job to failed without touching its counters
func (o *Orchestrator) failJob(ctx context.Context, jobID uuid.UUID, entityType bulk.EntityKind, summary string) {
	ok, err := o.deps.Jobs.TransitionIf(ctx, jobID,
		[]bulk.JobStatus{bulk.JobStatusProcessing}, bulk.JobStatusFailed, summary, time.Now())
	if err != nil {
		o.logger.Error("Failed to mark import job as failed",
			zap.String("job_id", jobID.String()),
			zap.Error(err),
		)
		return
	}
	if ok {
		o.metrics.JobFinished(ctx, string(entityType), string(bulk.JobStatusFailed))
		o.logger.Warn("Import job failed",
			zap.String("job_id", jobID.String()),
			zap.String("error_summary", summary),
		)
	}
}

// processRow handles one row; no row fault or panic escapes it. The returned
// error is set only when the row's error record could not be stored, which
// is fatal for the job.
func (o *Orchestrator) processRow(ctx context.Context, job *bulk.ImportJob, row csvimport.Row) (outcome RowOutcome, err error) {
	fail := func(failed RowOutcome, errorType bulk.RowErrorType, message string) (RowOutcome, error) {
		return failed, o.recordRowError(ctx, job, row, errorType, message)
	}

	defer func() {
		if r := recover(); r != nil {
			outcome, err = fail(OutcomeSystem, bulk.RowErrorSystem, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	result, mapErr := o.mapper.Map(row.Data, job.EntityType, job.Mapping)
	if mapErr != nil {
		return fail(OutcomeSystem, bulk.RowErrorSystem, mapErr.Error())
	}
	if !result.Valid {
		return fail(OutcomeValidation, bulk.RowErrorValidation, strings.Join(result.Errors, "; "))
	}

	match, resolveErr := o.deps.Resolver.Resolve(ctx, result.Data, job.Strategy, job.WorkspaceID)
	if resolveErr != nil {
		return fail(OutcomeSystem, bulk.RowErrorSystem, resolveErr.Error())
	}

	if match != nil {
		switch job.Strategy {
		case bulk.StrategySkip:
			return fail(OutcomeDuplicate, bulk.RowErrorDuplicate,
				fmt.Sprintf("duplicate of existing %s %s", job.EntityType, match.ID()))
		case bulk.StrategyUpdate:
			if updateErr := o.deps.Writer.Update(ctx, match, result.Data); updateErr != nil {
				return fail(OutcomeSystem, bulk.RowErrorSystem, updateErr.Error())
			}
			return OutcomeUpdated, nil
		}
	}

	if _, createErr := o.deps.Writer.Create(ctx, result.Data, job.WorkspaceID, job.CreatedBy); createErr != nil {
		return fail(OutcomeSystem, bulk.RowErrorSystem, createErr.Error())
	}
	return OutcomeCreated, nil
}

func (o *Orchestrator) recordRowError(ctx context.Context, job *bulk.ImportJob, row csvimport.Row, errorType bulk.RowErrorType, message string) error {
	rowErr, err := bulk.NewImportRowError(job.ID, row.Number, row.Data, errorType, message)
	if err == nil {
		err = o.deps.RowErrors.Create(ctx, rowErr)
	}
	if err != nil {
		o.logger.Error("Failed to record import row error",
			zap.String("job_id", job.ID.String()),
			zap.Int("row", row.Number),
			zap.Error(err),
		)
		return fmt.Errorf("failed to record error for row %d: %w", row.Number, err)
	}
	return nil
}

// RecoverPending re-triggers jobs left in mapping and fails processing jobs
// whose lease expired. It returns how many jobs were re-triggered.
func (o *Orchestrator) RecoverPending(ctx context.Context) (int, error) {
	expired, err := o.deps.Jobs.FindExpiredLeases(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to find expired import jobs: %w", err)
	}
	for _, job := range expired {
		if o.IsActive(job.ID) {
			continue
		}
		o.failJob(ctx, job.ID, job.EntityType, interruptedSummary)
	}

	pending, err := o.deps.Jobs.FindByStatus(ctx, bulk.JobStatusMapping)
	if err != nil {
		return 0, fmt.Errorf("failed to find pending import jobs: %w", err)
	}
	for _, job := range pending {
		o.Trigger(job.ID)
	}

	if len(expired) > 0 || len(pending) > 0 {
		o.logger.Info("Recovered import jobs",
			zap.Int("retriggered", len(pending)),
			zap.Int("interrupted", len(expired)),
		)
	}
	return len(pending), nil
}
