package importapp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/infrastructure/cache"
	"github.com/earthcare/backend/internal/infrastructure/persistence"
	"github.com/earthcare/backend/internal/infrastructure/persistence/models"
	"github.com/earthcare/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// importHarness wires the import pipeline onto an in-memory sqlite database
type importHarness struct {
	db            *gorm.DB
	jobs          *persistence.GormImportJobRepository
	rowErrors     *persistence.GormImportRowErrorRepository
	enterprises   *persistence.GormEnterpriseRepository
	people        *persistence.GormPersonRepository
	opportunities *persistence.GormOpportunityRepository
	files         *storage.MemoryFileStore
	lock          *cache.InMemoryJobLock
	runner        *recordingRunner
	metrics       *recordingMetrics
	orchestrator  *Orchestrator
	service       *ImportService

	workspaceID uuid.UUID
	userID      uuid.UUID
}

type harnessOptions struct {
	wrapWriter    func(RowWriter) RowWriter
	wrapRowErrors func(bulk.ImportRowErrorRepository) bulk.ImportRowErrorRepository
	cfg        OrchestratorConfig
	serviceCfg ServiceConfig
}

type harnessOption func(*harnessOptions)

func withWriter(wrap func(RowWriter) RowWriter) harnessOption {
	return func(o *harnessOptions) { o.wrapWriter = wrap }
}

// withRowErrorStore wraps the row error repository seen by the orchestrator only
func withRowErrorStore(wrap func(bulk.ImportRowErrorRepository) bulk.ImportRowErrorRepository) harnessOption {
	return func(o *harnessOptions) { o.wrapRowErrors = wrap }
}

func withCheckpointInterval(n int) harnessOption {
	return func(o *harnessOptions) { o.cfg.CheckpointInterval = n }
}

func withLeaseDuration(d time.Duration) harnessOption {
	return func(o *harnessOptions) { o.cfg.LeaseDuration = d }
}

func withStatusErrorLimit(n int) harnessOption {
	return func(o *harnessOptions) { o.serviceCfg.StatusErrorLimit = n }
}

func withMaxFileSize(n int64) harnessOption {
	return func(o *harnessOptions) { o.serviceCfg.MaxFileSize = n }
}

func newImportHarness(t *testing.T, opts ...harnessOption) *importHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.ImportJobModel{},
		&models.ImportRowErrorModel{},
		&models.EnterpriseModel{},
		&models.PersonModel{},
		&models.OpportunityModel{},
	))

	o := harnessOptions{cfg: OrchestratorConfig{WorkerID: "test-worker"}}
	for _, opt := range opts {
		opt(&o)
	}

	h := &importHarness{
		db:            db,
		jobs:          persistence.NewGormImportJobRepository(db),
		rowErrors:     persistence.NewGormImportRowErrorRepository(db),
		enterprises:   persistence.NewGormEnterpriseRepository(db),
		people:        persistence.NewGormPersonRepository(db),
		opportunities: persistence.NewGormOpportunityRepository(db),
		files:         storage.NewMemoryFileStore(),
		lock:          cache.NewInMemoryJobLock(),
		runner:        &recordingRunner{},
		metrics:       newRecordingMetrics(),
		workspaceID:   uuid.New(),
		userID:        uuid.New(),
	}

	var writer RowWriter = NewRecordWriter(h.enterprises, h.people, h.opportunities)
	if o.wrapWriter != nil {
		writer = o.wrapWriter(writer)
	}

	var rowErrors bulk.ImportRowErrorRepository = h.rowErrors
	if o.wrapRowErrors != nil {
		rowErrors = o.wrapRowErrors(rowErrors)
	}

	logger := zaptest.NewLogger(t)
	h.orchestrator = NewOrchestrator(OrchestratorDeps{
		Jobs:      h.jobs,
		RowErrors: rowErrors,
		Files:     h.files,
		Lock:      h.lock,
		Resolver:  NewDuplicateResolver(h.enterprises, h.people, h.opportunities),
		Writer:    writer,
	}, o.cfg, logger, WithMetrics(h.metrics))
	h.service = NewImportService(h.jobs, h.rowErrors, h.files, h.runner, o.serviceCfg, logger)

	t.Cleanup(func() {
		_ = h.orchestrator.Shutdown(context.Background())
	})
	return h
}

// configuredJob uploads csv and configures it, leaving the job in mapping
func (h *importHarness) configuredJob(t *testing.T, kind bulk.EntityKind, csv string, mapping map[string]string, strategy bulk.DuplicateStrategy) *bulk.ImportJob {
	t.Helper()
	ctx := context.Background()

	uploaded, err := h.service.Upload(ctx, UploadInput{
		UserID:      h.userID,
		WorkspaceID: h.workspaceID,
		EntityType:  string(kind),
		FileName:    "records.csv",
		ContentType: "text/csv",
		Data:        []byte(csv),
	})
	require.NoError(t, err)

	job, err := h.service.Configure(ctx, ConfigureInput{
		UserID:   h.userID,
		JobID:    uploaded.Job.ID,
		Mapping:  mapping,
		Strategy: string(strategy),
	})
	require.NoError(t, err)
	require.Equal(t, bulk.JobStatusMapping, job.Status)
	return job
}

// runJob processes a configured job synchronously and reloads it
func (h *importHarness) runJob(t *testing.T, jobID uuid.UUID) *bulk.ImportJob {
	t.Helper()
	require.NoError(t, h.orchestrator.Run(context.Background(), jobID))
	return h.reload(t, jobID)
}

func (h *importHarness) reload(t *testing.T, jobID uuid.UUID) *bulk.ImportJob {
	t.Helper()
	job, err := h.jobs.FindByID(context.Background(), jobID)
	require.NoError(t, err)
	return job
}

func (h *importHarness) rowErrorsOf(t *testing.T, jobID uuid.UUID) []*bulk.ImportRowError {
	t.Helper()
	rowErrs, err := h.rowErrors.FindByJob(context.Background(), jobID, 0, 0)
	require.NoError(t, err)
	return rowErrs
}

// recordingRunner records scheduled jobs without running them
type recordingRunner struct {
	mu        sync.Mutex
	triggered []uuid.UUID
	cancelled []uuid.UUID
}

func (r *recordingRunner) Trigger(jobID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggered = append(r.triggered, jobID)
}

func (r *recordingRunner) Cancel(jobID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, jobID)
	return false
}

func (r *recordingRunner) Triggered() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.triggered...)
}

type recordingMetrics struct {
	mu       sync.Mutex
	rows     map[string]int
	finished map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{rows: make(map[string]int), finished: make(map[string]int)}
}

func (m *recordingMetrics) RowProcessed(_ context.Context, entityType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[entityType+"/"+outcome]++
}

func (m *recordingMetrics) JobFinished(_ context.Context, entityType, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[entityType+"/"+status]++
}

func (m *recordingMetrics) Rows(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[key]
}

func (m *recordingMetrics) Finished(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished[key]
}

// hookWriter runs a hook before delegating each create
type hookWriter struct {
	RowWriter
	mu       sync.Mutex
	creates  int
	onCreate func(n int, rec *MappedRecord) error
}

func (w *hookWriter) Create(ctx context.Context, rec *MappedRecord, workspaceID, userID uuid.UUID) (uuid.UUID, error) {
	w.mu.Lock()
	w.creates++
	n := w.creates
	w.mu.Unlock()

	if w.onCreate != nil {
		if err := w.onCreate(n, rec); err != nil {
			return uuid.Nil, err
		}
	}
	return w.RowWriter.Create(ctx, rec, workspaceID, userID)
}

// unavailableRowErrors rejects every row error write
type unavailableRowErrors struct {
	bulk.ImportRowErrorRepository
}

func (unavailableRowErrors) Create(context.Context, *bulk.ImportRowError) error {
	return errors.New("row error table unavailable")
}
