package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// ImportMetrics records counters for the CSV import pipeline.
type ImportMetrics struct {
	rowsTotal *Counter
	jobsTotal *Counter
}

// NewImportMetrics registers the import counters on the given meter.
func NewImportMetrics(meter metric.Meter) (*ImportMetrics, error) {
	rows, err := NewCounter(meter,
		"import_rows_total",
		"Number of CSV rows processed by outcome",
		"{row}",
	)
	if err != nil {
		return nil, err
	}

	jobs, err := NewCounter(meter,
		"import_jobs_total",
		"Number of import jobs that reached a terminal status",
		"{job}",
	)
	if err != nil {
		return nil, err
	}

	return &ImportMetrics{rowsTotal: rows, jobsTotal: jobs}, nil
}

// RowProcessed counts one processed row. Outcome is one of
// created, updated, skipped or error.
func (m *ImportMetrics) RowProcessed(ctx context.Context, entityType, outcome string) {
	m.rowsTotal.Inc(ctx,
		AttrEntityType.String(entityType),
		AttrOutcome.String(outcome),
	)
}

// JobFinished counts a job reaching its terminal status.
func (m *ImportMetrics) JobFinished(ctx context.Context, entityType, status string) {
	m.jobsTotal.Inc(ctx,
		AttrEntityType.String(entityType),
		AttrJobStatus.String(status),
	)
}
