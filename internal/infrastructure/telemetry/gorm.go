package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// GormConfig selects which database signals are collected.
type GormConfig struct {
	Tracing            bool          // otelgorm spans per statement
	LogFullSQL         bool          // keep bound variables in span statements (dev only)
	Metrics            bool          // query counters, latency and pool gauges
	SlowQueryThreshold time.Duration // default 200ms
	DBName             string
}

// GormInstrumentation is returned by InstrumentGorm; Close unregisters the pool gauges.
type GormInstrumentation struct {
	cfg            GormConfig
	logger         *zap.Logger
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	poolCallback   metric.Registration
}

type queryStartKey struct{}

// InstrumentGorm attaches tracing and metrics callbacks to db.
func InstrumentGorm(db *gorm.DB, meter metric.Meter, cfg GormConfig, logger *zap.Logger) (*GormInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	gi := &GormInstrumentation{cfg: cfg, logger: logger}

	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}

	if cfg.Metrics && meter != nil {
		if err := gi.createInstruments(meter); err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := gi.observePool(meter, sqlDB); err != nil {
			return nil, err
		}
	}

	if !cfg.Tracing && !cfg.Metrics {
		return gi, nil
	}
	if err := registerAround(db, "ecn_db", gi.before, gi.after); err != nil {
		return nil, fmt.Errorf("failed to register query callbacks: %w", err)
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.Tracing),
		zap.Bool("metrics", cfg.Metrics),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return gi, nil
}

func (gi *GormInstrumentation) createInstruments(meter metric.Meter) error {
	var err error
	if gi.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return err
	}
	if gi.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the configured threshold", "{query}"); err != nil {
		return err
	}
	gi.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	return err
}

// observePool reports sql.DB pool stats at collection time.
func (gi *GormInstrumentation) observePool(meter metric.Meter, sqlDB *sql.DB) error {
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool max gauge: %w", err)
	}

	gi.poolCallback, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, conns, maxConns)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}
	return nil
}

// Close stops pool observation.
func (gi *GormInstrumentation) Close() error {
	if gi == nil || gi.poolCallback == nil {
		return nil
	}
	return gi.poolCallback.Unregister()
}

func (gi *GormInstrumentation) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (gi *GormInstrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		op := operation
		if op == "" {
			op = operationFromSQL(db.Statement.SQL.String())
		}

		var elapsed time.Duration
		if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
			elapsed = time.Since(start)
		}
		slow := elapsed > gi.cfg.SlowQueryThreshold
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		if gi.queryTotal != nil {
			gi.queryTotal.Inc(ctx, AttrDBOperation.String(op))
			gi.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op))
			if slow {
				gi.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
			}
		}

		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(
			attribute.String("db.sql.table", table),
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
		)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			RecordError(span, db.Error)
		}
		if slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}

// registerAround hooks every gorm processor. After callbacks run before otelgorm
// ends its span so slow queries can still be marked.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(string) func(*gorm.DB)) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before),

		cb.Create().After("gorm:create").Before("otel:after:create").Register(prefix+":after_create", after("INSERT")),
		cb.Query().After("gorm:query").Before("otel:after:query").Register(prefix+":after_query", after("SELECT")),
		cb.Update().After("gorm:update").Before("otel:after:update").Register(prefix+":after_update", after("UPDATE")),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(prefix+":after_delete", after("DELETE")),
		cb.Row().After("gorm:row").Before("otel:after:row").Register(prefix+":after_row", after("")),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(prefix+":after_raw", after("")),
	)
}

func operationFromSQL(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return "OTHER"
	}
	switch op := strings.ToUpper(fields[0]); op {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return op
	default:
		return "OTHER"
	}
}
