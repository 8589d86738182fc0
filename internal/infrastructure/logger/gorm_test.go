package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-9")

	t.Run("logs statements at debug when GORM level is info", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(base, gormlogger.Info, time.Second)

		gl.Trace(ctx, time.Now(), statement("SELECT * FROM import_jobs", 1), nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.DebugLevel, entry.Level)
		assert.Equal(t, "gorm", entry.LoggerName)
		assert.Equal(t, "SELECT * FROM import_jobs", entry.ContextMap()["sql"])
		assert.Equal(t, int64(1), entry.ContextMap()["rows"])
		assert.Equal(t, "req-9", entry.ContextMap()["request_id"])
	})

	t.Run("logs failures at error", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(base, gormlogger.Warn, time.Second)

		gl.Trace(ctx, time.Now(), statement("INSERT INTO import_row_errors", 0), errors.New("duplicate key"))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
		assert.Equal(t, "duplicate key", logs.All()[0].ContextMap()["error"])
	})

	t.Run("ignores record not found", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(base, gormlogger.Warn, time.Second)

		gl.Trace(ctx, time.Now(), statement("SELECT 1", 0), gormlogger.ErrRecordNotFound)

		assert.Zero(t, logs.Len())
	})

	t.Run("warns on slow statements", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(base, gormlogger.Warn, time.Millisecond)

		gl.Trace(ctx, time.Now().Add(-time.Second), statement("UPDATE import_jobs SET status = 'completed'", 1), nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
		assert.Equal(t, "SQL slow", logs.All()[0].Message)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		base, logs := observed(zapcore.DebugLevel)
		gl := NewGormLogger(base, gormlogger.Info, time.Millisecond).LogMode(gormlogger.Silent)

		gl.Trace(ctx, time.Now().Add(-time.Second), statement("SELECT 1", 1), errors.New("boom"))

		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_Messages(t *testing.T) {
	base, logs := observed(zapcore.DebugLevel)
	gl := NewGormLogger(base, gormlogger.Warn, 0)

	gl.Info(context.Background(), "migrated %d tables", 4)
	gl.Warn(context.Background(), "slow %s", "thing")
	gl.Error(context.Background(), "failed %s", "thing")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "slow thing", logs.All()[0].Message)
	assert.Equal(t, "failed thing", logs.All()[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
