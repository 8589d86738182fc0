package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useSpanRecorder installs a recording tracer provider for the test.
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartSpan(t *testing.T) {
	recorder := useSpanRecorder(t)

	ctx, span := StartSpan(context.Background(), "import.job.run", AttrJobID.String("job-1"))
	Annotate(ctx, AttrImportEntity.String("person"), AttrTotalRows.Int(12))
	SetOK(span)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "import.job.run", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	jobID, ok := spanAttr(ended[0], AttrJobID)
	require.True(t, ok)
	assert.Equal(t, "job-1", jobID.AsString())
	entity, ok := spanAttr(ended[0], AttrImportEntity)
	require.True(t, ok)
	assert.Equal(t, "person", entity.AsString())
	rows, ok := spanAttr(ended[0], AttrTotalRows)
	require.True(t, ok)
	assert.Equal(t, int64(12), rows.AsInt64())
}

func TestRecordError(t *testing.T) {
	recorder := useSpanRecorder(t)

	_, span := StartSpan(context.Background(), "import.upload")
	RecordError(span, errors.New("storage unavailable"))
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "storage unavailable", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		Annotate(context.Background(), AttrJobID.String("x"))
		RecordError(nil, errors.New("ignored"))
		SetOK(nil)
	})
}
