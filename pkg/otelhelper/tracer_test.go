package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewTracer_ProducesRecordingSpans(t *testing.T) {
	tracer, err := NewTracer(context.Background(), "loomline-test")
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), tracer, "workflow.execution",
		attribute.String(WorkflowIDKey, "wf-1"))
	defer span.End()

	assert.True(t, span.IsRecording())
	assert.NotNil(t, ctx)
}

func TestSetError_MarksSpanFailed(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "workflow.execution")
	SetError(span, errors.New("action failed"), attribute.String(ExecutionIDKey, "exec-1"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "action failed", ended[0].Status().Description)
}
