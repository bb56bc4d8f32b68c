package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/d60-Lab/feedmix/config"
)

func TestInitTracer_DisabledKeepsGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := InitTracer(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.Equal(t, before, otel.GetTracerProvider())
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_EnabledWithoutExporter(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := InitTracer(context.Background(), config.TracingConfig{
		Enabled:     true,
		ServiceName: "feedmix-test",
		SampleRatio: 1,
	})
	require.NoError(t, err)
	assert.NotEqual(t, before, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, shutdown(context.Background()))
}

func TestInitSentry_EmptyDSNIsNoop(t *testing.T) {
	flush, err := InitSentry(config.SentryConfig{})
	require.NoError(t, err)
	flush()
	CaptureError(errors.New("boom"))
	CaptureError(nil)
}
