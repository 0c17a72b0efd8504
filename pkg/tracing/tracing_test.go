package tracing_test

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

	"github.com/dmitrymomot/inboxshot/pkg/tracing"
)

// Not parallel: swaps the global tracer provider.
func TestStartEnd(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()

	_, ok := tracing.Start(ctx, "test", "ok-step", tracing.Client("gmail"), tracing.DarkMode(true))
	tracing.End(ok, nil)

	_, bad := tracing.Start(ctx, "test", "bad-step")
	tracing.End(bad, errors.New("boom"))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "ok-step", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("mailbox.client", "gmail"))
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("capture.dark", true))

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
}

func TestInit(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := tracing.Init(context.Background(), tracing.Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
