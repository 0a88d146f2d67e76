package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	ctx := ContextWithTraceContext(context.Background(), parent, "")
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected span context: %+v", sc)
	}

	tp, _ := TraceContextStrings(ctx)
	if tp != parent {
		t.Fatalf("expected %s, got %s", parent, tp)
	}
	if got := ContextWithTraceContext(ctx, "", ""); got != ctx {
		t.Fatal("expected empty carrier to return ctx unchanged")
	}
}
