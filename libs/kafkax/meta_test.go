package kafkax

import (
	"context"
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	want := []string{"kafka-1:9092", "kafka-2:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if SplitBrokers("") != nil {
		t.Fatal("expected nil for empty broker list")
	}
}

func TestExtractEventMeta_FallsBack(t *testing.T) {
	msg := kafka.Message{Topic: "booking.court.booked.v1", Key: []byte("b-1")}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "b-1" || meta.EventType != "booking.court.booked.v1" {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	msg.Headers = []kafka.Header{{Key: "event_id", Value: []byte("evt-9")}, {Key: "event_type", Value: []byte("custom")}}
	meta = ExtractEventMeta(msg)
	if meta.EventID != "evt-9" || meta.EventType != "custom" {
		t.Fatalf("unexpected meta from headers: %+v", meta)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	carrier := propagation.MapCarrier{"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), carrier)

	headers := InjectTraceHeaders(ctx, []kafka.Header{{Key: "event_id", Value: []byte("e")}})
	if HeaderValue(headers, "traceparent") == "" {
		t.Fatalf("expected traceparent header, got %+v", headers)
	}

	out := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	if trace.SpanContextFromContext(out).TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatal("trace id lost in round trip")
	}
}
