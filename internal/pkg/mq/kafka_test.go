package mq

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// 生产方注入消息头、消费方从消息头恢复，trace 必须接得上。
func TestTraceContextThroughMessageHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	// 与 ProduceMessage 相同的注入路径
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	var msg kafka.Message
	for k, v := range carrier {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if len(msg.Headers) == 0 {
		t.Fatal("no trace headers were injected")
	}

	got := trace.SpanContextFromContext(ExtractContext(context.Background(), msg))
	if !got.IsValid() {
		t.Fatal("extracted span context is not valid")
	}
	if got.TraceID() != traceID {
		t.Errorf("trace id = %s, want %s", got.TraceID(), traceID)
	}
}

func TestExtractContext_NoHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	got := trace.SpanContextFromContext(ExtractContext(context.Background(), kafka.Message{}))
	if got.IsValid() {
		t.Error("a message without headers must not fabricate a span context")
	}
}
