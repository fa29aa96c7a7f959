package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLoggerFromContext_Default verifies that a context without a logger yields
// a usable no-op logger rather than nil.
func TestLoggerFromContext_Default(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	if logger == nil {
		t.Fatal("LoggerFromContext() returned nil")
	}
	logger.Info("discarded")
}

// TestLoggerFromContext_RoundTrip verifies that the stored logger is returned.
func TestLoggerFromContext_RoundTrip(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LoggerFromContext(ctx).Info("hello")

	if logs.Len() != 1 {
		t.Fatalf("observed %d log entries, want 1", logs.Len())
	}
}

func TestCorrelationID(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(empty) = %q, want empty", got)
	}
	ctx := WithCorrelationID(context.Background(), "abc-123")
	if got := CorrelationID(ctx); got != "abc-123" {
		t.Errorf("CorrelationID() = %q, want abc-123", got)
	}
}
