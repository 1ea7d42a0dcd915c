package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFallsBackToInfo(t *testing.T) {
	logger, err := New("chatty")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) || logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected info level for an unknown level name")
	}

	debug, err := New(" DEBUG ")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !debug.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := Lookup(context.Background()); ok {
		t.Fatal("expected no logger on an empty context")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a no-op logger")
	}

	logger := zap.NewExample()
	ctx := WithContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatal("expected the stored logger")
	}
	if WithContext(ctx, nil) != ctx {
		t.Fatal("expected nil logger to leave the context untouched")
	}
}
