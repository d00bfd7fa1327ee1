package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
)

func Test_SlogBridgeLogger_AllLevels(t *testing.T) {
	// setup
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message", "level", "debug")
	logger.InfoContext(ctx, "info message", "level", "info")
	logger.WarnContext(ctx, "warn message", "level", "warn")
	logger.ErrorContext(ctx, "error message", "level", "error")

	// assert
	output := buf.String()
	assert.Contains(t, output, "debug message", "Debug message should be logged")
	assert.Contains(t, output, "info message", "Info message should be logged")
	assert.Contains(t, output, "warn message", "Warn message should be logged")
	assert.Contains(t, output, "error message", "Error message should be logged")
}

func Test_SlogBridgeLogger_WithAttributes(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, nil))

	// act
	logger.InfoContext(context.Background(), "loan created",
		"loan_id", "some-id",
		"retry_attempts", 2,
		"duration_ms", 3.14,
	)

	// assert
	output := buf.String()
	assert.Contains(t, output, "loan created", "Message should be logged")
	assert.Contains(t, output, `"loan_id":"some-id"`, "String attribute should be present")
	assert.Contains(t, output, `"retry_attempts":2`, "Int attribute should be present")
	assert.Contains(t, output, `"duration_ms":3.14`, "Float attribute should be present")
}

func Test_OTelLogger_AllLevels(t *testing.T) {
	// setup - a noop logger is enough to verify the methods do not panic
	otelLogger := noop.NewLoggerProvider().Logger("test")
	logger := oteladapters.NewOTelLogger(otelLogger)
	ctx := context.Background()

	// act + assert
	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "debug message", "key", "value")
	}, "DebugContext should not panic")

	assert.NotPanics(t, func() {
		logger.InfoContext(ctx, "info message", "key", "value")
	}, "InfoContext should not panic")

	assert.NotPanics(t, func() {
		logger.WarnContext(ctx, "warn message", "key", "value")
	}, "WarnContext should not panic")

	assert.NotPanics(t, func() {
		logger.ErrorContext(ctx, "error message", "key", "value")
	}, "ErrorContext should not panic")
}

func Test_OTelLogger_ArgumentHandling(t *testing.T) {
	// setup
	otelLogger := noop.NewLoggerProvider().Logger("test")
	logger := oteladapters.NewOTelLogger(otelLogger)
	ctx := context.Background()

	// act + assert
	assert.NotPanics(t, func() {
		logger.InfoContext(ctx, "mixed args", "string", "text", "number", 123, "float", 45.67, "boolean", false)
	}, "Multiple args should not panic")

	assert.NotPanics(t, func() {
		logger.InfoContext(ctx, "odd args", "key1", "value1", "dangling")
	}, "Odd number of args should not panic")

	assert.NotPanics(t, func() {
		logger.InfoContext(ctx, "no args")
	}, "No additional args should not panic")
}
