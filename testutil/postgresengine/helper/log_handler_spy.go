package helper

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler implementation that captures log records for testing.
type LogHandlerSpy struct {
	records     []slog.Record
	mu          sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy.
// Switchable to log to stdout, which can be useful for debugging tests by seeing the actual log output.
func NewLogHandlerSpy(logToStdOut bool) *LogHandlerSpy {
	return &LogHandlerSpy{
		records:     make([]slog.Record, 0),
		logToStdout: logToStdOut,
	}
}

// Handle implements slog.Handler interface.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)

	// Optionally also log to stdout for debugging
	if s.logToStdout {
		jsonHandler := slog.NewJSONHandler(os.Stdout, nil)
		_ = jsonHandler.Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler interface.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true // Always enabled for testing
}

// WithAttrs implements slog.Handler interface.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

// WithGroup implements slog.Handler interface.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// GetRecordCount returns the number of captured log records.
func (s *LogHandlerSpy) GetRecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Reset clears all captured log records.
func (s *LogHandlerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

// HasDebugLog checks if there's a debug-level log record containing the specified message.
func (s *LogHandlerSpy) HasDebugLog(message string) bool {
	return s.hasLog(slog.LevelDebug, message)
}

// HasInfoLog checks if there's an info-level log record containing the specified message.
func (s *LogHandlerSpy) HasInfoLog(message string) bool {
	return s.hasLog(slog.LevelInfo, message)
}

// HasErrorLog checks if there's an error-level log record containing the specified message.
func (s *LogHandlerSpy) HasErrorLog(message string) bool {
	return s.hasLog(slog.LevelError, message)
}

// HasLogWithAttr checks for a log record with the message that carries the given attribute key.
func (s *LogHandlerSpy) HasLogWithAttr(message string, attrKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Message != message {
			continue
		}

		hasAttr := false
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == attrKey {
				hasAttr = true
				return false // Stop iteration
			}

			return true // Continue iteration
		})

		if hasAttr {
			return true
		}
	}

	return false
}

func (s *LogHandlerSpy) hasLog(level slog.Level, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}
