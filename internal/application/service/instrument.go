package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
	"github.com/eshaffer321/subtrack/internal/infrastructure/logging"
	"github.com/eshaffer321/subtrack/internal/infrastructure/metrics"
)

// instrumentation ends spans and records metrics and logs for one operation
type instrumentation struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newInstrumentation(logger *slog.Logger, m *metrics.Metrics) instrumentation {
	if logger == nil {
		logger = logging.Discard()
	}
	return instrumentation{logger: logger, metrics: m}
}

// finish closes out an operation started at start. Storage failures log at
// error level; caller mistakes (not found, validation) only at debug.
func (in instrumentation) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	in.metrics.ObserveOperation(op, time.Since(start))
	if err == nil {
		return
	}

	code := recurring.CodeOf(err)
	in.metrics.RecordError(op, string(code))
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))

	if code == recurring.CodeStorage {
		in.logger.ErrorContext(ctx, "Operation failed", "operation", op, "error", err)
		return
	}
	in.logger.DebugContext(ctx, "Operation rejected", "operation", op, "code", code, "error", err)
}
