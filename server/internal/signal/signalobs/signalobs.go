// Package signalobs decorates a signal.Source with tracing and logging.
package signalobs

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inonewetrust/signalapi/server/internal/signal"
)

const tracerName = "github.com/inonewetrust/signalapi/server/internal/signal"

// Recorder is notified of every signal produced. metrics.Registry satisfies it.
type Recorder interface {
	ObserveSignal(action string)
}

type observableSource struct {
	src    signal.Source
	tracer trace.Tracer
	rec    Recorder
}

var _ signal.Source = (*observableSource)(nil)

// Wrap returns a Source that opens a span around each call to src and
// reports the resulting action to rec. rec may be nil.
func Wrap(src signal.Source, rec Recorder) signal.Source {
	return &observableSource{
		src:    src,
		tracer: otel.Tracer(tracerName),
		rec:    rec,
	}
}

func (o *observableSource) Signal(ctx context.Context, symbol string) (signal.Signal, error) {
	ctx, span := o.tracer.Start(ctx, "signal.Signal",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	start := time.Now()
	sig, err := o.src.Signal(ctx, symbol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "signal: source failed",
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
			"err", err,
		)
		return signal.Signal{}, err
	}

	span.SetAttributes(
		attribute.String("action", string(sig.Action)),
		attribute.Float64("score", sig.Score),
	)
	span.SetStatus(codes.Ok, "")
	if o.rec != nil {
		o.rec.ObserveSignal(string(sig.Action))
	}

	slog.DebugContext(ctx, "signal: generated",
		"symbol", sig.Symbol,
		"action", sig.Action,
		"score", sig.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sig, nil
}
