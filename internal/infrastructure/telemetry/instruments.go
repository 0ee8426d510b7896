package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments records refresh cycles. It satisfies domain.CycleObserver.
type Instruments struct {
	cycles       metric.Int64Counter
	skipped      metric.Int64Counter
	uncorrelated metric.Int64Counter
	duration     metric.Float64Histogram
}

func NewInstruments(m metric.Meter) (*Instruments, error) {
	cycles, err := m.Int64Counter("ci_pulse.cycles",
		metric.WithDescription("Refresh cycles by outcome"))
	if err != nil {
		return nil, err
	}
	skipped, err := m.Int64Counter("ci_pulse.parse.skipped",
		metric.WithDescription("Exposition lines of a known family that failed to parse"))
	if err != nil {
		return nil, err
	}
	uncorrelated, err := m.Int64Counter("ci_pulse.parse.uncorrelated",
		metric.WithDescription("Duration and timestamp facts with no matching status record"))
	if err != nil {
		return nil, err
	}
	duration, err := m.Float64Histogram("ci_pulse.cycle.duration",
		metric.WithDescription("Wall time of a refresh cycle"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Instruments{cycles: cycles, skipped: skipped, uncorrelated: uncorrelated, duration: duration}, nil
}

func (i *Instruments) CycleDone(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	i.cycles.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (i *Instruments) ParseDone(ctx context.Context, skipped, uncorrelated int) {
	if skipped > 0 {
		i.skipped.Add(ctx, int64(skipped))
	}
	if uncorrelated > 0 {
		i.uncorrelated.Add(ctx, int64(uncorrelated))
	}
}
