package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInstruments_RecordCycles(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	inst, err := NewInstruments(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	inst.CycleDone(ctx, "ok", 20*time.Millisecond)
	inst.CycleDone(ctx, "ok", 30*time.Millisecond)
	inst.CycleDone(ctx, "transport_error", time.Millisecond)
	inst.ParseDone(ctx, 1, 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sums := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if s, ok := m.Data.(metricdata.Sum[int64]); ok {
			for _, dp := range s.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(3), sums["ci_pulse.cycles"])
	assert.Equal(t, int64(1), sums["ci_pulse.parse.skipped"])
	assert.Equal(t, int64(3), sums["ci_pulse.parse.uncorrelated"])
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "", "test", true)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
