package rtree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rt := newTestTree(t, 2, 4, WithMeter(provider.Meter("rtree_test")))
	var recs []testRecord
	for i := 0; i < 5; i++ {
		x := float64(i)
		rec := testRecord{ID: i, BBox: BBox{x, x, x + 1, x + 1}}
		rt.Insert(rec)
		recs = append(recs, rec)
	}
	_ = rt.Search(Window{0, 0, 10, 10})
	for _, rec := range recs {
		require.True(t, rt.Delete(rec))
	}

	got := collect(t, reader)

	assert.Equal(t, int64(1), got["rtree.node.splits"])
	assert.Equal(t, int64(1), got["rtree.root.grows"])
	assert.Equal(t, int64(1), got["rtree.root.shrinks"])
	assert.Equal(t, int64(2), got["rtree.reinsertions"])
	assert.Equal(t, int64(1), got["rtree.search.visited_nodes"], "one search recorded")
}

// collect sums every counter, and counts histogram observations, by
// instrument name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += int64(dp.Count)
				}
			}
		}
	}
	return out
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rt := newTestTree(t, 2, 4, WithLogger(zap.New(core)))
	for i := 0; i < 5; i++ {
		x := float64(i)
		rt.Insert(testRecord{ID: i, BBox: BBox{x, x, x + 1, x + 1}})
	}

	assert.Equal(t, 1, logs.FilterMessage("rtree: split node").Len())
	grew := logs.FilterMessage("rtree: root grew").All()
	require.Len(t, grew, 1)
	assert.Equal(t, int64(2), grew[0].ContextMap()["height"])
}

func TestNilOptionsIgnored(t *testing.T) {
	rt, err := New[int, string](2, 4, WithLogger(nil), WithMeter(nil))
	require.NoError(t, err)

	rt.Insert(testRecord{ID: 1, BBox: BBox{0, 0, 1, 1}})
	assert.Equal(t, 1, rt.Len())
}
