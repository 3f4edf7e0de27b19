package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New("", reg)
	require.NoError(t, err)

	c.ObserveLoad(true, 150*time.Millisecond)
	c.ObserveLoad(false, time.Second)
	c.ObserveLoad(true, time.Millisecond)
	c.SetActiveModels(1)
	c.IncRemovals()
	c.AddDisposalWarnings(2)
	c.AddDisposalWarnings(0)
	c.ObserveExport(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.loads.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.loads.WithLabelValues(ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeModels))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.removals))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.disposalWarnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exports.WithLabelValues(ResultFailure)))

	n, err := testutil.GatherAndCount(reg, "bimview_load_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("viewer", reg)
	require.NoError(t, err)
	_, err = New("viewer", reg)
	assert.NoError(t, err)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveLoad(true, time.Second)
	c.SetActiveModels(3)
	c.IncRemovals()
	c.AddDisposalWarnings(1)
	c.ObserveExport(true)

	c, err := New("x", nil)
	require.NoError(t, err)
	c.IncRemovals()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.removals))
}
