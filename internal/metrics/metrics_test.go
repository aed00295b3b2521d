package metrics_test

import (
	"testing"

	"github.com/hyperjump/duplo/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	m.Analyses.WithLabelValues("success").Inc()
	m.RowsProcessed.WithLabelValues(metrics.RowsGrouped).Add(4)
	m.GroupsFound.Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Analyses.WithLabelValues("success")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.RowsProcessed.WithLabelValues(metrics.RowsGrouped)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.GroupsFound), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewMetrics(reg)
	assert.Panics(t, func() { metrics.NewMetrics(reg) })
}
