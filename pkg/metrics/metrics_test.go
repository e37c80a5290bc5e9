package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveDispatch("v2b2", "verified", time.Millisecond)
	m.ObserveDispatch("v2b2", "verified", time.Millisecond)
	m.ObserveDispatch("v2", "", time.Microsecond)
	m.AddHashes(10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatch.WithLabelValues("v2b2", "verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatch.WithLabelValues("v2", "none")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.hashes))
}

func TestDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDispatch("v1", "", time.Second)
		m.AddHashes(1)
	})
}
