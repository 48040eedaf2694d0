package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("load_page", OutcomeOK)
	m.Observe("load_page", OutcomeOK)
	m.Observe("load_page", OutcomeDropped)
	m.SetLoadedRoots("t1", 7)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("load_page", OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("load_page", OutcomeDropped)))
	require.Equal(t, 7.0, testutil.ToFloat64(m.LoadedRoots.WithLabelValues("t1")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

// Повторная регистрация в том же реестре — паника (MustRegister).
func TestNew_DoubleRegisterPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}

func TestNilMetrics_NoPanic(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.Observe("x", OutcomeOK)
		m.SetLoadedRoots("t", 1)
	})

	require.NotNil(t, New(nil))
}
