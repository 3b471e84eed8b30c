package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/persiandate/pkg/persiandate"
)

func TestObserveConversion(t *testing.T) {
	m := New()

	m.ObserveConversion(persiandate.US)
	m.ObserveConversion(persiandate.US)
	m.ObserveConversion(persiandate.Hyphenated)
	m.ObserveError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.conversions.WithLabelValues("us")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("hyphenated")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.conversions.WithLabelValues("international")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversionErrors))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveConversion(persiandate.US)
		m.ObserveError()
		m.ObserveRun(time.Now())
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveConversion(persiandate.International)
	m.ObserveRun(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "persiandate.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.Contains(out, `persiandate_conversions_total{format="international"} 1`), out)
	assert.True(t, strings.Contains(out, "persiandate_daemon_last_run_timestamp_seconds "), out)
	assert.Equal(t, 1.7e9, testutil.ToFloat64(m.lastRun))
}
