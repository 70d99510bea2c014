package telemetry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_VerboseWritesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, true)

	logger.Debug("fetching output", "execution_id", "42")
	assert.Contains(t, buf.String(), "fetching output")
	assert.Contains(t, buf.String(), "execution_id=42")
}

func TestSetupLogger_DefaultSuppressesInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	logger := SetupLogger(&buf, false)

	logger.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, true)

	ctx := WithLogger(context.Background(), WithExecutionID(logger, "7"))
	FromContext(ctx).Debug("hello")
	assert.Contains(t, buf.String(), "execution_id=7")
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("execution_output", 200, 10*time.Millisecond)
	m.ObserveRequest("execution_output", 200, 20*time.Millisecond)
	m.ObserveRequest("scm_perform", 0, time.Millisecond)
	m.ObserveBatch(3)
	m.ObserveBatch(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("execution_output", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("scm_perform", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.streamBatch))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.streamLines))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("x", 200, time.Second)
	m.ObserveBatch(1)
	m.ObserveCommand("scm perform", "ok")
	assert.NoError(t, m.WriteFile("/nonexistent/ignored.prom"))
}

func TestMetrics_WriteFile(t *testing.T) {
	m := NewMetrics()
	m.ObserveCommand("executions follow", "ok")

	path := filepath.Join(t.TempDir(), "rd.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rd_commands_total{command="executions follow",result="ok"} 1`)
}

func TestMetrics_Gatherer(t *testing.T) {
	m := NewMetrics()
	m.ObserveCommand("scm status", "unsuccessful")
	m.ObserveCommand("scm status", "ok")

	n, err := testutil.GatherAndCount(m.Gatherer(), "rd_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
