package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json", false)
	logger.Info("hidden")
	logger.Warn("shown", "county", "Cook")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"county":"Cook"`)
}

func TestNewLogger_VerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "error", "text", true)
	logger.Debug("detail", "step", 1)
	assert.Contains(t, buf.String(), "msg=detail")
}

func finishedRun(t *testing.T) *domain.RunEvent {
	t.Helper()
	fake := clockwork.NewFakeClockAt(time.Date(2018, time.March, 7, 9, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	ev := domain.NewRunEvent("update-maps", []string{"maps", "3/7/2018"})
	ev.Count("saved", 3)
	ev.Count("failed", 1)
	fake.Advance(1500 * time.Millisecond)
	ev.Finish(nil, true)
	return ev
}

func TestMetrics_ObserveRun(t *testing.T) {
	m := NewMetricsForTesting()
	m.ObserveRun(finishedRun(t))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Runs.WithLabelValues("update-maps", "partial")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.Items.WithLabelValues("update-maps", "saved")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Items.WithLabelValues("update-maps", "failed")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	// Two instances must not collide the way default-registry collectors would.
	a, b := NewMetrics(), NewMetrics()
	a.Runs.WithLabelValues("append", "succeeded").Inc()
	assert.InDelta(t, 0, testutil.ToFloat64(b.Runs.WithLabelValues("append", "succeeded")), 0)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetricsForTesting()
	m.ObserveRun(finishedRun(t))

	path := filepath.Join(t.TempDir(), "wetgis.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `wetgis_runs_total{outcome="partial",tool="update-maps"} 1`)
	assert.True(t, strings.Contains(text, "wetgis_run_duration_seconds_bucket"))
}
