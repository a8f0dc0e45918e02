package prometheus

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndScrape(t *testing.T) {
	m := NewMetrics("ftmap_test")
	m.ObserveStage(StageCluster, 250*time.Millisecond)
	m.RunFinished(OutcomeOK, 1200, 7)
	m.RunFinished(OutcomeError, 0, 0)
	m.LowConfidenceRun()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, "ftmap_test_runs_total")
	assert.Contains(t, body, `outcome="ok"`)
	assert.Contains(t, body, `outcome="error"`)
	assert.Contains(t, body, "ftmap_test_stage_duration_seconds")
	assert.Contains(t, body, "ftmap_test_low_confidence_runs_total 1")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveStage(StageScoring, time.Second)
		m.RunFinished(OutcomeOK, 1, 1)
		m.LowConfidenceRun()
	})
	assert.Nil(t, m.Registry())
}

func TestErrorRunsSkipShapeHistograms(t *testing.T) {
	m := NewMetrics("ftmap_shape")
	m.RunFinished(OutcomeError, 500, 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "ftmap_shape_poses_per_run_count 0")
}
