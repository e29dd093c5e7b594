package database

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"imagecert/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(id, submission string, at time.Time) *types.Report {
	return &types.Report{
		Version:     types.ReportVersion,
		RunID:       id,
		Submission:  submission,
		GeneratedAt: at,
		MetricOrder: []string{"ssim", "vif"},
		Cases: []types.CaseResult{
			{
				Name:    "box",
				Metrics: types.MetricResult{"ssim": 0.97, "vif": types.Score(math.NaN())},
				Passed:  types.Verdict{"ssim": true},
				Pass:    true,
			},
			{Name: "duck", Error: "failed to decode image"},
		},
		Summary: types.Summary{Total: 2, Passed: 1, Errored: 1},
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, RecordRun(db, sampleReport("run-1", "alpha", base)))
	require.NoError(t, RecordRun(db, sampleReport("run-2", "beta", base.Add(time.Hour))))
	require.NoError(t, RecordRun(db, sampleReport("run-3", "alpha", base.Add(2*time.Hour))))

	runs, err := ListRuns(db, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"run-3", "run-2", "run-1"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Equal(t, base.Add(2*time.Hour), runs[0].GeneratedAt)
	assert.Equal(t, 2, runs[0].Total)
	assert.Equal(t, 1, runs[0].Errored)

	alpha, err := ListRuns(db, "alpha", 1)
	require.NoError(t, err)
	require.Len(t, alpha, 1)
	assert.Equal(t, "run-3", alpha[0].ID)
}

func TestRunMetrics(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RecordRun(db, sampleReport("run-1", "alpha", time.Now())))

	got, err := GetRunMetrics(db, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "box", got[0].CaseName)
	assert.Equal(t, "ssim", got[0].Metric)
	assert.InDelta(t, 0.97, float64(got[0].Value), 1e-12)
	require.NotNil(t, got[0].Passed)
	assert.True(t, *got[0].Passed)

	assert.Equal(t, "vif", got[1].Metric)
	assert.False(t, got[1].Value.IsDefined())
	assert.Nil(t, got[1].Passed)
}

func TestRecordRunRejectsDuplicateID(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RecordRun(db, sampleReport("same", "alpha", time.Now())))
	assert.Error(t, RecordRun(db, sampleReport("same", "alpha", time.Now())))

	metrics, err := GetRunMetrics(db, "same")
	require.NoError(t, err)
	assert.Len(t, metrics, 2)
}
