//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Workflow:  model.WorkflowImport,
			Status:    model.RunStatusComplete,
			Summary:   &model.Summary{Total: 42, Failed: 1},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Workflow:  model.WorkflowEnrichAll,
			Status:    model.RunStatusRunning,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "WORKFLOW")
	assert.Contains(t, output, "import")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "enrich_all")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestComputeRunStats(t *testing.T) {
	now := time.Now()
	runs := []model.Run{
		{Status: model.RunStatusComplete, Summary: &model.Summary{Total: 10, Succeeded: 8, Skipped: 2}, CreatedAt: now, UpdatedAt: now.Add(10 * time.Second)},
		{Status: model.RunStatusComplete, Summary: &model.Summary{Total: 5, Succeeded: 4, Failed: 1}, CreatedAt: now, UpdatedAt: now.Add(30 * time.Second)},
		{Status: model.RunStatusFailed, Summary: &model.Summary{}},
		{Status: model.RunStatusRunning},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Running)
	assert.Equal(t, 15, s.Records.Total)
	assert.Equal(t, 12, s.Records.Succeeded)
	assert.Equal(t, 2, s.Records.Skipped)
	assert.Equal(t, 1, s.Records.Failed)
	assert.InDelta(t, 20.0, s.AvgDurSecs, 0.01)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	assert.Contains(t, buf.String(), "Avg duration:")
}

func TestWriteRunDetail(t *testing.T) {
	d := runDetail{
		Run: &model.Run{ID: "run-1", Workflow: model.WorkflowEnrichSingle, Status: model.RunStatusComplete},
		Outcomes: []model.Outcome{
			model.Skipped("page-1", "Trillium", model.ReasonNoRoute),
		},
	}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRunDetail(&buf, d, "yaml"))

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Contains(t, buf.String(), "workflow: enrich_single")
		assert.Contains(t, buf.String(), "reason: no_route")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRunDetail(&buf, d, "json"))

		var got runDetail
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "run-1", got.Run.ID)
		require.Len(t, got.Outcomes, 1)
		assert.Equal(t, model.OutcomeSkipped, got.Outcomes[0].Kind)
	})

	t.Run("unknown", func(t *testing.T) {
		err := writeRunDetail(&bytes.Buffer{}, d, "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})
}

func TestRunsShowCmd_PrintsOutcomes(t *testing.T) {
	cfg = testConfig(t)
	ctx := context.Background()

	st, err := store.NewSQLite(cfg.Store.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	run, err := st.CreateRun(ctx, model.WorkflowImport)
	require.NoError(t, err)
	require.NoError(t, st.RecordOutcomes(ctx, run.ID, []model.Outcome{
		model.Failed("b-9", "Broken Brewing", assert.AnError),
	}))
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.Summary{Total: 1, Failed: 1}))
	require.NoError(t, st.Close())

	var buf bytes.Buffer
	runsShowCmd.SetOut(&buf)
	runsShowCmd.SetContext(ctx)
	t.Cleanup(func() { runsShowCmd.SetOut(nil) })
	require.NoError(t, runsShowCmd.Flags().Set("output", "json"))
	t.Cleanup(func() { _ = runsShowCmd.Flags().Set("output", "yaml") })

	require.NoError(t, runsShowCmd.RunE(runsShowCmd, []string{run.ID}))

	var got runDetail
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, model.RunStatusComplete, got.Run.Status)
	require.Len(t, got.Outcomes, 1)
	assert.Equal(t, "b-9", got.Outcomes[0].RecordID)
	assert.Equal(t, assert.AnError.Error(), got.Outcomes[0].Error)
}

func TestRunsShowCmd_UnknownRun(t *testing.T) {
	cfg = testConfig(t)
	runsShowCmd.SetContext(context.Background())

	err := runsShowCmd.RunE(runsShowCmd, []string{"nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestRunsCmd_RequiresLedger(t *testing.T) {
	cfg = testConfig(t)
	cfg.Store.Driver = "none"
	runsCmd.SetContext(context.Background())

	err := runsCmd.RunE(runsCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestCachePruneCmd(t *testing.T) {
	cfg = testConfig(t)
	ctx := context.Background()

	st, err := store.NewSQLite(cfg.Store.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.SetCachedRoute(ctx, "stale", model.Route{DistanceMiles: 1}, -time.Hour))
	require.NoError(t, st.SetCachedRoute(ctx, "fresh", model.Route{DistanceMiles: 2}, time.Hour))
	require.NoError(t, st.Close())

	var buf bytes.Buffer
	cachePruneCmd.SetOut(&buf)
	cachePruneCmd.SetContext(ctx)
	t.Cleanup(func() { cachePruneCmd.SetOut(nil) })

	require.NoError(t, cachePruneCmd.RunE(cachePruneCmd, nil))
	assert.Contains(t, buf.String(), "Deleted 1 expired routes.")
}
