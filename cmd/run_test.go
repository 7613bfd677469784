//go:build !integration

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brewery-sync/internal/mapping"
	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/internal/store"
	"github.com/sells-group/brewery-sync/pkg/notion"
	"github.com/sells-group/brewery-sync/pkg/notion/notiontest"
)

func TestRunCmd_NoSubcommandPrintsUsage(t *testing.T) {
	var buf bytes.Buffer
	runCmd.SetOut(&buf)
	t.Cleanup(func() { runCmd.SetOut(nil) })

	err := runCmd.RunE(runCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Usage:")
	assert.Contains(t, buf.String(), "single")
}

func TestRunCmd_UnknownSubcommandPrintsUsage(t *testing.T) {
	var buf bytes.Buffer
	runCmd.SetOut(&buf)
	t.Cleanup(func() { runCmd.SetOut(nil) })

	err := runCmd.RunE(runCmd, []string{"everything"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Usage:")
}

func TestRunSingleCmd_MissingIDPrintsUsage(t *testing.T) {
	var buf bytes.Buffer
	runSingleCmd.SetOut(&buf)
	t.Cleanup(func() { runSingleCmd.SetOut(nil) })

	err := runSingleCmd.RunE(runSingleCmd, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "single <page-id>")
}

func TestRunAllCmd_MissingGoogleKey(t *testing.T) {
	cfg = testConfig(t)
	cfg.Google.Key = ""
	runAllCmd.SetContext(context.Background())

	err := runAllCmd.RunE(runAllCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.key is required")
}

func TestRunAllCmd_EnrichesEveryPage(t *testing.T) {
	mem := notiontest.NewMemory()
	useMemoryNotion(t, mem)
	mem.AddPage(breweryPage("Trillium", "110 Shawmut Rd", "Canton"))
	mem.AddPage(breweryPage("No Street", "", "Boston"))

	srv, calls := routeServer(t, "12.4 mi", "21 mins")

	cfg = testConfig(t)
	cfg.Google.BaseURL = srv.URL
	runAllCmd.SetContext(context.Background())

	require.NoError(t, runAllCmd.RunE(runAllCmd, nil))
	assert.Equal(t, int32(1), calls.Load())

	pages := mem.Pages()
	assert.Equal(t, "21 mins", notion.PlainText(pages[0].Properties, mapping.PropDriveTime))
	assert.Empty(t, notion.PlainText(pages[1].Properties, mapping.PropDriveTime))

	// The run and its skipped record are in the ledger.
	st, err := store.NewSQLite(cfg.Store.DatabaseURL)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.WorkflowEnrichAll, runs[0].Workflow)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Summary)
	assert.Equal(t, 1, runs[0].Summary.Enriched)
	assert.Equal(t, 1, runs[0].Summary.Skipped)

	outcomes, err := st.ListOutcomes(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.ReasonMissingFields, outcomes[0].Reason)
}

func TestRunAllCmd_RouteCacheServesSecondRun(t *testing.T) {
	mem := notiontest.NewMemory()
	useMemoryNotion(t, mem)
	mem.AddPage(breweryPage("Trillium", "110 Shawmut Rd", "Canton"))

	srv, calls := routeServer(t, "12.4 mi", "21 mins")

	cfg = testConfig(t)
	cfg.Google.BaseURL = srv.URL
	runAllCmd.SetContext(context.Background())

	require.NoError(t, runAllCmd.RunE(runAllCmd, nil))
	require.NoError(t, runAllCmd.RunE(runAllCmd, nil))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2, mem.Calls("update"))
}

func TestRunSingleCmd_UnknownPageEndsCleanly(t *testing.T) {
	mem := notiontest.NewMemory()
	useMemoryNotion(t, mem)

	cfg = testConfig(t)
	cfg.Store.Driver = "none"
	runSingleCmd.SetContext(context.Background())

	err := runSingleCmd.RunE(runSingleCmd, []string{"missing-page"})
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Calls("retrieve"))
	assert.Zero(t, mem.Calls("update"))
}

func TestRunSingleCmd_EnrichesPage(t *testing.T) {
	mem := notiontest.NewMemory()
	useMemoryNotion(t, mem)
	page := mem.AddPage(breweryPage("Trillium", "110 Shawmut Rd", "Canton"))

	srv, _ := routeServer(t, "1,204 ft", "3 mins")

	cfg = testConfig(t)
	cfg.Google.BaseURL = srv.URL
	runSingleCmd.SetContext(context.Background())

	require.NoError(t, runSingleCmd.RunE(runSingleCmd, []string{string(page.ID)}))

	pages := mem.Pages()
	assert.Equal(t, "3 mins", notion.PlainText(pages[0].Properties, mapping.PropDriveTime))
}
