//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "import", "runs", "cache"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "brewery-sync", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["all"])
	assert.True(t, names["single"])
}

func TestImportCommand_Flags(t *testing.T) {
	enrich := importCmd.Flags().Lookup("enrich")
	require.NotNil(t, enrich, "import command should have --enrich flag")
	assert.Equal(t, "false", enrich.DefValue)

	state := importCmd.Flags().Lookup("state")
	require.NotNil(t, state, "import command should have --state flag")
	assert.Equal(t, "", state.DefValue)
}

func TestRunsCommand_Flags(t *testing.T) {
	limit := runsCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "50", limit.DefValue)

	require.NotNil(t, runsCmd.Flags().Lookup("status"))
	require.NotNil(t, runsCmd.Flags().Lookup("workflow"))

	output := runsShowCmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "yaml", output.DefValue)
}
