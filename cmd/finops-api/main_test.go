package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgpcy/finops-dashboard-api/internal/budget"
	"github.com/zgpcy/finops-dashboard-api/internal/config"
)

func TestOpenBudgetStore(t *testing.T) {
	dir := t.TempDir()

	store, err := openBudgetStore(config.Budgets{Backend: config.BudgetBackendFile, Path: filepath.Join(dir, "budgets.json")})
	require.NoError(t, err)
	assert.IsType(t, &budget.FileStore{}, store)
	require.NoError(t, store.Close())

	store, err = openBudgetStore(config.Budgets{Backend: config.BudgetBackendBolt, Path: filepath.Join(dir, "budgets.db")})
	require.NoError(t, err)
	assert.IsType(t, &budget.BoltStore{}, store)
	require.NoError(t, store.Close())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "gateways", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "finops-api dev")
}
