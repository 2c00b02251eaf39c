package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRun_UsageErrors(t *testing.T) {
	log := zaptest.NewLogger(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown command", args: []string{"reset"}},
		{name: "create without name", args: []string{"create"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(log, t.TempDir(), tt.args)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRun_Create(t *testing.T) {
	dir := t.TempDir()
	log := zaptest.NewLogger(t)

	require.NoError(t, run(log, dir, []string{"create", "add ticket tags", "Free-form tags on tickets"}))
	require.NoError(t, run(log, dir, []string{"create", "asset_serials"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"000001_add_ticket_tags.up.sql",
		"000001_add_ticket_tags.down.sql",
		"000002_asset_serials.up.sql",
		"000002_asset_serials.down.sql",
	}, names)

	up, err := os.ReadFile(filepath.Join(dir, "000001_add_ticket_tags.up.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(up), "Free-form tags on tickets")
}

func TestArgs(t *testing.T) {
	n, err := intArg([]string{"-2"})
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	_, err = intArg(nil)
	assert.ErrorIs(t, err, errUsage)
	_, err = intArg([]string{"two"})
	assert.ErrorIs(t, err, errUsage)

	v, err := versionArg([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
	_, err = versionArg([]string{"-1"})
	assert.ErrorIs(t, err, errUsage)

	assert.True(t, hasConfirm([]string{"--confirm"}))
	assert.True(t, hasConfirm([]string{"x", "-confirm"}))
	assert.False(t, hasConfirm(nil))

	assert.Equal(t, "embedded", sourceLabel(""))
	assert.Equal(t, "db/migrations", sourceLabel("db/migrations"))
}

func TestSchemaCommands_HaveUsage(t *testing.T) {
	for name, c := range schemaCommands {
		assert.NotEmpty(t, c.usage, name)
		assert.NotEmpty(t, c.help, name)
		assert.NotNil(t, c.run, name)
	}
}
