package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "prune-sessions"}, names)
}

func setEnv(t *testing.T, dsn string) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", dsn)
	t.Setenv("LOG_LEVEL", "error")
}

func TestMigrateAndPrune(t *testing.T) {
	setEnv(t, filepath.Join(t.TempDir(), "auth.db"))

	for _, args := range [][]string{{"migrate"}, {"prune-sessions"}} {
		cmd := NewRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)

		require.NoError(t, cmd.Execute(), out.String())
		if args[0] == "migrate" {
			assert.Contains(t, out.String(), "Migrations completed successfully")
		} else {
			assert.Contains(t, out.String(), "Deleted 0 expired sessions")
		}
	}
}

func TestMigrate_MissingSecret(t *testing.T) {
	setEnv(t, filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})

	err := cmd.Execute()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
}
