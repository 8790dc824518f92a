package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/hr-dashboard/config"
)

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: hrdash-admin <command> [flags]")
	for name := range commands() {
		assert.Contains(t, out, "  "+name)
	}
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("db-reset")), bytes.Index(buf.Bytes(), []byte("sessions-revoke")))
}

func TestCommands_MigrateIsTopLevel(t *testing.T) {
	cmds := commands()
	assert.Contains(t, cmds, "migrate")
	assert.Contains(t, cmds, "migrate-status")
	assert.NotContains(t, cmds, "sessions-migrate")
}

func TestParseSessionFlags(t *testing.T) {
	opts, err := parseSessionFlags("sessions-revoke", []string{"--id", " abc "}, true)
	require.NoError(t, err)
	assert.Equal(t, "abc", opts.ID)
	assert.Equal(t, defaultSessionTimeout, opts.Timeout)

	opts, err = parseSessionFlags("sessions-revoke", []string{"--timeout", "5s", "xyz"}, true)
	require.NoError(t, err)
	assert.Equal(t, "xyz", opts.ID)
	assert.Equal(t, 5*time.Second, opts.Timeout)

	_, err = parseSessionFlags("sessions-revoke", nil, true)
	assert.ErrorContains(t, err, "session id is required")

	_, err = parseSessionFlags("sessions-count", []string{"--timeout", "0s"}, false)
	assert.ErrorContains(t, err, "--timeout")
}

func TestParseDBResetFlags(t *testing.T) {
	opts, err := parseDBResetFlags([]string{"--allow-remote"})
	require.NoError(t, err)
	assert.True(t, opts.AllowRemote)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	_, err = parseMigrateFlags("migrate", []string{"--timeout", "-1s"})
	assert.Error(t, err)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":              false,
		"localhost":     false,
		"127.0.0.1":     false,
		"::1":           false,
		"db.local":      false,
		"10.0.0.5":      true,
		"db.example.io": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestGuardRemoteHost_RefusesWithoutFlag(t *testing.T) {
	cmdCtx := &commandContext{Config: config.AppConfig{Postgres: config.DBConfig{Host: "db.example.io"}}}
	remote, err := guardRemoteHost(cmdCtx, false, "drop tables")
	assert.True(t, remote)
	assert.ErrorContains(t, err, "--allow-remote")

	cmdCtx.Config.Postgres.Host = "localhost"
	remote, err = guardRemoteHost(cmdCtx, false, "drop tables")
	assert.False(t, remote)
	assert.NoError(t, err)
}

func TestSessionCommands_RejectMemoryBackend(t *testing.T) {
	var out bytes.Buffer
	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: config.AppConfig{Session: config.SessionConfig{Backend: config.SessionBackendMemory}},
		Out:    &out,
	}

	assert.ErrorContains(t, runSessionsCount(cmdCtx, nil), "inside the server process")
	assert.ErrorContains(t, runSessionsRevoke(cmdCtx, []string{"abc"}), "inside the server process")
	assert.ErrorContains(t, runSessionsPurge(cmdCtx, nil), "SESSION_BACKEND=postgres")
	assert.Empty(t, out.String())
}
