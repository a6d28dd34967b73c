package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		level   string
		debugOn bool
		infoOn  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"bogus", false, true}, // unknown falls back to info
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(tt.level)
			assert.Equal(t, tt.debugOn, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.infoOn, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestRootCmdRegistersSubcommands(t *testing.T) {
	cmd := rootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{
		"login", "logout", "whoami", "demo-users",
		"consent", "keys", "templates", "playground",
		"tour", "health", "version",
	} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	flags := cmd.PersistentFlags()
	require.NotNil(t, flags.Lookup("config"))
	require.NotNil(t, flags.Lookup("log-level"))
	require.NotNil(t, flags.Lookup("ephemeral"))
}
