package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMissingConfigIsReported(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	for _, args := range [][]string{
		{"chatfeed", "--config", missing},
		{"chatfeed", "--config", missing, "clear"},
	} {
		err := newApp().Run(args)
		require.Error(t, err)
		require.ErrorContains(t, err, "load config")
		require.ErrorIs(t, err, os.ErrNotExist)

		var out bytes.Buffer
		reportError(&out, err)
		require.Contains(t, out.String(), "chatfeed: load config")
		require.Contains(t, out.String(), missing)
	}
}

func TestReportErrorWithoutLogging(t *testing.T) {
	prev := zap.L()
	zap.ReplaceGlobals(zap.NewNop())
	defer zap.ReplaceGlobals(prev)

	var out bytes.Buffer
	reportError(&out, errors.New("boom"))
	require.Equal(t, "chatfeed: boom\n", out.String())
}

func TestClearCommand(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"log": {"level": "error"}
	}`), 0o600))

	require.NoError(t, newApp().Run([]string{"chatfeed", "--config", path, "clear"}))
}
