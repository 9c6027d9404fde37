package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	runOpts = struct {
		configPath  string
		dryRun      bool
		once        bool
		sim         bool
		metricsAddr string
		debug       bool
	}{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "execbot version "+version)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execbot.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")
	assert.FileExists(t, path)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Symbol: XAUUSD M5 (200 bars)")
}

func TestConfigValidateRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regime:\n  ema_fast: 50\n"), 0o644))

	_, err := execute(t, "config", "validate", "-f", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regime.ema_fast must be lt regime.ema_slow")
}

func TestRunSimOnceJournals(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "journal.db")
	cfgPath := filepath.Join(dir, "execbot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("journal:\n  type: sqlite\n  db_path: "+db+"\n"), 0o644))

	_, err := execute(t, "run", "--config", cfgPath, "--sim", "--dryrun", "--once")
	require.NoError(t, err)
	assert.FileExists(t, db)

	out, err := execute(t, "journal", "--db", db, "today")
	require.NoError(t, err)
	assert.Contains(t, out, "* DAY: ")
	assert.Contains(t, out, ":CYCLES:       1")
}

func TestRunRejectsUnknownSimSymbol(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "execbot.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("symbol: GBPJPY\njournal:\n  type: none\n"), 0o644))

	_, err := execute(t, "run", "--config", cfgPath, "--sim", "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no built-in spec for GBPJPY")
}

func TestJournalDayBadDate(t *testing.T) {
	_, err := execute(t, "journal", "--db", filepath.Join(t.TempDir(), "j.db"), "day", "10/03/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}
