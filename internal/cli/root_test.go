package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a SQLite-backed config into a fresh temp dir and
// returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	return writeBackendConfig(t, "sqlite", "prefs.db")
}

func writeBackendConfig(t *testing.T, backend, file string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "aesprefs.yaml")
	content := "namespace: com.example.cli\n" +
		"password: pw\n" +
		"backend: " + backend + "\n" +
		"path: " + filepath.Join(dir, file) + "\n" +
		"log_mode: none\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "aesprefs", cmd.Use)
	assert.Contains(t, cmd.Long, "AES-encrypted")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"get", "put", "array", "rm", "count", "dump", "key", "clear", "launch", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("metrics"))
}

func TestGetCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	getCmd, _, err := cmd.Find([]string{"get"})
	require.NoError(t, err)

	typeFlag := getCmd.Flags().Lookup("type")
	require.NotNil(t, typeFlag)
	assert.Equal(t, "t", typeFlag.Shorthand)
	assert.Equal(t, "string", typeFlag.DefValue)

	strictFlag := getCmd.Flags().Lookup("strict")
	require.NotNil(t, strictFlag)
	assert.Equal(t, "false", strictFlag.DefValue)
}

func TestArraySubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, sub := range []string{"set", "get"} {
		found, _, err := cmd.Find([]string{"array", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, found.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "count", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: ns\nbackend: memory\n"), 0600))

	out, _, err := execute(t, "count", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E001]")
	assert.Contains(t, out, "password is required")
}

func TestMetricsSummary(t *testing.T) {
	cfg := writeConfig(t)

	_, errOut, err := execute(t, "count", "--config", cfg, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, errOut, "init\tok\t1\n")
	assert.Contains(t, errOut, "countEntries\tok\t1\n")
	assert.Contains(t, errOut, "total\t")
}
