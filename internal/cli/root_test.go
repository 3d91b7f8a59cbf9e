package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "memimg", cmd.Use)
	assert.Contains(t, cmd.Long, "replayed")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"account", "create"},
		{"accounts"},
		{"deposit"},
		{"withdraw"},
		{"transfer"},
		{"balance"},
		{"replay"},
		{"log"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
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

	for _, name := range []string{"config", "log-backend", "log-path", "metrics-file"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Empty(t, flag.DefValue, name)
	}
}

func TestInvalidFormat(t *testing.T) {
	r := newFileRunner(t)
	res := r.run("--format", "yaml", "accounts")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, res.exitCode())
	assert.Contains(t, res.err.Error(), "invalid format")
}

func TestInvalidBackend(t *testing.T) {
	r := newFileRunner(t)
	res := r.run("--log-backend", "redis", "accounts")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, res.exitCode())
	assert.Contains(t, res.err.Error(), "log.backend")
}

func TestWrongArgCount(t *testing.T) {
	r := newFileRunner(t)
	res := r.run("deposit", "a1")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, res.exitCode())
	assert.False(t, IsReported(res.err))
}

func TestNewUUIDv7(t *testing.T) {
	a, b := NewUUIDv7(), NewUUIDv7()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}
