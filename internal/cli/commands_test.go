package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerScenario(t *testing.T) {
	r := newFileRunner(t)

	assert.Equal(t, "Created account a1 (Alice): balance 0\n", r.mustRun("account", "create", "--id", "a1", "--name", "Alice"))
	assert.Equal(t, "Deposited to account a1 (Alice): balance 100\n", r.mustRun("deposit", "a1", "100"))

	res := r.run("withdraw", "a1", "500")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, res.exitCode())
	assert.True(t, IsReported(res.err))
	assert.Contains(t, res.stdout, "Error [E_REJECTED]")
	assert.Contains(t, res.stdout, "insufficient funds")

	assert.Contains(t, r.mustRun("log"), "Entries: 2")
	assert.Equal(t, "a1: 100\n", r.mustRun("balance", "a1"))
}

func TestAccountCreateGeneratesID(t *testing.T) {
	r := newFileRunner(t)

	assert.Equal(t, "Created account acc-0001 (Bob): balance 0\n", r.mustRun("account", "create", "--name", "Bob"))
	assert.Equal(t, "Created account acc-0002 (Carol): balance 0\n", r.mustRun("account", "create", "--name", "Carol"))

	out := r.mustRun("accounts")
	assert.Contains(t, out, "acc-0001")
	assert.Contains(t, out, "acc-0002")
	assert.Contains(t, out, "Carol")
}

func TestAccountCreateRequiresName(t *testing.T) {
	r := newFileRunner(t)
	res := r.run("account", "create", "--id", "a1")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, res.exitCode())
	assert.Contains(t, res.err.Error(), "required flag")
}

func TestAccountCreateDuplicate(t *testing.T) {
	r := newFileRunner(t)
	r.mustRun("account", "create", "--id", "a1", "--name", "Alice")

	res := r.run("account", "create", "--id", "a1", "--name", "Mallory")
	assert.Equal(t, ExitFailure, res.exitCode())
	assert.Contains(t, res.stdout, "account already exists")
	assert.Contains(t, r.mustRun("log"), "Entries: 1")
}

func TestTransferRollback(t *testing.T) {
	r := newFileRunner(t)
	r.mustRun("account", "create", "--id", "acc1", "--name", "Alice")
	r.mustRun("account", "create", "--id", "acc2", "--name", "Bob")
	r.mustRun("deposit", "acc1", "50")

	res := r.run("transfer", "acc1", "acc2", "100")
	assert.Equal(t, ExitFailure, res.exitCode())

	assert.Equal(t, "acc1: 50\n", r.mustRun("balance", "acc1"))
	assert.Equal(t, "acc2: 0\n", r.mustRun("balance", "acc2"))

	assert.Equal(t, "Transferred 30 from acc1 to acc2: balances 20, 30\n", r.mustRun("transfer", "acc1", "acc2", "30"))
}

func TestBalanceMissingAccount(t *testing.T) {
	r := newFileRunner(t)

	res := r.run("--format", "json", "balance", "nonexistent")
	assert.Equal(t, ExitFailure, res.exitCode())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "nonexistent")
}

func TestInvalidAmount(t *testing.T) {
	r := newFileRunner(t)
	r.mustRun("account", "create", "--id", "a1", "--name", "Alice")

	res := r.run("deposit", "a1", "12.50")
	assert.Equal(t, ExitCommandError, res.exitCode())
	assert.Contains(t, res.stdout, "Error [E_USAGE]")

	res = r.run("deposit", "a1", "0")
	assert.Equal(t, ExitFailure, res.exitCode())
	assert.Contains(t, res.stdout, "Error [E_REJECTED]")
}

func TestJSONOutput(t *testing.T) {
	r := newFileRunner(t)
	r.mustRun("account", "create", "--id", "a1", "--name", "Alice")

	out := r.mustRun("--format", "json", "deposit", "a1", "100")

	var resp struct {
		Status string        `json:"status"`
		Data   AccountResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "a1", resp.Data.Account.ID)
	assert.EqualValues(t, 100, resp.Data.Account.Balance)

	out = r.mustRun("--format", "json", "accounts")
	var list struct {
		Data AccountsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Data.Accounts, 1)
	assert.EqualValues(t, 100, list.Data.Total)
}

func TestAccountsEmpty(t *testing.T) {
	r := newFileRunner(t)
	assert.Equal(t, "No accounts.\n", r.mustRun("accounts"))
}

func TestReplayDeterministic(t *testing.T) {
	for name, r := range map[string]*cliRunner{
		"file":   newFileRunner(t),
		"sqlite": newSQLiteRunner(t),
	} {
		t.Run(name, func(t *testing.T) {
			r.t = t
			r.mustRun("account", "create", "--id", "acc1", "--name", "Alice")
			r.mustRun("account", "create", "--id", "acc2", "--name", "Bob")
			r.mustRun("deposit", "acc1", "50")
			r.mustRun("transfer", "acc1", "acc2", "30")

			out := r.mustRun("--format", "json", "replay")
			var resp struct {
				Status string       `json:"status"`
				Data   ReplayResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.True(t, resp.Data.Deterministic)
			assert.Equal(t, int64(4), resp.Data.Entries)
			assert.Equal(t, 2, resp.Data.Accounts)
			assert.EqualValues(t, 50, resp.Data.TotalBalance)
			assert.Equal(t, name, resp.Data.Backend)

			assert.Contains(t, r.mustRun("replay"), "✓ Replay verified deterministic")
		})
	}
}

func TestReplayCorruptFileLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memimg.log")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"data":{"id":"a1","name":"Alice"},"type":"create_account"}`+"\n"+
			`{"data":{"account_id":"a1","amount":100},"type":"refund"}`+"\n"), 0o644))

	r := newFileRunner(t)
	r.base = []string{"--log-backend", "file", "--log-path", path}

	res := r.run("replay")
	assert.Equal(t, ExitFailure, res.exitCode())
	assert.Contains(t, res.stdout, "Error [E_REPLAY]")
	assert.Contains(t, res.stdout, "entry 2")

	// Commands are refused too: the log cannot be trusted.
	res = r.run("deposit", "a1", "5")
	assert.Equal(t, ExitFailure, res.exitCode())
	assert.Contains(t, res.stdout, "Error [E_REPLAY]")

	assert.Contains(t, r.mustRun("log"), "Entries: 2")
}

func TestMemoryBackend(t *testing.T) {
	r := newFileRunner(t)
	r.base = []string{"--log-backend", "memory"}

	r.mustRun("account", "create", "--id", "a1", "--name", "Alice")
	out := r.mustRun("log")
	assert.Contains(t, out, "Backend: memory")
	assert.Contains(t, out, "Entries: 0")
}

func TestConfigFileSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	cfgPath := filepath.Join(dir, "memimg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  backend: sqlite\n  path: "+dbPath+"\n"), 0o644))

	r := newFileRunner(t)
	r.base = []string{"--config", cfgPath}

	r.mustRun("account", "create", "--id", "a1", "--name", "Alice")
	out := r.mustRun("log")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Entries: 1")
	assert.FileExists(t, dbPath)
}

func TestEnvSelectsBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.log")
	t.Setenv("MEMIMG_LOG_BACKEND", "file")
	t.Setenv("MEMIMG_LOG_PATH", path)

	r := newFileRunner(t)
	r.base = nil

	r.mustRun("account", "create", "--id", "a1", "--name", "Alice")
	assert.FileExists(t, path)
}

func TestEnvFileSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MEMIMG_LOG_BACKEND=sqlite\nMEMIMG_LOG_PATH="+dbPath+"\n"), 0o644))

	r := newFileRunner(t)
	r.base = []string{"--env-file", envFile}

	r.mustRun("account", "create", "--id", "a1", "--name", "Alice")
	assert.Contains(t, r.mustRun("log"), "Backend: sqlite")
	assert.FileExists(t, dbPath)
}

func TestVerboseLogsToStderr(t *testing.T) {
	r := newFileRunner(t)
	res := r.run("--verbose", "--format", "json", "account", "create", "--id", "a1", "--name", "Alice")
	require.NoError(t, res.err)

	assert.Contains(t, res.stderr, "command applied")
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp), "stdout must stay pure JSON")
}

func TestMetricsFile(t *testing.T) {
	r := newFileRunner(t)
	metricsPath := filepath.Join(t.TempDir(), "memimg.prom")

	r.mustRun("--metrics-file", metricsPath, "account", "create", "--id", "a1", "--name", "Alice")

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `memimg_apply_total{command="create_account",outcome="committed"} 1`)
	assert.Contains(t, string(data), "memimg_log_sequence 1")
}
