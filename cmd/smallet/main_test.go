package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/iov-one/smallet"
	"github.com/iov-one/smallet/errors"
	"github.com/iov-one/smallet/x/multisig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cli runs commands against a temporary home directory.
type cli struct {
	t    *testing.T
	home string
}

func newCLI(t *testing.T) (*cli, func()) {
	t.Helper()
	home, err := ioutil.TempDir("", "smallet-cli-")
	require.NoError(t, err)
	return &cli{t: t, home: home}, func() { os.RemoveAll(home) }
}

func (c *cli) run(name string, args ...string) (string, error) {
	c.t.Helper()
	cmd, ok := commands[name]
	require.True(c.t, ok, "unknown command %q", name)
	var out, logs bytes.Buffer
	args = append(args, "--home", c.home, "--log-level", "none")
	err := cmd(&out, &logs, args)
	return out.String(), err
}

func (c *cli) mustRun(name string, args ...string) string {
	c.t.Helper()
	out, err := c.run(name, args...)
	require.NoError(c.t, err, "%s %v", name, args)
	return out
}

func operator(t testing.TB, name string) smallet.Address {
	c, err := operatorCondition(name)
	require.NoError(t, err)
	return c.Address()
}

const (
	genesisTime = "1557144000" // 2019-05-06 12:00 UTC
	later       = "1557147600"
)

func TestWalletLifecycle(t *testing.T) {
	c, cleanup := newCLI(t)
	defer cleanup()

	c.mustRun("init", "--chain-id", "test-chain")
	_, err := c.run("init", "--chain-id", "test-chain")
	require.True(t, errors.ErrState.Is(err), "got %+v", err)

	out := c.mustRun("create-wallet", "--as", "alice", "--owner", "alice,bob", "--owner", "carol", "--threshold", "2", "--time", genesisTime)
	var res resultView
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "0000000000000001", res.Data)
	assert.Equal(t, "multisig/create_wallet", res.Tags["action"])

	c.mustRun("propose", "--as", "alice", "--wallet", "1", "--change-threshold", "1", "--time", genesisTime)

	// a single approval from the proposer is not enough
	_, err = c.run("execute", "--as", "carol", "--wallet", "1", "--index", "0", "--time", later)
	require.True(t, multisig.ErrNotEnoughSigners.Is(err), "got %+v", err)

	c.mustRun("approve", "--as", "bob", "--wallet", "1", "--index", "0", "--time", genesisTime)

	// only owners can approve
	_, err = c.run("approve", "--as", "mallory", "--wallet", "1", "--index", "0", "--time", genesisTime)
	require.True(t, multisig.ErrInvalidOwner.Is(err), "got %+v", err)

	out = c.mustRun("show-tx", "--wallet", "1", "--index", "0", "--time", later)
	var view struct {
		Index uint64
		State string
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "executable", view.State)

	c.mustRun("execute", "--as", "carol", "--wallet", "1", "--index", "0", "--time", later)
	_, err = c.run("execute", "--as", "carol", "--wallet", "1", "--index", "0", "--time", later)
	require.True(t, multisig.ErrAlreadyExecuted.Is(err), "got %+v", err)

	out = c.mustRun("show-wallet", "--wallet", "1")
	var wallet walletView
	require.NoError(t, json.Unmarshal([]byte(out), &wallet))
	assert.Equal(t, uint32(1), wallet.Wallet.Threshold)
	assert.Equal(t, []smallet.Address{operator(t, "alice"), operator(t, "bob"), operator(t, "carol")}, wallet.Wallet.Owners)
	assert.Equal(t, multisig.WalletAddress(walletID(1)), wallet.Address)

	out = c.mustRun("show-tx", "--wallet", "1", "--all", "--time", later)
	var all []struct {
		Index uint64
		State string
	}
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "executed", all[0].State)
}

func TestTimelockedOwnerChange(t *testing.T) {
	c, cleanup := newCLI(t)
	defer cleanup()

	genesis := filepath.Join(c.home, "genesis.json")
	owners, err := json.Marshal([]smallet.Address{operator(t, "alice"), operator(t, "bob")})
	require.NoError(t, err)
	state := fmt.Sprintf(`{"multisig": {"wallets": [{"owners": %s, "threshold": 1, "minimum_delay": 3600}]}}`, owners)
	require.NoError(t, ioutil.WriteFile(genesis, []byte(state), 0600))
	c.mustRun("init", "--chain-id", "test-chain", "--genesis", genesis)

	// the wallet requires a timelock
	_, err = c.run("propose", "--as", "bob", "--wallet", "1", "--set-owners", "bob,carol", "--time", genesisTime)
	require.True(t, multisig.ErrInvalidETA.Is(err), "got %+v", err)

	c.mustRun("propose", "--as", "bob", "--wallet", "1", "--set-owners", "bob,carol", "--delay", "3600", "--time", genesisTime)

	_, err = c.run("execute", "--as", "alice", "--wallet", "1", "--index", "0", "--time", genesisTime)
	require.True(t, multisig.ErrTransactionNotReady.Is(err), "got %+v", err)

	c.mustRun("execute", "--as", "alice", "--wallet", "1", "--index", "0", "--time", later)

	// alice is no longer an owner
	_, err = c.run("propose", "--as", "alice", "--wallet", "1", "--change-threshold", "2", "--delay", "3600", "--time", later)
	require.True(t, multisig.ErrInvalidOwner.Is(err), "got %+v", err)

	out := c.mustRun("show-wallet", "--wallet", "1")
	var wallet walletView
	require.NoError(t, json.Unmarshal([]byte(out), &wallet))
	assert.Equal(t, []smallet.Address{operator(t, "bob"), operator(t, "carol")}, wallet.Wallet.Owners)
	assert.Equal(t, uint32(1), wallet.Wallet.OwnerSetSeqno)
}

func TestSubaccounts(t *testing.T) {
	c, cleanup := newCLI(t)
	defer cleanup()

	c.mustRun("init", "--chain-id", "test-chain")
	c.mustRun("create-wallet", "--as", "alice", "--owner", "alice", "--threshold", "1", "--time", genesisTime)

	out := c.mustRun("derive", "--wallet", "1", "--kind", "owner_invoker", "--index", "3")
	var derived derivedView
	require.NoError(t, json.Unmarshal([]byte(out), &derived))
	want, err := multisig.DeriveAddress(multisig.WalletAddress(walletID(1)), multisig.OwnerInvoker, 3)
	require.NoError(t, err)
	assert.Equal(t, want, derived.Address)
	fromBech32, err := smallet.ParseAddress("bech32:" + derived.Bech32)
	require.NoError(t, err)
	assert.Equal(t, want, fromBech32)

	c.mustRun("subaccount", "--as", "alice", "--wallet", "1", "--kind", "owner_invoker", "--index", "3", "--time", genesisTime)
	_, err = c.run("subaccount", "--as", "alice", "--wallet", "1", "--kind", "owner_invoker", "--index", "3", "--time", genesisTime)
	require.True(t, errors.ErrDuplicate.Is(err), "got %+v", err)

	_, err = c.run("subaccount", "--as", "alice", "--wallet", "1", "--kind", "derived", "--index", "3", "--address", want.String(), "--time", genesisTime)
	require.True(t, multisig.ErrSubaccountOwnerMismatch.Is(err), "got %+v", err)
}

func TestCommandLineErrors(t *testing.T) {
	c, cleanup := newCLI(t)
	defer cleanup()

	// the chain is not initialized
	_, err := c.run("create-wallet", "--as", "alice", "--owner", "alice", "--threshold", "1")
	require.True(t, errors.ErrState.Is(err), "got %+v", err)

	_, err = c.run("init")
	require.True(t, errors.ErrEmpty.Is(err), "got %+v", err)

	_, err = c.run("create-wallet", "--owner", "alice", "--threshold", "1")
	require.True(t, errors.ErrInput.Is(err), "missing --as: %+v", err)

	_, err = c.run("approve", "--as", "alice", "--wallet", "1", "--index", "0", "extra")
	require.True(t, errors.ErrInput.Is(err), "got %+v", err)

	c.mustRun("init", "--chain-id", "test-chain")
	_, err = c.run("propose", "--as", "alice", "--wallet", "1")
	require.True(t, errors.ErrEmpty.Is(err), "got %+v", err)

	_, err = c.run("propose", "--as", "alice", "--wallet", "1", "--raw", "nohex")
	require.True(t, errors.ErrInput.Is(err), "got %+v", err)

	for _, threshold := range []string{"4294967298", "-2"} {
		_, err = c.run("propose", "--as", "alice", "--wallet", "1", "--change-threshold", threshold)
		require.True(t, errors.ErrInput.Is(err), "threshold %s: %+v", threshold, err)
	}

	_, err = c.run("show-wallet", "--wallet", "7")
	require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
}

func TestConcurrentExecute(t *testing.T) {
	c, cleanup := newCLI(t)
	defer cleanup()

	names := []string{"alice", "bob", "carol", "dave"}
	c.mustRun("init", "--chain-id", "test-chain")
	c.mustRun("create-wallet", "--as", "alice", "--owner", strings.Join(names, ","), "--threshold", "2", "--time", genesisTime)
	c.mustRun("propose", "--as", "alice", "--wallet", "1", "--change-threshold", "3", "--time", genesisTime)
	c.mustRun("approve", "--as", "bob", "--wallet", "1", "--index", "0", "--time", genesisTime)

	a, err := openApp(globalOptions{Home: c.home, LogLevel: "none"}, ioutil.Discard)
	require.NoError(t, err)
	defer a.Close()

	now, err := parseUnixTime(later)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, len(names)*4)
	for i := 0; i < 4; i++ {
		for _, name := range names {
			signer, err := operatorCondition(name)
			require.NoError(t, err)
			wg.Add(1)
			go func(signer smallet.Condition) {
				defer wg.Done()
				_, err := a.submit(now.Time(), signer, &multisig.ExecuteTransactionMsg{WalletID: walletID(1), Index: 0})
				errs <- err
			}(signer)
		}
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, multisig.ErrAlreadyExecuted.Is(err), "unexpected error: %+v", err)
	}
	assert.Equal(t, 1, succeeded)

	w, err := a.wallet(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), w.Threshold)
}

func TestConfigFile(t *testing.T) {
	c, cleanup := newCLI(t)
	defer cleanup()

	conf := "chain_id = \"from-file\"\nlog_level = \"debug\"\n"
	require.NoError(t, ioutil.WriteFile(filepath.Join(c.home, configFileName), []byte(conf), 0600))

	cfg, err := resolveConfig(globalOptions{Home: c.home})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ChainID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "", cfg.MetricsAddr)

	// command line wins
	cfg, err = resolveConfig(globalOptions{Home: c.home, LogLevel: "error"})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)

	out := c.mustRun("init")
	assert.Contains(t, out, "from-file")

	_, err = resolveConfig(globalOptions{Home: c.home, Config: filepath.Join(c.home, "missing.toml")})
	require.True(t, errors.ErrInput.Is(err), "got %+v", err)

	// without a file defaults are used
	cfg, err = resolveConfig(globalOptions{Home: filepath.Join(c.home, "empty")})
	require.NoError(t, err)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "", cfg.ChainID)
}

func TestParseIdentity(t *testing.T) {
	alice := operator(t, "alice")

	cases := map[string]struct {
		input   string
		want    smallet.Address
		wantErr *errors.Error
	}{
		"operator name":   {input: "alice", want: alice},
		"hex address":     {input: alice.String(), want: alice},
		"prefixed hex":    {input: "hex:" + alice.String(), want: alice},
		"empty":           {input: " ", wantErr: errors.ErrEmpty},
		"invalid address": {input: "hex:zz", wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := parseIdentity(tc.input)
			require.True(t, tc.wantErr.Is(err), "got %+v", err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRawInstruction(t *testing.T) {
	program, data, err := parseRawInstruction("hex:" + multisig.WalletProgramID.String() + ":0a0b")
	require.NoError(t, err)
	assert.Equal(t, multisig.WalletProgramID, program)
	assert.Equal(t, []byte{0x0a, 0x0b}, data)

	_, _, err = parseRawInstruction(multisig.WalletProgramID.String() + ":xyz")
	require.True(t, errors.ErrInput.Is(err), "got %+v", err)
}
